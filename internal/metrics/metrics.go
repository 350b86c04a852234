// Package metrics exposes Prometheus collectors for the API, the
// simulation store and outbound alerts.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"ElephantWatchAPI/internal/models"
	"ElephantWatchAPI/internal/simulation"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles every metric the service records. All methods are safe
// on a nil receiver.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	ScenarioTriggers *prometheus.CounterVec
	ThreatSeverity   prometheus.Gauge
	DevicesOnline    prometheus.Gauge

	Alerts     *prometheus.CounterVec
	ChatRelays *prometheus.CounterVec
}

// New registers the collectors against reg, defaulting to the global
// registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests handled, labeled by method, route template and status code.",
	}, []string{"method", "route", "code"}), "http_requests_total"); err != nil {
		return nil, err
	}

	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"}), "http_request_duration_seconds"); err != nil {
		return nil, err
	}

	if c.ScenarioTriggers, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scenario_triggers_total",
		Help: "Scenario triggers, labeled by mode and whether the mode was known.",
	}, []string{"mode", "known"}), "scenario_triggers_total"); err != nil {
		return nil, err
	}

	if c.ThreatSeverity, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "threat_severity",
		Help: "Current simulated threat level (0=LOW, 1=MEDIUM, 2=HIGH).",
	}), "threat_severity"); err != nil {
		return nil, err
	}

	if c.DevicesOnline, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "devices_online",
		Help: "Devices currently reporting Online.",
	}), "devices_online"); err != nil {
		return nil, err
	}

	if c.Alerts, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_total",
		Help: "Proximity alerts, labeled by level and delivery status.",
	}, []string{"level", "status"}), "alerts_total"); err != nil {
		return nil, err
	}

	if c.ChatRelays, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_relays_total",
		Help: "Voice chat relays, labeled by outcome.",
	}, []string{"outcome"}), "chat_relays_total"); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations by route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		c.HTTPDurations.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (c *Collector) ScenarioTriggered(_ context.Context, ev simulation.Event) {
	if c == nil {
		return
	}
	c.ScenarioTriggers.WithLabelValues(string(ev.Mode), strconv.FormatBool(ev.Known)).Inc()
	if !ev.Known {
		return
	}
	c.ThreatSeverity.Set(float64(ev.Snapshot.ThreatLevel.Severity()))

	online := 0
	for _, d := range ev.Snapshot.Devices {
		if d.Status == models.DeviceOnline {
			online++
		}
	}
	c.DevicesOnline.Set(float64(online))
}

func (c *Collector) AlertDispatched(_ context.Context, alert *models.Alert) {
	if c == nil {
		return
	}
	c.Alerts.WithLabelValues(string(alert.Level), alert.Status).Inc()
}

// ChatRelayed counts one voice relay. outcome is "ok" or "error".
func (c *Collector) ChatRelayed(outcome string) {
	if c == nil {
		return
	}
	c.ChatRelays.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

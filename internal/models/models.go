// internal/models/models.go

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Position is a latitude/longitude pair in degrees. It travels as a
// [lat, lng] JSON array. Ranges are not validated.
type Position struct {
	Lat float64
	Lng float64
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lat, p.Lng})
}

// UnmarshalJSON treats null as a no-op, like the standard decoder does.
func (p *Position) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("position must be a [lat, lng] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("position must have exactly 2 elements, got %d", len(pair))
	}
	p.Lat, p.Lng = pair[0], pair[1]
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

type ThreatLevel string

const (
	ThreatLow    ThreatLevel = "LOW"
	ThreatMedium ThreatLevel = "MEDIUM"
	ThreatHigh   ThreatLevel = "HIGH"
)

// Severity orders levels for display. Alerting decisions compare exact values.
func (t ThreatLevel) Severity() int {
	switch t {
	case ThreatMedium:
		return 1
	case ThreatHigh:
		return 2
	default:
		return 0
	}
}

type ScenarioMode string

const (
	ModeNormal         ScenarioMode = "Normal Operations"
	ModeBufferBreach   ScenarioMode = "Scenario A: Buffer Breach"
	ModeCriticalThreat ScenarioMode = "Scenario B: Critical Threat"
	ModeHealthCheck    ScenarioMode = "Scenario C: System Health Check"
)

// ScenarioModes lists the known modes in selector order.
func ScenarioModes() []ScenarioMode {
	return []ScenarioMode{ModeNormal, ModeBufferBreach, ModeCriticalThreat, ModeHealthCheck}
}

type DeviceType string

const (
	DeviceVibrationSensor DeviceType = "Vibration Sensor"
	DeviceCamera          DeviceType = "Camera"
	DeviceGateway         DeviceType = "Gateway"
)

type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "Online"
	DeviceOffline DeviceStatus = "Offline"
	DeviceWarning DeviceStatus = "Warning"
)

type Device struct {
	ID           string       `json:"id"`
	Type         DeviceType   `json:"type"`
	Status       DeviceStatus `json:"status"`
	Battery      int          `json:"battery"`
	Coordinates  Position     `json:"coordinates"`
	LastActive   string       `json:"last_active"`
	LocationName string       `json:"location_name"`
}

// SimulationSnapshot is a consistent copy of the simulation store.
type SimulationSnapshot struct {
	SimMode     ScenarioMode `json:"sim_mode"`
	ThreatLevel ThreatLevel  `json:"threat_level"`
	StatusBar   string       `json:"status_bar"`
	ElephantPos Position     `json:"elephant_pos"`
	Devices     []Device     `json:"devices"`
	Logs        []string     `json:"logs"`
}

// MirrorState is the server-held copy of the subject position used for
// outbound notifications. Version increases by one on every write.
type MirrorState struct {
	Pos       Position    `json:"pos"`
	Level     ThreatLevel `json:"level"`
	Status    string      `json:"status"`
	Version   int64       `json:"version"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Detection is one bounding box in source-image pixel coordinates.
type Detection struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
}

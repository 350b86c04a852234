package line

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ElephantWatchAPI/internal/config"
	"ElephantWatchAPI/internal/models"
)

func TestProximityAlertLayout(t *testing.T) {
	msg := ProximityAlert("elephant nearby?", "1.46", "CRITICAL - Community Entry Imminent", models.Position{Lat: 13.7, Lng: 100.5})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, want := range []string{
		`"type":"flex"`,
		`"type":"bubble"`,
		`"backgroundColor":"#FF4B2B"`,
		`"text":"1.46 กม."`,
		`"text":"CRITICAL - Community Entry Imminent"`,
		`"text":"elephant nearby?"`,
		`"type":"separator"`,
		`"type":"uri"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("payload missing %s\n%s", want, s)
		}
	}
	if msg.Contents.Footer.Contents[0].(*Button).Action.URI != MapsURL(models.Position{Lat: 13.7, Lng: 100.5}) {
		t.Error("map button should point at the user position")
	}
}

func TestProximityAlertFallbacks(t *testing.T) {
	raw, _ := json.Marshal(ProximityAlert("", "0.00", "", models.Position{}))
	if !strings.Contains(string(raw), fallbackStatus) || !strings.Contains(string(raw), fallbackQuery) {
		t.Errorf("expected placeholders, got %s", raw)
	}
}

func TestMapsURL(t *testing.T) {
	u, err := url.Parse(MapsURL(models.Position{Lat: 12.885, Lng: 101.825}))
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("query") != "12.885,101.825" || u.Query().Get("api") != "1" {
		t.Errorf("unexpected maps url %s", u)
	}
}

func TestPushWithStaticToken(t *testing.T) {
	var gotAuth, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/push" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var body pushRequest
		json.NewDecoder(r.Body).Decode(&body)
		gotTo = body.To
		if r.Header.Get("X-Line-Retry-Key") == "" {
			t.Error("missing retry key")
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), config.LineConfig{ChannelAccessToken: "tok", APIBaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Push(context.Background(), "U1", ProximityAlert("q", "1.00", "s", models.Position{})); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotAuth != "Bearer tok" || gotTo != "U1" {
		t.Errorf("auth=%q to=%q", gotAuth, gotTo)
	}
}

func TestPushWithClientCredentials(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/oauth/accessToken", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "cid" {
			t.Errorf("unexpected token form %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"issued","token_type":"Bearer","expires_in":2592000}`)
	})
	mux.HandleFunc("/v2/bot/message/push", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer issued" {
			t.Errorf("unexpected auth %q", r.Header.Get("Authorization"))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(context.Background(), config.LineConfig{
		ChannelID:     "cid",
		ChannelSecret: "secret",
		TokenURL:      srv.URL + "/v2/oauth/accessToken",
		APIBaseURL:    srv.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Push(context.Background(), "U1"); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Errorf("token should be cached, fetched %d times", tokenCalls)
	}
}

func TestPushAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"The request body has 1 error(s)"}`)
	}))
	defer srv.Close()

	c, _ := NewClient(context.Background(), config.LineConfig{ChannelAccessToken: "tok", APIBaseURL: srv.URL})
	err := c.Push(context.Background(), "U1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(context.Background(), config.LineConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

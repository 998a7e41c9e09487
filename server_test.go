package qivivo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

const (
	testClientID     = "client-id"
	testClientSecret = "client-secret"

	thermostatUUID = "3f2c6a1e-8b7d-4c2a-9e5f-1a2b3c4d5e6f"
	gatewayUUID    = "7d1e2f3a-4b5c-4d6e-8f90-a1b2c3d4e5f6"
	moduleUUID     = "c0ffee00-1234-4abc-8def-0123456789ab"
)

// epoch is the fake "now" of most tests. Device info reports a last
// communication at epoch with a 10 minute interval.
var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeQivivo serves the token endpoint at /oauth/token and the API below /api/v2.
type fakeQivivo struct {
	t      *testing.T
	server *httptest.Server

	mu         sync.Mutex
	tokenCalls int
	tokenDelay time.Duration
	routes     map[string]http.HandlerFunc
	calls      map[string]int
	bodies     map[string][]byte
	lastToken  string
}

func newFakeQivivo(t *testing.T) *fakeQivivo {
	t.Helper()
	f := &fakeQivivo{
		t:      t,
		routes: make(map[string]http.HandlerFunc),
		calls:  make(map[string]int),
		bodies: make(map[string][]byte),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeQivivo) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/oauth/token" {
		f.serveToken(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v2")
	key := r.Method + " " + path

	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls[key]++
	f.bodies[key] = body
	handler := f.routes[key]
	f.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	f.mu.Lock()
	f.lastToken = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Unlock()

	if handler == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no route for " + key})
		return
	}
	handler(w, r)
}

func (f *fakeQivivo) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("token request: %v", err)
	}
	if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
		f.t.Errorf("grant_type = %q, want client_credentials", got)
	}
	if got := r.PostForm.Get("client_id"); got != testClientID {
		f.t.Errorf("client_id = %q, want %q", got, testClientID)
	}
	if got := r.PostForm.Get("client_secret"); got != testClientSecret {
		f.t.Errorf("client_secret = %q, want %q", got, testClientSecret)
	}

	f.mu.Lock()
	f.tokenCalls++
	n := f.tokenCalls
	delay := f.tokenDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": fmt.Sprintf("tok%d", n),
		"token_type":   "bearer",
	})
}

// handle registers h for "METHOD /path" below /api/v2.
func (f *fakeQivivo) handle(route string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = h
}

// reply registers a route answering v with status 200.
func (f *fakeQivivo) reply(route string, v any) {
	f.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, v)
	})
}

func (f *fakeQivivo) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeQivivo) body(route string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[route]
}

func (f *fakeQivivo) tokens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenCalls
}

func (f *fakeQivivo) bearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

func (f *fakeQivivo) tokenURL() string {
	return f.server.URL + "/oauth/token"
}

func (f *fakeQivivo) baseURL() string {
	return f.server.URL + "/api/v2"
}

// client returns a Client talking to f, driven by clk and reading server dates as UTC.
func (f *fakeQivivo) client(clk *clocktesting.FakeClock, opts ...Option) *Client {
	f.t.Helper()
	all := append([]Option{
		WithBaseURL(f.baseURL()),
		WithOAuthURL(f.tokenURL()),
		WithClock(clk),
		WithLocation(time.UTC),
	}, opts...)
	c, err := NewClient(testClientID, testClientSecret, all...)
	if err != nil {
		f.t.Fatalf("NewClient: %v", err)
	}
	return c
}

// withDevices registers the device list and the info of each listed device.
func (f *fakeQivivo) withDevices(devices ...DeviceSummary) {
	f.reply("GET /devices", map[string]any{"devices": devices})
	for _, d := range devices {
		sub := map[DeviceType]string{
			DeviceTypeThermostat:     "thermostats",
			DeviceTypeGateway:        "gateways",
			DeviceTypeWirelessModule: "wireless-modules",
		}[d.Type]
		if sub == "" {
			continue
		}
		f.reply("GET /devices/"+sub+"/"+d.UUID+"/info", infoPayload(epoch, 10))
	}
}

// withThermostat registers a thermostat with its attributes.
func (f *fakeQivivo) withThermostat() {
	f.withDevices(DeviceSummary{UUID: thermostatUUID, Type: DeviceTypeThermostat})
	f.reply("GET /devices/thermostats/"+thermostatUUID+"/temperature", map[string]any{
		"temperature":               19.5,
		"current_temperature_order": 20,
	})
	f.reply("GET /devices/thermostats/"+thermostatUUID+"/humidity", map[string]any{"humidity": 45.2})
}

func infoPayload(last time.Time, intervalMinutes float64) map[string]any {
	return map[string]any{
		"currentTimeBetweenCommunication": intervalMinutes,
		"lastCommunicationDate":           last.UTC().Format(lastCommunicationLayout),
		"serial":                          "Q-0001",
		"softwareVersion":                 "2.4.1",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeClock() *clocktesting.FakeClock {
	return clocktesting.NewFakeClock(epoch)
}

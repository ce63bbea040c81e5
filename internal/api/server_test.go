package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/logging"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
	"github.com/nerrad567/shabbat-clock/internal/telemetry"
)

type testClock struct {
	mu  sync.Mutex
	now clock.Reading
}

func (c *testClock) Now() clock.Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(year, month, day, hour, minute, second int) error {
	if year < clock.DefaultMinValidYear || month < 1 || month > 12 {
		return clock.ErrInvalidTime
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = clock.Reading{Valid: true, Moment: schedule.Moment{Weekday: t.Weekday(), Hour: hour, Minute: minute}, Time: t}
	return nil
}

type testRadio struct {
	ack bool
}

func (r *testRadio) Exchange(cmd radio.Command) (radio.AckResult, error) {
	if !r.ack {
		return radio.AckResult{Command: cmd, State: radio.StateTimedOut}, radio.ErrAckTimeout
	}
	return radio.AckResult{Command: cmd, State: radio.StateAcked, Response: "ACK", Elapsed: 30 * time.Millisecond}, nil
}

type failingPersister struct{}

func (failingPersister) Save(context.Context, []byte) error   { return errors.New("disk full") }
func (failingPersister) Load(context.Context) ([]byte, error) { return nil, nil }
func (failingPersister) Wipe(context.Context) error           { return nil }

type staticCheck struct{ err error }

func (c staticCheck) HealthCheck(context.Context) error { return c.err }

type fixture struct {
	srv     *Server
	handler http.Handler
	clock   *testClock
	radio   *testRadio
	engine  *engine.Engine
}

// testServer wires a real engine over a fake clock and radio. The clock
// starts valid on Friday 17:00.
func testServer(t *testing.T, persist schedule.Persister, opts ...func(*Deps)) *fixture {
	t.Helper()

	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	clk := &testClock{now: clock.Reading{Valid: true, Moment: schedule.Moment{Weekday: time.Friday, Hour: 17}}}
	rad := &testRadio{ack: true}

	store := schedule.NewStore(2, persist)
	ctrl := relay.NewController(relay.ModeAuto, store, relay.NewLogActuator(log))
	eng, err := engine.New(engine.Deps{
		Store:      store,
		Controller: ctrl,
		Clock:      clk,
		TimeSetter: clk,
		Radio:      rad,
	})
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}

	deps := Deps{
		Config: config.APIConfig{
			Host:         "127.0.0.1",
			Port:         0,
			Timeouts:     config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
			MaxBodyBytes: 1024,
		},
		Logger:  log,
		Engine:  eng,
		Version: "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return &fixture{srv: srv, handler: srv.Handler(), clock: clk, radio: rad, engine: eng}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Default()}); err == nil {
		t.Error("New() without engine should fail")
	}
}

func TestHealth(t *testing.T) {
	f := testServer(t, nil)
	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestHealth_DegradedDependency(t *testing.T) {
	f := testServer(t, nil, func(d *Deps) {
		d.Checks = map[string]HealthChecker{
			"database": staticCheck{},
			"mqtt":     staticCheck{err: errors.New("mqtt: not connected")},
		}
	})
	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}](t, rec)
	if body.Status != "degraded" || body.Dependencies["database"] != "ok" || body.Dependencies["mqtt"] == "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := testServer(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/health", "")
	if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated request ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "abc" {
		t.Errorf("echoed request ID = %q", got)
	}
}

func TestCORS(t *testing.T) {
	f := testServer(t, nil, func(d *Deps) {
		d.Config.CORS.AllowedOrigins = []string{"http://panel.local"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://panel.local")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://panel.local" {
		t.Error("allowed origin not echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin echoed")
	}
}

func TestStatus(t *testing.T) {
	f := testServer(t, nil)
	st := decode[engine.Status](t, f.do(t, http.MethodGet, "/api/v1/status", ""))
	if st.Mode != relay.ModeAuto || !st.TimeValid || st.Time != "17:00" || st.Capacity != 2 || !st.RadioEnabled {
		t.Errorf("status = %+v", st)
	}
}

func TestScheduleLifecycle(t *testing.T) {
	f := testServer(t, nil)

	rec := f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":5,"hour":18,"minute":30,"state":"on"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d: %s", rec.Code, rec.Body)
	}
	if got := decode[mutationResponse](t, rec); got.Outcome != "added" || got.Entries != 1 || !got.Persisted {
		t.Errorf("upsert response = %+v", got)
	}

	rec = f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":5,"hour":18,"minute":30,"state":"off"}`)
	if got := decode[mutationResponse](t, rec); got.Outcome != "updated" {
		t.Errorf("second upsert = %+v", got)
	}

	f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":0,"hour":7,"minute":0,"state":"on"}`)

	list := decode[struct {
		Entries  []EntryDTO `json:"entries"`
		Count    int        `json:"count"`
		Capacity int        `json:"capacity"`
	}](t, f.do(t, http.MethodGet, "/api/v1/schedule", ""))
	want := []EntryDTO{{Day: 0, Hour: 7, Minute: 0, State: "on"}, {Day: 5, Hour: 18, Minute: 30, State: "off"}}
	if list.Count != 2 || list.Capacity != 2 || len(list.Entries) != 2 || list.Entries[0] != want[0] || list.Entries[1] != want[1] {
		t.Errorf("list = %+v", list)
	}

	rec = f.do(t, http.MethodDelete, "/api/v1/schedule/5/18/30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body)
	}
	rec = f.do(t, http.MethodDelete, "/api/v1/schedule/5/18/30", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/api/v1/schedule", "")
	if got := decode[mutationResponse](t, rec); rec.Code != http.StatusOK || got.Entries != 0 {
		t.Errorf("clear = %d %+v", rec.Code, got)
	}
}

func TestScheduleUpsert_Rejections(t *testing.T) {
	f := testServer(t, nil)
	f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":1,"hour":7,"minute":0,"state":"on"}`)
	f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":2,"hour":7,"minute":0,"state":"on"}`)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unchanged", `{"day":1,"hour":7,"minute":0,"state":"on"}`, http.StatusConflict, ErrCodeNoChange},
		{"full", `{"day":3,"hour":7,"minute":0,"state":"on"}`, http.StatusConflict, ErrCodeFull},
		{"bad hour", `{"day":3,"hour":24,"minute":0,"state":"on"}`, http.StatusBadRequest, ErrCodeValidation},
		{"bad day", `{"day":7,"hour":1,"minute":0,"state":"on"}`, http.StatusBadRequest, ErrCodeValidation},
		{"bad state", `{"day":3,"hour":1,"minute":0,"state":"maybe"}`, http.StatusBadRequest, ErrCodeValidation},
		{"bad json", `{"day":`, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, "/api/v1/schedule", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if got := decode[Error](t, rec); got.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", got.Code, tt.wantErr)
			}
		})
	}
}

func TestScheduleUpsert_TimeInvalid(t *testing.T) {
	f := testServer(t, nil)
	f.clock.now = clock.Reading{}

	rec := f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":1,"hour":7,"minute":0,"state":"on"}`)
	if rec.Code != http.StatusConflict || decode[Error](t, rec).Code != ErrCodeTimeInvalid {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body)
	}
	if len(f.engine.ScheduleList()) != 0 {
		t.Error("entry added while time invalid")
	}
}

func TestScheduleUpsert_PersistFailure(t *testing.T) {
	f := testServer(t, failingPersister{})

	rec := f.do(t, http.MethodPut, "/api/v1/schedule", `{"day":1,"hour":7,"minute":0,"state":"on"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[mutationResponse](t, rec)
	if got.Persisted || got.Warning == "" || got.Entries != 1 {
		t.Errorf("response = %+v", got)
	}
}

func TestScheduleDelete_BadPath(t *testing.T) {
	f := testServer(t, nil)
	for _, path := range []string{"/api/v1/schedule/x/1/2", "/api/v1/schedule/1/99/0"} {
		if rec := f.do(t, http.MethodDelete, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("DELETE %s = %d, want 400", path, rec.Code)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	f := testServer(t, nil)
	big := `{"day":1,"hour":7,"minute":0,"state":"` + strings.Repeat("x", 2048) + `"}`
	rec := f.do(t, http.MethodPut, "/api/v1/schedule", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestCommand_Relay(t *testing.T) {
	f := testServer(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/command", `{"command":"relay_on"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[commandResponse](t, rec)
	if got.Ack != nil || !got.Status.RelayState || got.Status.Mode != relay.ModeManualOn {
		t.Errorf("response = %+v", got)
	}

	got = decode[commandResponse](t, f.do(t, http.MethodPost, "/api/v1/command", `{"command":"relay_auto"}`))
	if got.Status.Mode != relay.ModeAuto {
		t.Errorf("mode after relay_auto = %s", got.Status.Mode)
	}
}

func TestCommand_Lock(t *testing.T) {
	f := testServer(t, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/command", `{"command":"shabbat"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[commandResponse](t, rec)
	if got.Ack == nil || got.Ack.State != "acked" || got.Ack.ElapsedMS != 30 || !got.Status.LockFlag {
		t.Errorf("response = %+v ack = %+v", got, got.Ack)
	}

	f.radio.ack = false
	rec = f.do(t, http.MethodPost, "/api/v1/command", `{"command":"week"}`)
	if rec.Code != http.StatusGatewayTimeout || decode[Error](t, rec).Code != ErrCodeUnreachable {
		t.Fatalf("unacked week = %d %s", rec.Code, rec.Body)
	}
	if !f.engine.Status().LockFlag {
		t.Error("lock flag cleared without acknowledgment")
	}
}

func TestCommand_Unsupported(t *testing.T) {
	f := testServer(t, nil)
	for _, body := range []string{`{"command":"RELAY_ON"}`, `{"command":""}`, `{"command":"reboot"}`} {
		rec := f.do(t, http.MethodPost, "/api/v1/command", body)
		if rec.Code != http.StatusBadRequest || decode[Error](t, rec).Code != ErrCodeUnsupported {
			t.Errorf("%s -> %d %s", body, rec.Code, rec.Body)
		}
	}
}

func TestSetTime(t *testing.T) {
	f := testServer(t, nil)
	f.clock.now = clock.Reading{}

	rec := f.do(t, http.MethodPut, "/api/v1/time", `{"year":2026,"month":3,"day":20,"hour":18,"minute":5,"second":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if st := decode[engine.Status](t, rec); !st.TimeValid || st.Time != "18:05" {
		t.Errorf("status = %+v", st)
	}

	rec = f.do(t, http.MethodPut, "/api/v1/time", `{"year":1999,"month":1,"day":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid time status = %d, want 400", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	f := testServer(t, nil)
	if rec := f.do(t, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without registry = %d, want 404", rec.Code)
	}

	m := telemetry.NewMetrics()
	f = testServer(t, nil, func(d *Deps) { d.Metrics = m })
	f.engine.AddObserver(m)
	f.do(t, http.MethodPost, "/api/v1/command", `{"command":"relay_on"}`)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shabbatclock_relay_on 1") {
		t.Errorf("exposition missing relay gauge:\n%s", rec.Body)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{schedule.ErrNoChange, http.StatusConflict},
		{schedule.ErrNotFound, http.StatusNotFound},
		{engine.ErrRadioDisabled, http.StatusServiceUnavailable},
		{engine.ErrClockReadOnly, http.StatusConflict},
		{relay.ErrActuator, http.StatusBadGateway},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.want {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServer_HealthCheck(t *testing.T) {
	f := testServer(t, nil)
	if err := f.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := f.srv.Close(); err != nil {
		t.Errorf("Close() before Start = %v", err)
	}
}

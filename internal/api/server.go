package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/logging"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
	"github.com/nerrad567/shabbat-clock/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Engine is the set of clock operations the API exposes. *engine.Engine
// satisfies it.
type Engine interface {
	Status() engine.Status
	Now() clock.Reading
	ScheduleList() []schedule.Entry
	ScheduleUpsert(ctx context.Context, entry schedule.Entry) (schedule.Outcome, error)
	ScheduleDelete(ctx context.Context, key schedule.Moment) error
	ScheduleClear(ctx context.Context) error
	SetManual(ctx context.Context, on bool) error
	SetAuto(ctx context.Context) error
	RequestLock(ctx context.Context, lock bool) (radio.AckResult, error)
	SetTime(ctx context.Context, year, month, day, hour, minute, second int) error
}

// HealthChecker is implemented by infrastructure clients (database, MQTT,
// InfluxDB) that can report their own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Engine  Engine
	Metrics *telemetry.Metrics // optional: /metrics returns 404 without it
	Checks  map[string]HealthChecker
	Version string
}

// Server is the HTTP API server for the Shabbat clock.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	engine  Engine
	metrics *telemetry.Metrics
	checks  map[string]HealthChecker
	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, engine)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		engine:  deps.Engine,
		metrics: deps.Metrics,
		checks:  deps.Checks,
		version: deps.Version,
	}, nil
}

// Handler returns the fully wrapped router. Start serves it; tests drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Parameters:
//   - writeTimeout: Per-response write deadline; lock requests block for up
//     to the radio acknowledgment timeout, so callers size it to cover that
//
// Returns:
//   - error: Currently always nil; listener errors are logged
func (s *Server) Start(writeTimeout time.Duration) error {
	if writeTimeout <= 0 {
		writeTimeout = time.Duration(s.cfg.Timeouts.Write) * time.Second
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

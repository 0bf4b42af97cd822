// Package logger wraps a process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	mu     sync.RWMutex
	logger zerolog.Logger
)

type ctxKey string

// RequestIDKey is the context key under which the HTTP layer stores the request id.
const RequestIDKey ctxKey = "request_id"

// ProjectIDKey is the context key for the production the request belongs to.
const ProjectIDKey ctxKey = "project_id"

// Config controls output and level.
type Config struct {
	Level      string `koanf:"level" json:"level"`
	Format     string `koanf:"format" json:"format"` // json/console
	Output     string `koanf:"output" json:"output"` // stdout/stderr/file
	FilePath   string `koanf:"file_path" json:"file_path,omitempty"`
	TimeFormat string `koanf:"time_format" json:"time_format,omitempty"`
}

// DefaultConfig returns console output at info level.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init configures the global logger. Only the first call has effect.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			output = os.Stdout
			if cfg.FilePath != "" {
				if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
					output = f
				}
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
		}

		mu.Lock()
		logger = zerolog.New(output).With().Timestamp().Logger()
		mu.Unlock()
	})
}

// SetOutput replaces the global logger's writer. Used by tests to capture output.
func SetOutput(w io.Writer) {
	once.Do(func() {})
	mu.Lock()
	logger = zerolog.New(w).With().Timestamp().Logger()
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, initializing it with defaults when needed.
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	mu.RLock()
	l := logger
	mu.RUnlock()
	return &l
}

// WithContext returns a logger carrying the request and project ids found in ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	c := Get().With()
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		c = c.Str("request_id", reqID)
	}
	if projectID, ok := ctx.Value(ProjectIDKey).(string); ok && projectID != "" {
		c = c.Str("project_id", projectID)
	}
	l := c.Logger()
	return &l
}

// ContextWithProject tags ctx with the project id picked up by WithContext.
func ContextWithProject(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, ProjectIDKey, projectID)
}

func Debug() *zerolog.Event { return Get().Debug() }
func Info() *zerolog.Event  { return Get().Info() }
func Warn() *zerolog.Event  { return Get().Warn() }
func Error() *zerolog.Event { return Get().Error() }

// WithError starts an error event carrying err.
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// WithField returns a child logger with one extra field.
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// PlannerLogger logs plan generation events.
type PlannerLogger struct {
	base *zerolog.Logger
}

// NewPlannerLogger creates a logger tagged with the planner component.
func NewPlannerLogger() *PlannerLogger {
	l := Get().With().Str("component", "planner").Logger()
	return &PlannerLogger{base: &l}
}

// StartPlan logs the start of a generation run.
func (l *PlannerLogger) StartPlan(planID, strategy string, scenes, locations int) {
	l.base.Info().
		Str("plan_id", planID).
		Str("strategy", strategy).
		Int("scenes", scenes).
		Int("locations", locations).
		Msg("plan generation started")
}

// GroupPlaced logs a location group being packed.
func (l *PlannerLogger) GroupPlaced(location string, scenes, eighths int, distanceKm float64) {
	l.base.Debug().
		Str("location", location).
		Int("scenes", scenes).
		Int("eighths", eighths).
		Float64("distance_km", distanceKm).
		Msg("location group placed")
}

// OversizedScene logs a scene that alone exceeds the daily capacity.
func (l *PlannerLogger) OversizedScene(sceneID string, effectiveEighths, max int) {
	l.base.Warn().
		Str("scene_id", sceneID).
		Int("effective_eighths", effectiveEighths).
		Int("max_eighths", max).
		Msg("scene exceeds daily capacity")
}

// Finding logs a validator finding.
func (l *PlannerLogger) Finding(rule, severity, message string) {
	l.base.Debug().
		Str("rule", rule).
		Str("severity", severity).
		Str("message", message).
		Msg("plan finding")
}

// PlanComplete logs the end of a generation run.
func (l *PlannerLogger) PlanComplete(planID string, duration time.Duration, days, findings int) {
	l.base.Info().
		Str("plan_id", planID).
		Dur("duration", duration).
		Int("days", days).
		Int("findings", findings).
		Msg("plan generation finished")
}

// Optimized logs the outcome of a day-order search.
func (l *PlannerLogger) Optimized(initialScore, finalScore float64, iterations int, duration time.Duration) {
	l.base.Debug().
		Float64("initial_score", initialScore).
		Float64("final_score", finalScore).
		Int("iterations", iterations).
		Dur("duration", duration).
		Msg("day order optimized")
}

// Package log provides structured logging for moodlab estimators and the
// CLI, backed by rs/zerolog.
//
// Estimators obtain a named logger once at construction time and attach
// stable context with With:
//
//	logger := log.GetLoggerWithName("symreg").With(
//		log.ModelNameKey, "SymbolicRegressor",
//		log.ComponentKey, "symreg",
//	)
//	logger.Info("Training started", log.SamplesKey, n)
//
// Messages carry key/value pairs using the shared key constants below so
// log output stays queryable across packages.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Standard structured-logging keys shared across the module.
const (
	// OperationKey identifies the estimator operation, e.g. "fit".
	OperationKey = "operation"
	// PhaseKey identifies the lifecycle phase, e.g. "training".
	PhaseKey = "phase"
	// SamplesKey carries a row count.
	SamplesKey = "samples"
	// FeaturesKey carries a column count.
	FeaturesKey = "features"
	// DurationMsKey carries an elapsed time in milliseconds.
	DurationMsKey = "duration_ms"
	// ModelNameKey carries the estimator type name.
	ModelNameKey = "model"
	// ComponentKey carries the package or subsystem name.
	ComponentKey = "component"
	// PredsKey carries the number of predictions produced.
	PredsKey = "predictions"
	// GenerationKey carries an evolution generation index.
	GenerationKey = "generation"
	// FitnessKey carries a fitness (error) value.
	FitnessKey = "fitness"
	// ComplexityKey carries an expression complexity (node count).
	ComplexityKey = "complexity"
	// IslandKey carries an island index in multi-population runs.
	IslandKey = "island"
)

// Standard values for OperationKey and PhaseKey.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
)

// Level is the logging threshold understood by providers.
type Level = zerolog.Level

// ToLogLevel converts a level name ("debug", "info", "warn", "error",
// "disabled") to a Level. Unknown names map to info.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger is the structured logger used throughout moodlab. Key/value pairs
// follow the message; a trailing key without a value is dropped.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	// With returns a child logger that always carries the given pairs.
	With(keysAndValues ...interface{}) Logger
}

// LoggerProvider hands out loggers. Implementations decide the sink,
// format and level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

// zerologProvider is the default LoggerProvider, writing JSON lines.
type zerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a LoggerProvider writing JSON to the given
// writers (os.Stderr when none are supplied) at the given level.
func NewZerologProvider(level Level, writers ...io.Writer) LoggerProvider {
	var w io.Writer = os.Stderr
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}
	base := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologProvider{base: base}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{z: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{z: p.base.With().Str("logger", name).Logger()}
}

// zerologLogger adapts zerolog.Logger to the Logger interface.
type zerologLogger struct {
	z zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	applyFields(l.z.Debug(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	applyFields(l.z.Info(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	applyFields(l.z.Warn(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	applyFields(l.z.Error(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) With(keysAndValues ...interface{}) Logger {
	ctx := l.z.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keysAndValues[i+1])
	}
	return &zerologLogger{z: ctx.Logger()}
}

func applyFields(ev *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}

var (
	mu             sync.RWMutex
	globalProvider LoggerProvider = NewZerologProvider(zerolog.InfoLevel)
)

// SetupLogger replaces the global provider with one logging to stderr at
// the named level. Intended for program entry points; estimators created
// afterwards pick up the new level.
func SetupLogger(level string) {
	SetProvider(NewZerologProvider(ToLogLevel(level)))
}

// SetProvider replaces the global provider. Useful in tests to capture
// output.
func SetProvider(p LoggerProvider) {
	mu.Lock()
	defer mu.Unlock()
	if p != nil {
		globalProvider = p
	}
}

// GetLogger returns an unnamed logger from the global provider.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalProvider.GetLogger()
}

// GetLoggerWithName returns a named logger from the global provider.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalProvider.GetLoggerWithName(name)
}

// LogError logs err at error level with msg through the global provider.
// It is a no-op for nil errors.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	GetLogger().Error(msg, "error", err)
}

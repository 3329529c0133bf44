package attrs

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LookupSource records how a Registry satisfied a lookup.
type LookupSource string

const (
	LookupCache    LookupSource = "cache"
	LookupExact    LookupSource = "exact"
	LookupScoped   LookupSource = "scoped"
	LookupFallback LookupSource = "fallback"
)

// LookupEvent describes one Registry.Resolve call.
type LookupEvent struct {
	Type     string
	Source   LookupSource
	Duration time.Duration
}

// LookupLogger records registry lookups. Fallback events are the non-fatal
// warning for unresolvable transform names.
type LookupLogger interface {
	LogLookup(LookupEvent)
}

// LookupLoggerFunc adapts a function to LookupLogger.
type LookupLoggerFunc func(LookupEvent)

// LogLookup implements LookupLogger.
func (f LookupLoggerFunc) LogLookup(event LookupEvent) {
	if f != nil {
		f(event)
	}
}

type noopLookupLogger struct{}

func (noopLookupLogger) LogLookup(LookupEvent) {}

// MultiLookupLogger forwards every event to each non-nil logger in order.
func MultiLookupLogger(loggers ...LookupLogger) LookupLogger {
	kept := make([]LookupLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			kept = append(kept, logger)
		}
	}
	return LookupLoggerFunc(func(event LookupEvent) {
		for _, logger := range kept {
			logger.LogLookup(event)
		}
	})
}

type zerologLookupLogger struct {
	logger zerolog.Logger
}

// NewZerologLookupLogger logs fallbacks at warn level and every other lookup
// at debug level.
func NewZerologLookupLogger(logger zerolog.Logger) LookupLogger {
	return zerologLookupLogger{logger: logger}
}

func (l zerologLookupLogger) LogLookup(event LookupEvent) {
	if event.Source == LookupFallback {
		l.logger.Warn().
			Str("transform", event.Type).
			Str("id", "attrs:lookup-transform").
			Msgf("could not find the %q transform, using default", event.Type)
		return
	}
	l.logger.Debug().
		Str("transform", event.Type).
		Str("source", string(event.Source)).
		Dur("duration", event.Duration).
		Msg("transform resolved")
}

// defaultLookupLogger only surfaces fallback warnings.
func defaultLookupLogger() LookupLogger {
	return NewZerologLookupLogger(log.Logger.Level(zerolog.WarnLevel))
}

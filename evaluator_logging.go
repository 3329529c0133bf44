package attrs

import (
	"time"

	"github.com/rs/zerolog"
)

// ScriptLogEvent describes one script transform evaluation.
type ScriptLogEvent struct {
	Transform string
	Engine    string
	Expr      string
	Direction Direction
	Duration  time.Duration
	Err       error
}

// ScriptLogger records script evaluations.
type ScriptLogger interface {
	LogScript(ScriptLogEvent)
}

// ScriptLoggerFunc adapts a function to ScriptLogger.
type ScriptLoggerFunc func(ScriptLogEvent)

// LogScript implements ScriptLogger.
func (f ScriptLoggerFunc) LogScript(event ScriptLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopScriptLogger struct{}

func (noopScriptLogger) LogScript(ScriptLogEvent) {}

// NewZerologScriptLogger logs failed evaluations at error level and the rest
// at trace level.
func NewZerologScriptLogger(logger zerolog.Logger) ScriptLogger {
	return ScriptLoggerFunc(func(event ScriptLogEvent) {
		entry := logger.Trace()
		if event.Err != nil {
			entry = logger.Error().Err(event.Err)
		}
		entry.
			Str("transform", event.Transform).
			Str("engine", event.Engine).
			Str("expr", event.Expr).
			Str("direction", string(event.Direction)).
			Dur("duration", event.Duration).
			Msg("script transform evaluated")
	})
}

package prophet

import (
	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l}
}

// Debug logs msg with fields at debug level.
func (z *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	z.log.Debug().Fields(fields).Msg(msg)
}

// Info logs msg with fields at info level.
func (z *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	z.log.Info().Fields(fields).Msg(msg)
}

// Warn logs msg with fields at warn level.
func (z *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	z.log.Warn().Fields(fields).Msg(msg)
}

// Error logs msg with fields at error level.
func (z *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	z.log.Error().Fields(fields).Msg(msg)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]interface{}) {}
func (NopLogger) Info(string, map[string]interface{})  {}
func (NopLogger) Warn(string, map[string]interface{})  {}
func (NopLogger) Error(string, map[string]interface{}) {}

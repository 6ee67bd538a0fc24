package ddbsession

// Fields carries structured context for a log line. Namespace ids are never
// put in Fields; they identify a user session.
type Fields map[string]any

// Logger receives the adapter's diagnostics: conditional save conflicts
// (Warn) and conflicts ignored because only the access time changed (Debug).
// Adapters for zap, logrus and slog live under log/.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger drops everything. It is used when Options.Logger is nil.
type NopLogger struct{}

var _ Logger = NopLogger{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

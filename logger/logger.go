package logger

// Logger is the minimal structured logging interface the engine depends
// on. Implementations accept alternating key/value pairs.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// TraceIDFunc generates a correlation id per log line. It must be cheap
// and safe for concurrent calls.
type TraceIDFunc func() string

// NullLogger implements Logger and discards everything. Default for
// engines and stores constructed without an explicit logger.
type NullLogger struct{}

func NewNullLogger() *NullLogger { return &NullLogger{} }

func (NullLogger) Debug(msg string, keyvals ...any) {}
func (NullLogger) Info(msg string, keyvals ...any)  {}
func (NullLogger) Error(msg string, keyvals ...any) {}

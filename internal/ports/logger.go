package ports

import "context"

// Fields carries structured key/value pairs attached to a log entry.
type Fields = map[string]interface{}

// Logger is the logging port used by the service and the storage adapter.
// The zerolog adapter implements it; tests pass a recording mock.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err alongside msg. err may be nil.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}

package ports

import "context"

// Logger is the structured logging contract every adapter and service receives.
// Fields are optional key/value pairs; only the first map is used.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs err together with msg.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}

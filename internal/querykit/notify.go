package querykit

import "fundlink/internal/platform/logger"

// Notifier is the user-visible notification port (the toast analog).
// Executors call it at most once per failed attempt
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// NopNotifier drops all notifications
type NopNotifier struct{}

// Success implements Notifier
func (NopNotifier) Success(string) {}

// Error implements Notifier
func (NopNotifier) Error(string) {}

// logNotifier routes notifications to the structured log
type logNotifier struct{ log *logger.Logger }

// LogNotifier returns a Notifier writing to l (or the named default)
func LogNotifier(l *logger.Logger) Notifier {
	if l == nil {
		l = logger.Named("notify")
	}
	return logNotifier{log: l}
}

func (n logNotifier) Success(msg string) { n.log.Info().Str("kind", "success").Msg(msg) }
func (n logNotifier) Error(msg string)   { n.log.Warn().Str("kind", "error").Msg(msg) }

package logging

// Logger writes leveled entries with structured fields. Field keys are
// kebab-case ("order-id", "session-id").
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

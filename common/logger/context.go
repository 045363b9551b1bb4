package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every record logged with a context carrying them.
// Set them once at the edge (HTTP handler, queue consumer) and every stage
// log line below picks them up.
type LogFields struct {
	EvaluationID *int64  // Snowflake evaluation ID
	Supplier     *string // Supplier display name
	Country      *string
	Stage        *string // Pipeline stage currently running
	MessageID    *string // Redis stream message ID
	Component    string  // e.g. "supplierrisk.brain.external"
}

// WithLogFields enriches ctx. Newer non-nil values win over existing ones.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields on ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.EvaluationID != nil {
		result.EvaluationID = next.EvaluationID
	}
	if next.Supplier != nil {
		result.Supplier = next.Supplier
	}
	if next.Country != nil {
		result.Country = next.Country
	}
	if next.Stage != nil {
		result.Stage = next.Stage
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v. Handy for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes and appends "..." when it had to cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ActionEvent captures the outcome of a single action for audit logging.
//
// The Recipient field contains PII. When logging, the audit logger uses
// RecipientDomain unless IncludePII is configured, so full addresses only
// reach audit-specific log streams.
type ActionEvent struct {
	// Operation is the action performed (send_email, compose_email,
	// generate_text, voice_command).
	Operation string

	// Tool is the tool name when the action came through the registry.
	Tool string

	// Recipient is the target email address, if any.
	Recipient string

	// Provider is the generation provider that served the request, if any.
	Provider string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewActionEvent creates an event with timing started. Call Complete when
// the action finishes.
func NewActionEvent(operation string) *ActionEvent {
	return &ActionEvent{
		Operation: operation,
		StartTime: time.Now(),
	}
}

// RecipientDomain returns the domain portion of the recipient address for
// lower-cardinality logging.
func (e *ActionEvent) RecipientDomain() string {
	if e.Recipient == "" {
		return ""
	}
	parts := strings.Split(e.Recipient, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return "unknown"
}

// Status returns "success" or "error" based on the Success field.
func (e *ActionEvent) Status() string {
	if e.Success {
		return StatusSuccess
	}
	return StatusError
}

// WithTool sets the tool name.
func (e *ActionEvent) WithTool(tool string) *ActionEvent {
	e.Tool = tool
	return e
}

// WithRecipient sets the target address.
func (e *ActionEvent) WithRecipient(recipient string) *ActionEvent {
	e.Recipient = recipient
	return e
}

// WithProvider sets the generation provider.
func (e *ActionEvent) WithProvider(provider string) *ActionEvent {
	e.Provider = provider
	return e
}

// WithSpanContext extracts trace context from the current span.
func (e *ActionEvent) WithSpanContext(ctx context.Context) *ActionEvent {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		e.TraceID = span.SpanContext().TraceID().String()
		e.SpanID = span.SpanContext().SpanID().String()
	}
	return e
}

// Complete marks the event as finished and calculates duration.
func (e *ActionEvent) Complete(success bool, err error) *ActionEvent {
	e.Duration = time.Since(e.StartTime)
	e.Success = success
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// CompleteSuccess marks the event as successful.
func (e *ActionEvent) CompleteSuccess() *ActionEvent {
	return e.Complete(true, nil)
}

// CompleteWithError marks the event as failed with the given error.
func (e *ActionEvent) CompleteWithError(err error) *ActionEvent {
	return e.Complete(false, err)
}

// logAttrs returns the cardinality-controlled attribute set.
func (e *ActionEvent) logAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.Duration("duration", e.Duration),
		slog.Bool("success", e.Success),
	}

	if e.Tool != "" {
		attrs = append(attrs, slog.String("tool", e.Tool))
	}
	if domain := e.RecipientDomain(); domain != "" {
		attrs = append(attrs, slog.String("recipient_domain", domain))
	}
	if e.Provider != "" {
		attrs = append(attrs, slog.String("provider", e.Provider))
	}
	if e.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.TraceID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	return attrs
}

// auditAttrs returns the full attribute set including PII.
func (e *ActionEvent) auditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.Duration("duration", e.Duration),
		slog.Bool("success", e.Success),
	}

	if e.Tool != "" {
		attrs = append(attrs, slog.String("tool", e.Tool))
	}
	if e.Recipient != "" {
		attrs = append(attrs, slog.String("recipient", e.Recipient))
	}
	if e.Provider != "" {
		attrs = append(attrs, slog.String("provider", e.Provider))
	}
	if e.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.TraceID))
	}
	if e.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", e.SpanID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}

	return attrs
}

// AuditLogger provides structured audit logging for actions.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. PII is excluded by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogAction logs an action event. With IncludePII configured the full
// recipient address is logged; otherwise only the domain.
func (al *AuditLogger) LogAction(e *ActionEvent) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = e.auditAttrs()
	} else {
		attrs = e.logAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if e.Success {
		al.logger.Info("action_executed", args...)
	} else {
		al.logger.Warn("action_failed", args...)
	}
}

package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newTestMetrics(t *testing.T, detailedLabels bool) *Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m
}

func TestRecordingDoesNotPanic(t *testing.T) {
	m := newTestMetrics(t, true)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/api/send-email", 200, 50*time.Millisecond)
	m.RecordEmailSend(ctx, StatusSuccess, "example.com", time.Second)
	m.RecordEmailSend(ctx, StatusError, "", time.Second)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	m.RecordGenerationAttempt(ctx, "gemini", StatusError, 2*time.Second)
	m.RecordGenerationAttempt(ctx, "openai", StatusSuccess, time.Second)
	m.RecordToolInvocation(ctx, "send_email", StatusSuccess, 100*time.Millisecond)
}

func TestUninitializedMetricsAreNoOp(t *testing.T) {
	ctx := context.Background()

	// Zero-value Metrics must be safe at every call site.
	m := &Metrics{}
	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordEmailSend(ctx, StatusSuccess, "example.com", time.Second)
	m.RecordOAuthAuth(ctx, OAuthResultSuccess)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	m.RecordGenerationAttempt(ctx, "gemini", StatusSuccess, time.Second)
	m.RecordToolInvocation(ctx, "send_email", StatusSuccess, time.Millisecond)

	// As must a nil receiver.
	var nilMetrics *Metrics
	nilMetrics.RecordEmailSend(ctx, StatusSuccess, "", time.Second)
	nilMetrics.RecordToolInvocation(ctx, "send_email", StatusSuccess, time.Millisecond)
}

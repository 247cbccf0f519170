package instrumentation

import (
	"context"
	"testing"
)

func TestNewProviderDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	if p.Metrics() == nil {
		t.Error("Metrics() should return a no-op recorder, not nil")
	}
	if p.Tracer("test") == nil {
		t.Error("Tracer() should return a noop tracer, not nil")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderPrometheus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.MetricsExporter = ExporterPrometheus
	cfg.TracingExporter = ExporterNone

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	if !p.Enabled() {
		t.Error("Enabled() = false for enabled config")
	}
	if p.Metrics() == nil {
		t.Error("Metrics() returned nil")
	}
	if p.PrometheusHandler() == nil {
		t.Error("PrometheusHandler() returned nil for prometheus exporter")
	}
}

func TestNewProviderRejectsUnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.MetricsExporter = "statsd"

	if _, err := NewProvider(context.Background(), cfg); err == nil {
		t.Error("NewProvider() should fail for unknown metrics exporter")
	}
}

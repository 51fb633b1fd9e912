// ABOUTME: Unit tests for the telemetry abstraction, no-op implementation and provider lifecycle
// ABOUTME: Verifies disabled configs yield no-ops and the SDK provider starts and shuts down

package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

func TestNoopTelemetry(t *testing.T) {
	tel := NewNoop()
	ctx := context.Background()

	tel.RecordHistogram(ctx, "test.histogram", 1.5, attribute.String("k", "v"))
	tel.RecordCounter(ctx, "test.counter", 1)

	spanCtx, span := tel.StartSpan(ctx, "test.span")
	if spanCtx == nil || span == nil {
		t.Fatal("StartSpan returned nil")
	}
	span.End()

	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNewDisabledReturnsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	tel, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := tel.(*NoopTelemetry); !ok {
		t.Errorf("Expected NoopTelemetry for disabled config, got %T", tel)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.SampleRate = -1

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for invalid sample rate")
	}
}

func TestProviderLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ExportInterval = time.Minute // avoid periodic exports during the test

	tel, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := tel.(*Provider); !ok {
		t.Fatalf("Expected Provider for enabled config, got %T", tel)
	}

	ctx := context.Background()
	tel.RecordCounter(ctx, "test.counter", 2, attribute.String("k", "v"))
	tel.RecordHistogram(ctx, "test.histogram", 0.25)
	RecordDuration(ctx, tel, "test.duration", time.Now())

	spanCtx, span := tel.StartSpan(ctx, "test.span")
	if spanCtx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	span.End()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "atrium" {
		t.Errorf("Expected service name atrium, got %s", cfg.ServiceName)
	}
	if cfg.Enabled {
		t.Error("Telemetry must default to disabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("ATRIUM_TELEMETRY_SERVICE_NAME", "atrium-test")
	t.Setenv("ATRIUM_TELEMETRY_ENABLED", "true")
	t.Setenv("ATRIUM_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("ATRIUM_TELEMETRY_EXPORT_INTERVAL", "30s")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if cfg.ServiceName != "atrium-test" {
		t.Errorf("ServiceName = %s, want atrium-test", cfg.ServiceName)
	}
	if !cfg.Enabled {
		t.Error("Enabled should be true")
	}
	if cfg.SampleRate != 0.5 {
		t.Errorf("SampleRate = %v, want 0.5", cfg.SampleRate)
	}
	if cfg.ExportInterval != 30*time.Second {
		t.Errorf("ExportInterval = %v, want 30s", cfg.ExportInterval)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty service name", func(c *Config) { c.ServiceName = "" }},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.1 }},
		{"zero export interval", func(c *Config) { c.ExportInterval = 0 }},
		{"zero export timeout", func(c *Config) { c.ExportTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/parley/internal/platform/otel"
)

func TestSetupFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "no endpoint", env: map[string]string{"PARLEY_OTEL_ENDPOINT": ""}},
		{name: "disabled", env: map[string]string{
			"PARLEY_OTEL_ENDPOINT": "http://localhost:4318",
			"PARLEY_OTEL_ENABLED":  "false",
		}},
		{name: "bad flag", env: map[string]string{"PARLEY_OTEL_ENABLED": "sometimes"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			shutdown, err := otel.Setup(context.Background(), "odds")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			// The no-op shutdown ignores cancellation.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if err := shutdown(ctx); err != nil {
				t.Fatalf("shutdown: %v", err)
			}
		})
	}
}

func TestSetupWith(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation, so nothing is exported.
	const endpoint = "http://192.0.2.1:4318"

	if _, err := otel.SetupWith(context.Background(), "odds", otel.Settings{Enabled: true, Endpoint: endpoint, SampleRatio: -0.5}); err == nil {
		t.Fatal("expected sample ratio error")
	}

	shutdown, err := otel.SetupWith(context.Background(), "odds", otel.Settings{Enabled: true, Endpoint: endpoint, SampleRatio: 0.25})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

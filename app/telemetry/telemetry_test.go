package telemetry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/paw-chain/settlement/app/telemetry"
	"github.com/paw-chain/settlement/x/settlement/types"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     telemetry.Config
		wantErr string
	}{
		{"disabled ignores endpoint", telemetry.Config{}, ""},
		{"http collector", telemetry.Config{Enabled: true, OTLPEndpoint: "http://localhost:4318/v1/traces", SampleRate: 0.5}, ""},
		{"https collector", telemetry.Config{Enabled: true, OTLPEndpoint: "https://otel.example:443/v1/traces", SampleRate: 1}, ""},
		{"missing endpoint", telemetry.Config{Enabled: true}, "http or https"},
		{"grpc scheme", telemetry.Config{Enabled: true, OTLPEndpoint: "grpc://localhost:4317"}, "http or https"},
		{"no host", telemetry.Config{Enabled: true, OTLPEndpoint: "http:///v1/traces"}, "no host"},
		{"negative sample rate", telemetry.Config{Enabled: true, OTLPEndpoint: "http://localhost:4318", SampleRate: -0.1}, "sample rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDisabledProvider(t *testing.T) {
	p, err := telemetry.NewProvider(telemetry.Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.HealthCheck())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	_, err := telemetry.NewProvider(telemetry.Config{Enabled: true, OTLPEndpoint: "localhost"})
	require.ErrorContains(t, err, "invalid telemetry config")
}

func recordSpans(t *testing.T) func(string) tracesdk.ReadOnlySpan {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return func(name string) tracesdk.ReadOnlySpan {
		for _, s := range recorder.Ended() {
			if s.Name() == name {
				return s
			}
		}
		t.Fatalf("span %q not recorded", name)
		return nil
	}
}

func attr(span tracesdk.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTxSpans(t *testing.T) {
	find := recordSpans(t)
	ctx := context.Background()

	_, span := telemetry.StartTxSpan(ctx, "create_session", 7)
	telemetry.FinishTx(span, nil)
	span.End()

	_, span = telemetry.StartTxSpan(ctx, "submit_proof", 8)
	telemetry.FinishTx(span, types.ErrProofReplayed.Wrap("seen"))
	span.End()

	ok := find("settlement.create_session")
	require.Equal(t, codes.Ok, ok.Status().Code)
	require.Equal(t, int64(7), attr(ok, "settlement.height").AsInt64())

	rejected := find("settlement.submit_proof")
	require.Equal(t, codes.Error, rejected.Status().Code)
	require.Equal(t, "replay", attr(rejected, "settlement.error_category").AsString())
	require.Len(t, rejected.Events(), 1)
}

func TestRequestSpans(t *testing.T) {
	find := recordSpans(t)
	ctx := context.Background()

	_, span := telemetry.StartRequestSpan(ctx, http.MethodPost, "/api/v1/sessions", "req-1")
	telemetry.FinishRequest(span, http.StatusConflict)
	span.End()

	_, span = telemetry.StartRequestSpan(ctx, http.MethodGet, "/api/v1/params", "req-2")
	telemetry.RecordError(span, errors.New("store closed"))
	telemetry.FinishRequest(span, http.StatusInternalServerError)
	span.End()

	conflict := find("POST /api/v1/sessions")
	require.Equal(t, codes.Unset, conflict.Status().Code)
	require.Equal(t, int64(http.StatusConflict), attr(conflict, "http.status_code").AsInt64())
	require.Equal(t, "req-1", attr(conflict, "request.id").AsString())

	failed := find("GET /api/v1/params")
	require.Equal(t, codes.Error, failed.Status().Code)
	require.Equal(t, "internal", attr(failed, "settlement.error_category").AsString())
}

package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/paw-chain/settlement/x/settlement/types"
)

const (
	attrOperation = attribute.Key("settlement.operation")
	attrHeight    = attribute.Key("settlement.height")
	attrCategory  = attribute.Key("settlement.error_category")
	attrRequestID = attribute.Key("request.id")
)

// StartTxSpan opens the span of one executor block.
func StartTxSpan(ctx context.Context, op string, height int64) (context.Context, trace.Span) {
	return otel.Tracer(ServiceName).Start(ctx, "settlement."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrOperation.String(op), attrHeight.Int64(height)),
	)
}

// FinishTx marks the block span committed or rejected.
func FinishTx(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
		return
	}
	span.SetStatus(codes.Ok, "committed")
}

// StartRequestSpan opens a server span for an inbound gateway request.
func StartRequestSpan(ctx context.Context, method, route, requestID string) (context.Context, trace.Span) {
	return otel.Tracer(ServiceName).Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attrRequestID.String(requestID),
		),
	)
}

// FinishRequest records the response status. Only server errors mark the span failed.
func FinishRequest(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

// RecordError attaches err and its settlement category to span.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attrCategory.String(string(types.CategoryOf(err))))
	span.SetStatus(codes.Error, err.Error())
}

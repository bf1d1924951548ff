// Package tracing настраивает OpenTelemetry для вызовов платёжного процессора.
package tracing

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ignatzorin/talentbridge-backend"

// Init включает экспорт трейсов по OTLP. Без endpoint используется no-op провайдер.
// Возвращает функцию остановки, которую нужно вызвать при завершении сервера.
func Init(ctx context.Context, endpoint string, log *logrus.Logger) (func(context.Context) error, error) {
	if endpoint == "" {
		log.Info("tracing: OTEL_EXPORTER_OTLP_ENDPOINT не задан, трассировка отключена")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("talentbridge-backend"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.WithField("endpoint", endpoint).Info("tracing: трассировка включена")
	return tp.Shutdown, nil
}

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan завершает span, отмечая ошибку, если она есть.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func Operation(op string) attribute.KeyValue {
	return attribute.String("processor.operation", op)
}

func IdempotencyKey(key string) attribute.KeyValue {
	return attribute.String("processor.idempotency_key", key)
}

func Amount(amount string) attribute.KeyValue {
	return attribute.String("amount", amount)
}

func Attempt(n int) attribute.KeyValue {
	return attribute.Int("processor.attempt", n)
}

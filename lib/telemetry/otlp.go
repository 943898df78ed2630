package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Endpoint is where one otel signal is exported to, grpc wins when both
// urls are set. An endpoint with no url disables its signal.
type Endpoint struct {
	GrpcUrl string            `json:"grpc_endpoint"`
	HttpUrl string            `json:"http_endpoint"`
	Headers map[string]string `json:"headers"`
}

type transport string

const (
	transportNone transport = ""
	transportGrpc transport = "grpc"
	transportHttp transport = "http"
)

func (e Endpoint) transport() (transport, string) {
	switch {
	case e.GrpcUrl != "":
		return transportGrpc, e.GrpcUrl
	case e.HttpUrl != "":
		return transportHttp, e.HttpUrl
	}
	return transportNone, ""
}

type Config struct {
	Otlp struct {
		Traces  Endpoint `json:"traces"`
		Metrics Endpoint `json:"metrics"`
	} `json:"otlp"`
	// MetricIntervalSeconds is how often metrics are pushed, a scrape is
	// short lived so the default is a few seconds.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func (c Config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return time.Second * 5
	}
	return time.Second * time.Duration(c.MetricIntervalSeconds)
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// newTraceProvider returns nil when no trace endpoint is configured.
func newTraceProvider(ctx context.Context, r *resource.Resource, endpoint Endpoint) (*trace.TracerProvider, error) {
	kind, url := endpoint.transport()
	if kind == transportNone {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	switch kind {
	case transportGrpc:
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(url),
			otlptracegrpc.WithHeaders(endpoint.Headers),
		)
	case transportHttp:
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(url),
			otlptracehttp.WithHeaders(endpoint.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("trace exporter (%s): %w", kind, err)
	}
	slog.Info("trace exporter initialized", "type", kind, "endpoint", url, "headers", len(endpoint.Headers) > 0)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMetricProvider returns nil when no metric endpoint is configured.
func newMetricProvider(ctx context.Context, r *resource.Resource, endpoint Endpoint, interval time.Duration) (*metric.MeterProvider, error) {
	kind, url := endpoint.transport()
	if kind == transportNone {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter metric.Exporter
	var err error
	switch kind {
	case transportGrpc:
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(url),
			otlpmetricgrpc.WithHeaders(endpoint.Headers),
		)
	case transportHttp:
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(url),
			otlpmetrichttp.WithHeaders(endpoint.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("metric exporter (%s): %w", kind, err)
	}
	slog.Info("metric exporter initialized", "type", kind, "endpoint", url, "interval", interval)

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}

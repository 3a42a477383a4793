package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/perspective-backend/internal/platform/envutil"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/perspective-backend"

// OtelConfig names the service; the exporter settings come from OTEL_* variables.
type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

type exporterSettings struct {
	Enabled       bool
	Endpoint      string
	Insecure      bool
	Headers       map[string]string
	SamplePercent int
}

func exporterSettingsFromEnv() exporterSettings {
	return exporterSettings{
		Enabled:       envutil.Bool("OTEL_ENABLED", false),
		Endpoint:      envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:      envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Headers:       parseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		SamplePercent: envutil.Int("OTEL_SAMPLER_PERCENT", 10),
	}
}

// ratio clamps the sample percentage into [0, 1].
func (s exporterSettings) ratio() float64 {
	return float64(min(max(s.SamplePercent, 0), 100)) / 100
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider and W3C propagators once. It does
// nothing unless OTEL_ENABLED is set, in which case spans go to the OTLP endpoint or,
// without one, to stdout. The returned shutdown func is nil when tracing is off.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		settings := exporterSettingsFromEnv()
		if !settings.Enabled {
			return
		}
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = "perspective-backend"
		}

		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		))
		if err != nil {
			log.Warn("Trace resource incomplete", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(settings.ratio()))),
		}
		exporter, err := newExporter(ctx, settings)
		if err != nil {
			log.Warn("Trace exporter unavailable; spans are sampled but not exported", "error", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}

		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		otelShutdown = tp.Shutdown

		log.Info("Tracing enabled",
			"service", name,
			"endpoint", settings.Endpoint,
			"sample_ratio", settings.ratio(),
		)
	})
	return otelShutdown
}

// StartSpan starts a span on the process tracer. With tracing disabled the global
// provider hands out no-op spans.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func newExporter(ctx context.Context, s exporterSettings) (sdktrace.SpanExporter, error) {
	if s.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.Endpoint)}
	if s.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(s.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(s.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// parseHeaders reads "k1=v1,k2=v2", skipping malformed or empty pairs.
func parseHeaders(raw string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package observability

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer turns sections into spans. Sections opened while another one is
// open become its children.
type Tracer struct {
	tracer trace.Tracer
	ctx    context.Context
}

func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer("github.com/notargets/goamr"), ctx: context.Background()}
}

type traceSpan struct {
	t      *Tracer
	parent context.Context
	span   trace.Span
}

// Start is not safe for concurrent use, each goroutine needs its own Tracer
func (t *Tracer) Start(name string) Span {
	ctx, span := t.tracer.Start(t.ctx, name)
	ts := &traceSpan{t: t, parent: t.ctx, span: span}
	t.ctx = ctx
	return ts
}

func (ts *traceSpan) Stop() {
	ts.span.End()
	ts.t.ctx = ts.parent
}

// InitTracing installs a tracer provider exporting to w, stdout when nil. The
// returned function flushes and shuts the provider down.
func InitTracing(ctx context.Context, w io.Writer, log logrus.FieldLogger) (tp *sdktrace.TracerProvider, shutdown func(context.Context) error, err error) {
	var (
		exp  sdktrace.SpanExporter
		res  *resource.Resource
		opts = []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	)
	if w != nil {
		opts = append(opts, stdouttrace.WithWriter(w))
	}
	if exp, err = stdouttrace.New(opts...); err != nil {
		return
	}
	if res, err = resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "goamr"),
	)); err != nil {
		return
	}
	tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if log != nil {
		log.WithField("exporter", "stdout").Info("tracing enabled")
	}
	shutdown = func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return
}

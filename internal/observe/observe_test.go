package observe

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordStageAndScore(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordStage(ctx, StageRecognize, 0.2)
	m.RecordScore(ctx, 87, map[string]int{"Good": 3, "Needs Work": 1})
	m.RecordAnalysis(ctx, "cli", "ok")

	rm := collect(t, reader)
	stage := findMetric(rm, "pronounce.stage.duration")
	if stage == nil {
		t.Fatalf("stage histogram not found")
	}
	hist, ok := stage.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("unexpected stage data: %+v", stage.Data)
	}

	words := findMetric(rm, "pronounce.words.scored")
	if words == nil {
		t.Fatalf("words counter not found")
	}
	sum, ok := words.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected words data type %T", words.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 4 {
		t.Fatalf("expected 4 scored words, got %d", total)
	}

	scores := findMetric(rm, "pronounce.score")
	if scores == nil {
		t.Fatalf("score histogram not found")
	}
	if h, ok := scores.Data.(metricdata.Histogram[int64]); !ok || h.DataPoints[0].Sum != 87 {
		t.Fatalf("unexpected score data: %+v", scores.Data)
	}
}

func useTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
	return exp
}

func TestMiddlewareRecordsRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := useTestTracer(t)

	var cid string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(cid) != 32 || rec.Header().Get("X-Correlation-ID") != cid {
		t.Fatalf("correlation id mismatch: %q vs %q", cid, rec.Header().Get("X-Correlation-ID"))
	}
	if spans := exp.GetSpans(); len(spans) != 1 || spans[0].Name != "GET /analyze" {
		t.Fatalf("unexpected spans: %+v", spans)
	}

	dur := findMetric(collect(t, reader), "pronounce.http.request.duration")
	if dur == nil {
		t.Fatalf("http duration not recorded")
	}
	hist := dur.Data.(metricdata.Histogram[float64])
	found := false
	for _, kv := range hist.DataPoints[0].Attributes.ToSlice() {
		if string(kv.Key) == "status" && kv.Value.AsString() == "418" {
			found = true
		}
	}
	if !found {
		t.Fatalf("status attribute missing")
	}
}

func TestCorrelationIDEmptyWithoutSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestMiddlewareEchoesCorrelationID(t *testing.T) {
	m, _ := newTestMetrics(t)
	useTestTracer(t)

	var seen string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	req.Header.Set(CorrelationHeader, "upload-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "upload-42" || rec.Header().Get(CorrelationHeader) != "upload-42" {
		t.Fatalf("expected echoed id, handler saw %q, response %q", seen, rec.Header().Get(CorrelationHeader))
	}
}

func TestMiddlewareIgnoresMalformedCorrelationID(t *testing.T) {
	m, _ := newTestMetrics(t)
	useTestTracer(t)

	handler := Middleware(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	for _, bad := range []string{"has space", strings.Repeat("a", 200), "tab\tin"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationHeader, bad)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get(CorrelationHeader); got == bad || len(got) != 32 {
			t.Fatalf("expected trace id for %q, got %q", bad, got)
		}
	}
}

func TestMiddlewareInjectsTraceContext(t *testing.T) {
	m, _ := newTestMetrics(t)
	exp := useTestTracer(t)

	handler := Middleware(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", "00-"+parentTrace+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	tp := rec.Header().Get("traceparent")
	if !strings.HasPrefix(tp, "00-"+parentTrace+"-") {
		t.Fatalf("response traceparent %q does not continue the incoming trace", tp)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].SpanContext.TraceID().String() != parentTrace {
		t.Fatalf("unexpected spans: %+v", spans)
	}
	if !strings.Contains(tp, spans[0].SpanContext.SpanID().String()) {
		t.Fatalf("traceparent %q must name the server span", tp)
	}
	if rec.Header().Get(CorrelationHeader) != parentTrace {
		t.Fatalf("correlation id should default to the trace id")
	}
}

func TestLoggerAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	Logger(WithCorrelationID(context.Background(), "req-7")).Info("hello")
	if !strings.Contains(buf.String(), "correlation_id=req-7") {
		t.Fatalf("log line missing correlation id: %s", buf.String())
	}
}

package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("bizzy-test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartRepositorySpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartRepositorySpan(context.Background(), "Search", "users")
	RecordErrorInContext(ctx, errors.New("first"))
	RecordErrorInContext(ctx, nil)
	EndSpan(span, errors.New("db down"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "repository.Search", got.Name())
	assert.Contains(t, got.Attributes(), attribute.String("db.table", "users"))
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Len(t, got.Events(), 2)
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "bizzy-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartServiceSpan(context.Background(), "svc", "op")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestObservePlaces(t *testing.T) {
	before := testutil.ToFloat64(PlacesRequests.WithLabelValues("nearby", "ok"))
	ObservePlaces("nearby", "ok", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(PlacesRequests.WithLabelValues("nearby", "ok")))
}

func TestRepoLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l := NewRepoLogger("follows", logger)
	l.LogCreate(context.Background(), slog.String("follower_id", "a"))
	l.LogError(context.Background(), errors.New("db down"), "delete")

	out := buf.String()
	assert.Contains(t, out, "repository create")
	assert.Contains(t, out, "table=follows")
	assert.Contains(t, out, "follower_id=a")
	assert.Contains(t, out, "db down")
}

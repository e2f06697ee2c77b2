package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Observe(t *testing.T) {
	r := New()
	r.Observe("sign", ResultOK, 10*time.Millisecond)
	r.Observe("sign", ResultOK, 20*time.Millisecond)
	r.Observe("sign", "not_found", time.Millisecond)

	if got := testutil.ToFloat64(r.operations.WithLabelValues("sign", ResultOK)); got != 2 {
		t.Fatalf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("sign", "not_found")); got != 1 {
		t.Fatalf("not_found count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.duration); n != 1 {
		t.Fatalf("expected 1 histogram series, got %d", n)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.Observe("provision", ResultOK, time.Second)
	if r.Registry() != nil {
		t.Fatal("nil recorder should have no registry")
	}
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil recorder handler status = %d", rec.Code)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Observe("provision", ResultOK, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`walletkeeper_operations_total{op="provision",result="ok"} 1`,
		"walletkeeper_operation_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	r, err := NewRecorder("", "")
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}
	if r.jobName != "txsynth" {
		t.Errorf("Expected default job name txsynth, got %s", r.jobName)
	}

	r.AddRows("customers", 100)
	r.AddRows("customers", 5)
	r.AddViolations("transactions", 2)

	if got := testutil.ToFloat64(r.rows.WithLabelValues("customers")); got != 105 {
		t.Errorf("Expected 105 customer rows, got %v", got)
	}
	if got := testutil.ToFloat64(r.violations.WithLabelValues("transactions")); got != 2 {
		t.Errorf("Expected 2 violations, got %v", got)
	}
}

func TestRecorderObserveStage(t *testing.T) {
	r, _ := NewRecorder("job", "")
	r.ObserveStage("amount", 10*time.Millisecond)
	r.ObserveStage("amount", 30*time.Millisecond)
	r.ObserveStage("status", time.Millisecond)

	if n := testutil.CollectAndCount(r.stageDuration); n != 2 {
		t.Errorf("Expected 2 stage series, got %d", n)
	}
}

func TestPushWithoutGatewayIsNoop(t *testing.T) {
	r, _ := NewRecorder("job", "")
	if err := r.Push(); err != nil {
		t.Errorf("Expected no error without a gateway, got %v", err)
	}
}

func TestPush(t *testing.T) {
	type pushRequest struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequest{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	r, err := NewRecorder("txsynth-test", server.URL)
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}
	r.AddRows("transactions", 3)

	if err := r.Push(); err != nil {
		t.Fatalf("Failed to push: %v", err)
	}

	var got pushRequest
	select {
	case got = <-reqCh:
	default:
		t.Fatal("Expected a request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Errorf("Expected PUT, got %s", got.method)
	}
	if !strings.Contains(got.path, "/job/txsynth-test") {
		t.Errorf("Expected job in path, got %s", got.path)
	}
	if got.body == "" {
		t.Error("Expected a non-empty push body")
	}
}

func TestPushFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r, _ := NewRecorder("job", server.URL)
	r.AddRows("customers", 1)
	if err := r.Push(); err == nil {
		t.Error("Expected push to fail on a 500")
	}
}

package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestInitMetrics_ExposesRecordedCounter(t *testing.T) {
	handler, shutdown, err := InitMetrics("tracker-service", "test")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	counter, err := otel.Meter("observability_test").Int64Counter("tracker_test_moves")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "tracker_test_moves") {
		t.Errorf("metrics output does not contain tracker_test_moves:\n%s", body)
	}
}

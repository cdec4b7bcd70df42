package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobtracker/tracker-service/internal/logger"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := logger.Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	cases := []struct {
		name, incoming string
	}{
		{"reuses gateway id", "req-123"},
		{"generates id", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf.Reset()
			req := httptest.NewRequest(http.MethodGet, "/applications", nil)
			if c.incoming != "" {
				req.Header.Set(logger.RequestIDHeader, c.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			echoed := rec.Header().Get(logger.RequestIDHeader)
			if echoed == "" || echoed != seen {
				t.Errorf("echoed id %q, handler saw %q", echoed, seen)
			}
			if c.incoming != "" && echoed != c.incoming {
				t.Errorf("id = %q, want %q", echoed, c.incoming)
			}

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
			}
			if line["request_id"] != echoed || line["status"] != float64(http.StatusTeapot) || line["path"] != "/applications" {
				t.Errorf("log line = %v", line)
			}
		})
	}
}

func TestFromContextWithoutID(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	if got := logger.FromContext(t.Context(), base); got != base {
		t.Error("FromContext without a request id should return the base logger")
	}
}

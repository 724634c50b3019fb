package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todolist/internal/dto"
	"todolist/internal/logging"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = RequestIDFromContext(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		got := w.Header().Get(RequestIDHeader)
		if got == "" || got != seen {
			t.Errorf("header %q, context %q", got, seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		r.ServeHTTP(w, req)
		if got := w.Header().Get(RequestIDHeader); got != "abc-123" || seen != "abc-123" {
			t.Errorf("header %q, context %q, want abc-123", got, seen)
		}
	})
}

func TestRequestIDFromContextUnset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := RequestIDFromContext(c); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestLoggerWritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, logging.Options{Level: "info", Format: "logfmt"})

	r := gin.New()
	r.Use(RequestID(), Logger(logger))
	r.GET("/api/todos", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/todos", nil))

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/api/todos", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestRecoveryKeepsServing(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, logging.Options{Level: "info"})

	r := gin.New()
	r.Use(Recovery(logger))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Internal server error" || body.Details != "" {
		t.Errorf("unexpected body %+v", body)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Errorf("panic not logged: %q", buf.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Errorf("server stopped serving after panic: %d", w.Code)
	}
}

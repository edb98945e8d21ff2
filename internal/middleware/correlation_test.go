package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupObservedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	var seen string
	router := gin.New()
	router.Use(CorrelationID(zap.New(core)), RequestLogger())
	router.GET("/test", func(c *gin.Context) {
		seen = GetCorrelationID(c)
		logger.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	return router, logs, &seen
}

func TestCorrelationID_Generated(t *testing.T) {
	router, _, seen := setupObservedRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	id := w.Header().Get(CorrelationIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated correlation id %q is not a UUID: %v", id, err)
	}
	if *seen != id {
		t.Errorf("handler saw %q, response carried %q", *seen, id)
	}
}

func TestCorrelationID_Propagated(t *testing.T) {
	router, logs, seen := setupObservedRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, "req-42")
	router.ServeHTTP(w, req)

	if got := w.Header().Get(CorrelationIDHeader); got != "req-42" {
		t.Errorf("response header = %q, want req-42", got)
	}
	if *seen != "req-42" {
		t.Errorf("handler saw %q, want req-42", *seen)
	}

	handlerLogs := logs.FilterMessage("inside handler").All()
	if len(handlerLogs) != 1 {
		t.Fatalf("expected 1 handler log, got %d", len(handlerLogs))
	}
	if got := handlerLogs[0].ContextMap()["correlation_id"]; got != "req-42" {
		t.Errorf("handler log correlation_id = %v, want req-42", got)
	}
}

func TestCorrelationID_OversizedReplaced(t *testing.T) {
	router, _, _ := setupObservedRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, strings.Repeat("x", maxCorrelationIDLength+1))
	router.ServeHTTP(w, req)

	if _, err := uuid.Parse(w.Header().Get(CorrelationIDHeader)); err != nil {
		t.Errorf("oversized id should be replaced with a UUID")
	}
}

func TestRequestLogger(t *testing.T) {
	router, logs, _ := setupObservedRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	if n := logs.FilterMessage("request started").Len(); n != 2 {
		t.Errorf("request started logs = %d, want 2", n)
	}

	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 2 {
		t.Fatalf("request completed logs = %d, want 2", len(completed))
	}
	if completed[0].Level != zapcore.InfoLevel {
		t.Errorf("200 logged at %v, want info", completed[0].Level)
	}
	if completed[1].Level != zapcore.ErrorLevel {
		t.Errorf("503 logged at %v, want error", completed[1].Level)
	}
	fields := completed[1].ContextMap()
	if fields["status"] != int64(http.StatusServiceUnavailable) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["path"] != "/fail" {
		t.Errorf("path field = %v", fields["path"])
	}
	if _, ok := fields["correlation_id"]; !ok {
		t.Error("completion log should carry correlation_id")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func probe(err error) func(ctx context.Context) error {
	return func(ctx context.Context) error { return err }
}

func parseReport(t *testing.T, raw json.RawMessage) HealthReport {
	t.Helper()
	var report HealthReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	return report
}

func TestHealthCheck_AllUp(t *testing.T) {
	handler := NewHealthHandler([]HealthCheck{
		{Name: "database", Probe: probe(nil)},
		{Name: "redis", Probe: probe(nil)},
	}, nil, time.Second)

	w, c := createTestContext("GET", "/health", nil)
	handler.Check(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	report := parseReport(t, parseEnvelope(t, w).Data)
	if report.Status != StatusUp || len(report.Checks) != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestHealthCheck_OneDown(t *testing.T) {
	handler := NewHealthHandler([]HealthCheck{
		{Name: "database", Probe: probe(nil)},
		{Name: "redis", Probe: probe(errors.New("connection refused"))},
	}, nil, time.Second)

	w, c := createTestContext("GET", "/health", nil)
	handler.Check(c)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	env := parseEnvelope(t, w)
	if env.Success {
		t.Error("expected success=false")
	}
	report := parseReport(t, env.Data)
	if report.Status != StatusDown {
		t.Errorf("status = %q, want down", report.Status)
	}
	if report.Checks["redis"].Status != StatusDown || report.Checks["redis"].Error != "connection refused" {
		t.Errorf("redis check = %+v", report.Checks["redis"])
	}
	if report.Checks["database"].Status != StatusUp {
		t.Errorf("database check = %+v", report.Checks["database"])
	}
}

func TestHealthCheck_Timeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	handler := NewHealthHandler(nil, []HealthCheck{{Name: "database", Probe: slow}}, 20*time.Millisecond)

	w, c := createTestContext("GET", "/health/ready", nil)
	handler.Ready(c)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestHealthLive(t *testing.T) {
	handler := NewHealthHandler([]HealthCheck{{Name: "database", Probe: probe(errors.New("down"))}}, nil, time.Second)

	w, c := createTestContext("GET", "/health/live", nil)
	handler.Live(c)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if report := parseReport(t, parseEnvelope(t, w).Data); report.Checks["liveness"].Status != StatusUp {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestHealthReady_UsesReadyChecks(t *testing.T) {
	handler := NewHealthHandler(
		[]HealthCheck{{Name: "redis", Probe: probe(errors.New("down"))}},
		[]HealthCheck{{Name: "database", Probe: probe(nil)}},
		time.Second,
	)

	w, c := createTestContext("GET", "/health/ready", nil)
	handler.Ready(c)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

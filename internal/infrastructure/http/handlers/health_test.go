package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func readiness(t *testing.T, h *HealthHandler) (int, readinessResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("liveness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := Check{Name: "a", Probe: func(context.Context) error { return nil }}
	bad := Check{Name: "b", Probe: func(context.Context) error { return errors.New("down") }}

	code, resp := readiness(t, NewHealthHandler(ok))
	if code != http.StatusOK || resp.Status != "ok" || resp.Dependencies["a"].Status != "ok" {
		t.Fatalf("unexpected healthy response: %d %+v", code, resp)
	}

	code, resp = readiness(t, NewHealthHandler(bad, ok))
	if code != http.StatusServiceUnavailable || resp.Status != "degraded" {
		t.Fatalf("unexpected degraded response: %d %+v", code, resp)
	}
	if resp.Dependencies["b"].Error != "down" || resp.Dependencies["a"].Status != "ok" {
		t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
	}
}

func TestRedisCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	code, _ := readiness(t, NewHealthHandler(RedisCheck(rdb)))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	mr.Close()
	code, resp := readiness(t, NewHealthHandler(RedisCheck(rdb)))
	if code != http.StatusServiceUnavailable || resp.Dependencies["redis"].Status != "unhealthy" {
		t.Fatalf("expected redis unhealthy, got %d %+v", code, resp)
	}
}

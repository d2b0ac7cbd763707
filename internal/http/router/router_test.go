package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/httpkit"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/ping", func(c *gin.Context) { httpkit.OK(c, gin.H{"pong": true}) })
}

type failingHealth struct{}

func (failingHealth) Ping(ctx context.Context) error { return errors.New("redis down") }

func newApp(health apphttp.HealthChecker) *apphttp.App {
	return &apphttp.App{
		Config:  &config.Config{Env: "test", CORSAllowAll: true},
		Logger:  logger.Discard(),
		Health:  health,
		Metrics: metrics.New().Handler(),
		Modules: []apphttp.Module{pingModule{}},
	}
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthOK(t *testing.T) {
	w := get(New(newApp(nil)), "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealthDegraded(t *testing.T) {
	w := get(New(newApp(failingHealth{})), "/api/health")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "redis down") {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestModulesMountedUnderV1(t *testing.T) {
	w := get(New(newApp(nil)), "/api/v1/ping")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get(httpkit.HeaderRequestID) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := get(New(newApp(nil)), "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("status = %d", w.Code)
	}
}

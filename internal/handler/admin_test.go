package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TrustArcade/trustgate/internal/config"
	"github.com/TrustArcade/trustgate/internal/middleware"
	"github.com/TrustArcade/trustgate/internal/model"
	"github.com/TrustArcade/trustgate/internal/repository"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/gin-gonic/gin"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *repository.MemorySanctionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	active := repository.NewMemorySanctionStore()
	engine := service.NewTrustEngine(config.EngineConfig{}, service.TrustEngineDeps{
		Profiles:     repository.NewMemoryProfileStore(),
		Fingerprints: repository.NewMemoryFingerprintStore(),
		Baselines:    repository.NewMemoryBaselineStore(0),
		Detections:   repository.NewMemoryDetectionStore(0),
		Sanctions:    service.NewSanctionEngine(active, nil),
	})

	cfg := &config.Config{Auth: config.AuthConfig{AdminKey: "admin-secret"}}
	admin := NewAdminHandler(engine)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	group := router.Group("/v1/admin")
	group.Use(middleware.AdminMiddleware(cfg))
	group.DELETE("/players/:wallet/sanctions/:id", admin.LiftSanction)
	group.POST("/players/:wallet/false-positive", admin.ReportFalsePositive)
	group.GET("/stats", admin.Stats)
	group.GET("/detections", admin.RecentDetections)
	return router, active
}

func adminRequest(router *gin.Engine, method, path string, payload interface{}, key string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.HeaderAdminKey, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const adminTestWallet = "0x1234567890abcdef1234567890abcdef12345678"

func TestAdminRoutesRequireKey(t *testing.T) {
	router, _ := newAdminRouter(t)

	rec := adminRequest(router, http.MethodGet, "/v1/admin/stats", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin key, got %d", rec.Code)
	}

	rec = adminRequest(router, http.MethodGet, "/v1/admin/stats", nil, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong admin key, got %d", rec.Code)
	}

	rec = adminRequest(router, http.MethodGet, "/v1/admin/stats", nil, "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin key, got %d", rec.Code)
	}
}

func TestLiftSanctionRoute(t *testing.T) {
	router, active := newAdminRouter(t)

	expires := time.Now().Add(24 * time.Hour)
	active.Append(context.Background(), adminTestWallet, model.Sanction{
		ID: "sanction-1", Type: model.SanctionTemporaryBan, ExpiresAt: &expires,
	})

	rec := adminRequest(router, http.MethodDelete,
		"/v1/admin/players/"+adminTestWallet+"/sanctions/sanction-1",
		map[string]string{"reason": "appeal upheld"}, "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	list, _ := active.List(context.Background(), adminTestWallet)
	if len(list) != 0 {
		t.Fatalf("sanction not removed: %v", list)
	}

	// Lifting again is a 404.
	rec = adminRequest(router, http.MethodDelete,
		"/v1/admin/players/"+adminTestWallet+"/sanctions/sanction-1",
		map[string]string{"reason": "double lift"}, "admin-secret")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown sanction, got %d", rec.Code)
	}
}

func TestLiftSanctionRequiresReason(t *testing.T) {
	router, _ := newAdminRouter(t)

	rec := adminRequest(router, http.MethodDelete,
		"/v1/admin/players/"+adminTestWallet+"/sanctions/sanction-1",
		map[string]string{}, "admin-secret")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", rec.Code)
	}
}

func TestReportFalsePositiveRoute(t *testing.T) {
	router, _ := newAdminRouter(t)

	rec := adminRequest(router, http.MethodPost,
		"/v1/admin/players/"+adminTestWallet+"/false-positive",
		map[string]string{"details": "player streams their runs"}, "admin-secret")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecentDetectionsRoute(t *testing.T) {
	router, _ := newAdminRouter(t)

	rec := adminRequest(router, http.MethodGet, "/v1/admin/detections?limit=5", nil, "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = adminRequest(router, http.MethodGet, "/v1/admin/detections?limit=abc", nil, "admin-secret")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

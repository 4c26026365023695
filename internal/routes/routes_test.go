package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	app        *fiber.App
	store      *store.Store
	cfg        *config.Config
	downloader *delivery.FakeDownloader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		SessionExpiry:        time.Hour,
		AdminToken:           "admin-token",
		RevenueCatAuth:       "Bearer hook-secret",
		PremiumEntitlementID: "premium",
		CORSOrigins:          "*",
	}
	backend := kvstore.NewMemory()
	st, err := store.Open(context.Background(), backend, store.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	sessions := session.NewManager(backend, nil)
	notifier := services.NewNotifier(delivery.NewLogMailer(0))
	t.Cleanup(notifier.Wait)
	downloader := delivery.NewFakeDownloader([]byte("package-bytes"))

	moderation := services.NewModerationService(st, notifier, 0)
	appService := services.NewAppService(st, catalog.Default(), moderation, downloader, 0)
	vendorService := services.NewVendorService(st, sessions)
	storyService := services.NewStoryService(st)
	subscription := services.NewSubscriptionService(st, sessions, cfg.PremiumEntitlementID)

	app := fiber.New()
	Setup(app, cfg, sessions, Handlers{
		Auth:       handlers.NewAuthHandler(services.NewAuthService(st, sessions, notifier, cfg)),
		Health:     handlers.NewHealthHandler(st, nil),
		Legal:      handlers.NewLegalHandler("Indie Market", "support@indiemarket.dev"),
		Storefront: handlers.NewStorefrontHandler(appService, vendorService, storyService),
		Vendor:     handlers.NewVendorHandler(appService, vendorService, subscription),
		Moderation: handlers.NewModerationHandler(moderation, storyService, st),
		Webhook:    handlers.NewWebhookHandler(subscription, cfg),
	})
	return &testServer{app: app, store: st, cfg: cfg, downloader: downloader}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := s.do(t, "POST", "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.SessionResponse](t, resp).Token
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "GET", "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, 8, health.AppCount)

	resp = s.do(t, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, "GET", "/api/legal/terms", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStorefront_AgeGate(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "GET", "/api/storefront/apps", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	locked := decode[dto.AppListResponse](t, resp)
	for _, a := range locked.Apps {
		assert.Equal(t, models.StatusApproved, a.Status)
		assert.False(t, a.IsMature)
		assert.NotEmpty(t, a.DownloadsLabel)
	}

	resp = s.do(t, "GET", "/api/storefront/apps?category=mature", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, "GET", "/api/apps/5", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, "POST", "/api/session", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decode[dto.SessionResponse](t, resp).Token

	resp = s.do(t, "POST", "/api/session/age-gate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.SessionResponse](t, resp).Session.MatureUnlocked)

	resp = s.do(t, "GET", "/api/storefront/apps", token, nil)
	unlocked := decode[dto.AppListResponse](t, resp)
	assert.Equal(t, locked.Total+1, unlocked.Total)

	resp = s.do(t, "GET", "/api/apps/5", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStories_HideUnlistedApps(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@indiemarket.dev", "admin123")

	resp := s.do(t, "POST", "/api/admin/stories", admin, dto.StoryRequest{Title: "Coming soon", AppID: "3"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pending := decode[models.Story](t, resp)
	resp = s.do(t, "POST", "/api/admin/stories", admin, dto.StoryRequest{Title: "After dark", AppID: "5"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mature := decode[models.Story](t, resp)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/stories/"+pending.ID, "", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/api/stories/"+mature.ID, "", nil).StatusCode)
	resp = s.do(t, "GET", "/api/stories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, st := range decode[[]models.Story](t, resp) {
		assert.NotEqual(t, pending.ID, st.ID)
		assert.NotEqual(t, mature.ID, st.ID)
	}

	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/stories/"+pending.ID, admin, nil).StatusCode)
}

func TestStorefront_Lookups(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/apps/404", "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/apps/3", "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/storefront/charts/hype", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/storefront/charts/top-free?limit=2", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/stories/2", "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/vendors/404", "", nil).StatusCode)

	resp := s.do(t, "GET", "/api/storefront/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cats := decode[[]dto.CategoryResponse](t, resp)
	for _, c := range cats {
		assert.NotEqual(t, catalog.Mature, c.ID)
	}
}

func TestDownload(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "GET", "/api/apps/1/download", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "installed", resp.Header.Get("X-Install-Status"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "package-bytes", string(body))

	s.downloader.Err = errors.New("unreachable")
	resp = s.do(t, "GET", "/api/apps/1/download", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "installed", resp.Header.Get("X-Install-Status"))
	assert.Contains(t, resp.Header.Get("Location"), "taskpilot")

	resp = s.do(t, "GET", "/api/apps/1/download?format=json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.DownloadResponse](t, resp)
	assert.Equal(t, "installed", out.Status)
	assert.NotEmpty(t, out.FallbackURL)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, "POST", "/api/auth/login", "", dto.LoginRequest{Email: "lena@pixelforge.dev", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, "POST", "/api/auth/register", "", dto.RegisterVendorRequest{Name: "A", Email: "a@b.dev", Password: "short", BusinessName: "AB"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Fields, "password")

	resp = s.do(t, "POST", "/api/auth/register", "", dto.RegisterVendorRequest{Name: "Lena", Email: "LENA@pixelforge.dev", Password: "long-enough", BusinessName: "Dup"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, "POST", "/api/auth/register", "", dto.RegisterVendorRequest{Name: "Ada", Email: "ada@engine.dev", Password: "long-enough", BusinessName: "Engine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := decode[dto.SessionResponse](t, resp).Token

	resp = s.do(t, "GET", "/api/vendor/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, "POST", "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.SessionResponse](t, resp).Session.Authenticated())

	resp = s.do(t, "GET", "/api/vendor/dashboard", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, "POST", "/api/auth/debug-login", "", dto.DebugLoginRequest{Role: "admin"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVendorConsole(t *testing.T) {
	s := newTestServer(t)
	lena := s.login(t, "lena@pixelforge.dev", "vendor123")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/api/vendor/apps", "", nil).StatusCode)
	customer := s.login(t, "sam@example.com", "customer123")
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/api/vendor/apps", customer, nil).StatusCode)

	resp := s.do(t, "GET", "/api/vendor/apps", lena, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decode[dto.AppListResponse](t, resp).Total)

	upload := map[string]any{"name": "Orbit", "shortDescription": "Weekly planner", "category": "productivity", "version": "1.0.0", "price": "free"}
	resp = s.do(t, "POST", "/api/vendor/apps", lena, upload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, "POST", "/api/vendor/apps", lena, map[string]any{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	fields := decode[dto.ErrorResponse](t, resp).Fields
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "category")

	resp = s.do(t, "PUT", "/api/vendor/apps/4", lena, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, "PUT", "/api/vendor/apps/404", lena, map[string]any{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, "PUT", "/api/vendor/apps/1", lena, map[string]any{"version": "2.4.0", "releaseNotes": "Faster sync"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.AppResponse](t, resp)
	assert.Equal(t, models.StatusReview, updated.Status)
	assert.Equal(t, "2.4.0", updated.VersionHistory[0].Version)

	resp = s.do(t, "PUT", "/api/vendor/subscription", lena, dto.SubscriptionRequest{Tier: "gold"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = s.do(t, "PUT", "/api/vendor/subscription", lena, dto.SubscriptionRequest{Tier: "premium"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, "POST", "/api/vendor/apps", lena, upload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.AppResponse](t, resp)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "Free", created.PriceLabel)

	resp = s.do(t, "DELETE", "/api/vendor/apps/"+created.ID, lena, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminPanel(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/api/admin/apps", "", nil).StatusCode)
	lena := s.login(t, "lena@pixelforge.dev", "vendor123")
	assert.Equal(t, http.StatusForbidden, s.do(t, "GET", "/api/admin/apps", lena, nil).StatusCode)

	resp := s.do(t, "GET", "/api/admin/apps?queue=true", "", nil, "X-Admin-Token", "admin-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	queue := decode[dto.ModerationQueueResponse](t, resp)
	assert.Equal(t, 1, queue.Pending)
	assert.Equal(t, 1, queue.Review)

	admin := s.login(t, "admin@indiemarket.dev", "admin123")
	resp = s.do(t, "PUT", "/api/admin/apps/3/status", admin, dto.StatusUpdateRequest{Status: "review"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp = s.do(t, "PUT", "/api/admin/apps/3/status", admin, dto.StatusUpdateRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusApproved, decode[dto.AppResponse](t, resp).Status)

	resp = s.do(t, "GET", "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	resp = s.do(t, "POST", "/api/admin/stories", admin, dto.StoryRequest{Title: "Launch week", AppID: "3", Type: "collection"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	story := decode[models.Story](t, resp)
	assert.Equal(t, http.StatusOK, s.do(t, "DELETE", "/api/admin/stories/"+story.ID, admin, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, s.do(t, "DELETE", "/api/admin/stories/"+story.ID, admin, nil).StatusCode)
}

func TestRevenueCatWebhook(t *testing.T) {
	s := newTestServer(t)
	event := map[string]any{"event": map[string]any{
		"type": "INITIAL_PURCHASE", "app_user_id": "3", "entitlement_ids": []string{"premium"},
	}}

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "POST", "/api/webhooks/revenuecat", "", event).StatusCode)

	resp := s.do(t, "POST", "/api/webhooks/revenuecat", "", event, "Authorization", "Bearer hook-secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v, err := s.store.Vendor("3")
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, v.Subscription)

	resp = s.do(t, "POST", "/api/webhooks/revenuecat", "", map[string]any{"event": map[string]any{}}, "Authorization", "Bearer hook-secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

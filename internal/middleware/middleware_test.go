package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, gates ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(SecurityHeaders())
	handlers := append(gates, func(c *fiber.Ctx) error {
		return c.SendString(string(session.Get(c).State))
	})
	app.Get("/", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, token string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func signedIn(t *testing.T, cfg *config.Config, sessions *session.Manager, user models.User) string {
	t.Helper()
	sess := sessions.New()
	sess, err := sessions.SignIn(context.Background(), sess.ID, user, nil, false)
	require.NoError(t, err)
	token, err := session.IssueToken(cfg.JWTSecret, sess, time.Hour)
	require.NoError(t, err)
	return token
}

func TestOptionalSession_IgnoresBadTokens(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	sessions := session.NewManager(kvstore.NewMemory(), nil)
	app := newApp(t, OptionalSession(cfg, sessions))

	resp := get(t, app, "not-a-jwt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	expired, err := session.IssueToken(cfg.JWTSecret, sessions.New(), -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(t, app, expired).StatusCode)
}

func TestSessionRequired(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	sessions := session.NewManager(kvstore.NewMemory(), nil)
	app := newApp(t, SessionRequired(cfg, sessions))

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "garbage").StatusCode)

	token := signedIn(t, cfg, sessions, models.User{ID: "5", Email: "sam@example.com", Role: models.RoleCustomer})
	assert.Equal(t, http.StatusOK, get(t, app, token).StatusCode)
}

func TestAdminRequired(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", AdminToken: "letmein", AdminEmails: "ops@indiemarket.dev, Boss@Example.com"}
	sessions := session.NewManager(kvstore.NewMemory(), nil)
	app := newApp(t, OptionalSession(cfg, sessions), AdminRequired(cfg))

	assert.Equal(t, http.StatusUnauthorized, get(t, app, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "", "X-Admin-Token", "wrong").StatusCode)
	assert.Equal(t, http.StatusOK, get(t, app, "", "X-Admin-Token", "letmein").StatusCode)

	customer := signedIn(t, cfg, sessions, models.User{ID: "5", Email: "sam@example.com", Role: models.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, get(t, app, customer).StatusCode)

	listed := signedIn(t, cfg, sessions, models.User{ID: "9", Email: "boss@example.com", Role: models.RoleCustomer})
	assert.Equal(t, http.StatusOK, get(t, app, listed).StatusCode)

	admin := signedIn(t, cfg, sessions, models.User{ID: "1", Email: "admin@indiemarket.dev", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusOK, get(t, app, admin).StatusCode)
}

func TestAdminRequired_ListedEmailDoesNotElevateVendor(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", AdminEmails: "ops@indiemarket.dev"}
	sessions := session.NewManager(kvstore.NewMemory(), nil)
	app := newApp(t, OptionalSession(cfg, sessions), AdminRequired(cfg))

	sess, err := sessions.SignIn(context.Background(), sessions.New().ID,
		models.User{ID: "9", Email: "OPS@indiemarket.dev", Role: models.RoleVendor},
		&models.Vendor{ID: "4", UserID: "9", BusinessName: "Squatter", Subscription: models.TierStandard}, false)
	require.NoError(t, err)
	token, err := session.IssueToken(cfg.JWTSecret, sess, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(t, app, token).StatusCode)
}

func TestVendorRequired(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	sessions := session.NewManager(kvstore.NewMemory(), nil)
	app := newApp(t, SessionRequired(cfg, sessions), VendorRequired())

	customer := signedIn(t, cfg, sessions, models.User{ID: "5", Email: "sam@example.com", Role: models.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, get(t, app, customer).StatusCode)

	vendor := sessions.New()
	vendor, err := sessions.SignIn(context.Background(), vendor.ID,
		models.User{ID: "2", Email: "lena@pixelforge.dev", Role: models.RoleVendor},
		&models.Vendor{ID: "1", UserID: "2", BusinessName: "PixelForge Studio", Subscription: models.TierStandard}, false)
	require.NoError(t, err)
	token, err := session.IssueToken(cfg.JWTSecret, vendor, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(t, app, token).StatusCode)
}

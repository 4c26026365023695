package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/api/apps/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/apps/:id", "200"))
	resp, err := app.Test(httptest.NewRequest("GET", "/api/apps/7", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/apps/:id", "200")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "indie_market_http_requests_total")
}

func TestWatchStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := store.Open(ctx, kvstore.NewMemory(), store.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		WatchStore(ctx, s)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(appsByStatus.WithLabelValues("pending")) == 1
	}, time.Second, 10*time.Millisecond)

	_, err = s.UpdateAppStatus(ctx, "3", models.StatusApproved)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(appsByStatus.WithLabelValues("pending")) == 0 &&
			testutil.ToFloat64(storeMutations.WithLabelValues(store.KeyApps, "updated")) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(downloads.WithLabelValues("fallback"))
	RecordDownload(true)
	assert.Equal(t, before+1, testutil.ToFloat64(downloads.WithLabelValues("fallback")))

	bytesBefore := testutil.ToFloat64(downloadBytes)
	AddDownloadBytes(512)
	AddDownloadBytes(-1)
	assert.Equal(t, bytesBefore+512, testutil.ToFloat64(downloadBytes))

	RecordDecision(models.StatusRejected)
	assert.GreaterOrEqual(t, testutil.ToFloat64(moderationDecisions.WithLabelValues("rejected")), 1.0)
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func newTestManager(backend kvstore.Backend) *Manager {
	return NewManager(backend, func() time.Time { return fixedNow })
}

var (
	vendorUser = models.User{ID: "2", Name: "Lena", Email: "lena@pixelforge.dev", Role: models.RoleVendor}
	vendorRec  = models.Vendor{ID: "1", UserID: "2", BusinessName: "PixelForge", Subscription: models.TierStandard}
	adminUser  = models.User{ID: "1", Name: "Admin", Email: "admin@indiemarket.dev", Role: models.RoleAdmin}
)

func readFlags(t *testing.T, backend kvstore.Backend, id string) map[string]string {
	t.Helper()
	raw, err := backend.Get(context.Background(), FlagsKey(id))
	require.NoError(t, err)
	var flags map[string]string
	require.NoError(t, json.Unmarshal(raw, &flags))
	return flags
}

func TestLoad_UnknownIsAnonymousAndUnpersisted(t *testing.T) {
	backend := kvstore.NewMemory()
	m := newTestManager(backend)

	s := m.Load(context.Background(), "abc")
	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, StateAnonymous, s.State)
	assert.False(t, s.MatureUnlocked)
	assert.Empty(t, backend.Keys())
}

func TestSignIn_VendorWritesSessionAndFlags(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemory()
	m := newTestManager(backend)
	id := m.New().ID

	s, err := m.SignIn(ctx, id, vendorUser, &vendorRec, false)
	require.NoError(t, err)
	assert.True(t, s.HasRole(models.RoleVendor))
	assert.Equal(t, "1", s.VendorID)

	assert.Equal(t, map[string]string{
		"adminLoggedIn":  "false",
		"vendorLoggedIn": "true",
		"vendorName":     "PixelForge",
		"vendorEmail":    "lena@pixelforge.dev",
		"loginType":      "vendor",
		"subscription":   "standard",
	}, readFlags(t, backend, id))

	// A fresh manager over the same backend sees the persisted session.
	reloaded := newTestManager(backend).Load(ctx, id)
	assert.Equal(t, StateAuthenticated, reloaded.State)
	assert.Equal(t, "PixelForge", reloaded.VendorName)
}

func TestSignIn_AdminFlags(t *testing.T) {
	backend := kvstore.NewMemory()
	m := newTestManager(backend)

	_, err := m.SignIn(context.Background(), "s1", adminUser, nil, false)
	require.NoError(t, err)

	flags := readFlags(t, backend, "s1")
	assert.Equal(t, "true", flags["adminLoggedIn"])
	assert.Equal(t, "false", flags["vendorLoggedIn"])
	assert.Equal(t, "admin", flags["loginType"])
	assert.Empty(t, flags["vendorName"])
}

func TestAgeGate_SurvivesLoginAndResetsOnLogout(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemory()
	m := newTestManager(backend)

	s, err := m.ConfirmAgeGate(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, s.MatureUnlocked)
	assert.Equal(t, StateAnonymous, s.State)

	s, err = m.SignIn(ctx, "s1", vendorUser, &vendorRec, false)
	require.NoError(t, err)
	assert.True(t, s.MatureUnlocked)

	s, err = m.Logout(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StateAnonymous, s.State)
	assert.False(t, s.MatureUnlocked)
	assert.Empty(t, backend.Keys())
	assert.Equal(t, StateAnonymous, m.Load(ctx, "s1").State)
}

func TestLogout_LeavesOtherKeysAlone(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemory()
	require.NoError(t, backend.Put(ctx, "marketplace_apps", []byte(`[]`)))
	m := newTestManager(backend)

	_, err := m.SignIn(ctx, "s1", adminUser, nil, false)
	require.NoError(t, err)
	_, err = m.Logout(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"marketplace_apps"}, backend.Keys())
}

type failingBackend struct {
	*kvstore.Memory
}

func (failingBackend) PutMany(context.Context, map[string][]byte) error {
	return errors.New("unavailable")
}

func TestSignIn_WriteFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(failingBackend{kvstore.NewMemory()})

	_, err := m.SignIn(ctx, "s1", adminUser, nil, false)
	require.Error(t, err)
	assert.Equal(t, StateAnonymous, m.Load(ctx, "s1").State)
}

func TestSyncVendor(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemory()
	m := newTestManager(backend)
	_, err := m.SignIn(ctx, "s1", vendorUser, &vendorRec, false)
	require.NoError(t, err)

	upgraded := vendorRec
	upgraded.Subscription = models.TierPremium
	m.SyncVendor(ctx, upgraded)

	assert.Equal(t, models.TierPremium, m.Load(ctx, "s1").Subscription)
	assert.Equal(t, "premium", readFlags(t, backend, "s1")["subscription"])
}

func TestToken_RoundTrip(t *testing.T) {
	s := &Session{ID: "sid-1", State: StateAuthenticated, UserID: "2", Role: models.RoleVendor}

	raw, err := IssueToken("secret", s, time.Hour)
	require.NoError(t, err)

	sid, err := ParseToken("secret", raw)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)

	_, err = ParseToken("other-secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := IssueToken("secret", s, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

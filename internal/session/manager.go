package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/google/uuid"
)

const keyPrefix = "marketplace_session:"

// Key is the durable key of the session object.
func Key(id string) string { return keyPrefix + id }

// FlagsKey is the durable key of the derived legacy flags.
func FlagsKey(id string) string { return keyPrefix + id + ":flags" }

// Manager persists sessions through the same backend as the store. Sessions
// are written only when they change state: a failed login writes nothing.
type Manager struct {
	mu      sync.Mutex
	backend kvstore.Backend
	now     func() time.Time
	cache   map[string]*Session
}

func NewManager(backend kvstore.Backend, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{backend: backend, now: now, cache: make(map[string]*Session)}
}

// New returns a fresh anonymous session. It is not persisted.
func (m *Manager) New() *Session {
	now := m.now().UTC()
	return &Session{ID: uuid.NewString(), State: StateAnonymous, CreatedAt: now, UpdatedAt: now}
}

// Load returns the session with id, or an anonymous one carrying the same id
// when nothing was persisted.
func (m *Manager) Load(ctx context.Context, id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.load(ctx, id)
	cp := *s
	return &cp
}

func (m *Manager) load(ctx context.Context, id string) *Session {
	if s, ok := m.cache[id]; ok {
		return s
	}

	raw, err := m.backend.Get(ctx, Key(id))
	if err == nil {
		var s Session
		if err := json.Unmarshal(raw, &s); err == nil && s.ID == id {
			m.cache[id] = &s
			return &s
		}
		slog.Warn("discarding malformed session", "session_id", id)
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		slog.Warn("failed to read session", "session_id", id, "error", err)
	}

	now := m.now().UTC()
	return &Session{ID: id, State: StateAnonymous, CreatedAt: now, UpdatedAt: now}
}

// SignIn moves the session to authenticated(user.Role). vendor is nil for
// non-vendor users. The age-gate confirmation survives the transition.
func (m *Manager) SignIn(ctx context.Context, id string, user models.User, vendor *models.Vendor, debug bool) (*Session, error) {
	return m.update(ctx, id, func(s *Session) {
		s.State = StateAuthenticated
		s.UserID = user.ID
		s.Name = user.Name
		s.Email = user.Email
		s.Role = user.Role
		s.Debug = debug
		s.VendorID, s.VendorName, s.Subscription = "", "", ""
		if vendor != nil {
			s.VendorID = vendor.ID
			s.VendorName = vendor.BusinessName
			s.Subscription = vendor.Subscription
		}
	})
}

// SyncVendor refreshes the denormalised vendor fields of every cached
// session signed in as vendor.
func (m *Manager) SyncVendor(ctx context.Context, vendor models.Vendor) {
	m.mu.Lock()
	var ids []string
	for id, s := range m.cache {
		if s.VendorID == vendor.ID {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		if _, err := m.update(ctx, id, func(s *Session) {
			s.VendorName = vendor.BusinessName
			s.Subscription = vendor.Subscription
		}); err != nil {
			slog.Warn("failed to sync vendor session", "session_id", id, "error", err)
		}
	}
}

// ConfirmAgeGate unlocks mature listings for the rest of the session.
func (m *Manager) ConfirmAgeGate(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) {
		s.MatureUnlocked = true
	})
}

// Logout deletes the persisted session and its flags. The marketplace
// collections are not touched.
func (m *Manager) Logout(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backend.Delete(ctx, Key(id), FlagsKey(id)); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	delete(m.cache, id)
	now := m.now().UTC()
	return &Session{ID: id, State: StateAnonymous, CreatedAt: now, UpdatedAt: now}, nil
}

func (m *Manager) update(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.load(ctx, id)
	next := *current
	fn(&next)
	next.UpdatedAt = m.now().UTC()

	if err := m.save(ctx, &next); err != nil {
		return nil, err
	}
	m.cache[id] = &next
	cp := next
	return &cp, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	flags, err := json.Marshal(s.LegacyFlags())
	if err != nil {
		return fmt.Errorf("failed to encode session flags: %w", err)
	}
	if err := m.backend.PutMany(ctx, map[string][]byte{
		Key(s.ID):      body,
		FlagsKey(s.ID): flags,
	}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

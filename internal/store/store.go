// Package store materialises the marketplace collections and keeps a
// durable copy in sync. Every mutation rewrites the full snapshot of the
// collections it touched. Processes sharing a backend are last-write-wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixed keys of the durable collections.
const (
	KeyApps    = "marketplace_apps"
	KeyVendors = "marketplace_vendors"
	KeyUsers   = "marketplace_users"
	KeyStories = "marketplace_stories"
)

const (
	dayLayout          = "2006-01-02"
	maxDownloadBuckets = 90
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrQuotaExceeded      = errors.New("app quota reached for current subscription")
	ErrInvalidStatus      = errors.New("invalid app status")
	ErrInvalidTier        = errors.New("invalid subscription tier")
)

type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Seed overrides the bundled dataset.
	Seed func(now time.Time) Dataset
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Store struct {
	mu      sync.RWMutex
	backend kvstore.Backend
	now     func() time.Time
	seed    func(now time.Time) Dataset
	cost    int
	data    Dataset

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// Open loads every collection from backend, falling back to seed data for
// keys that are absent or unreadable, and writes back whatever had to be
// seeded or repaired.
func Open(ctx context.Context, backend kvstore.Backend, opts Options) (*Store, error) {
	s := &Store{
		backend: backend,
		now:     opts.Now,
		seed:    opts.Seed,
		cost:    opts.BcryptCost,
		subs:    make(map[int]chan Event),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.seed == nil {
		s.seed = SeedData
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}

	seed := s.seed(s.now())
	var dirty []string
	mark := func(key string, changed bool) {
		if changed {
			dirty = append(dirty, key)
		}
	}

	var changed bool
	s.data.Users, changed = loadCollection(ctx, backend, KeyUsers, seed.Users, (*models.User).Validate)
	mark(KeyUsers, changed)
	s.data.Vendors, changed = loadCollection(ctx, backend, KeyVendors, seed.Vendors, (*models.Vendor).Validate)
	mark(KeyVendors, changed)
	s.data.Apps, changed = loadCollection(ctx, backend, KeyApps, seed.Apps, (*models.App).Validate)
	mark(KeyApps, changed)
	s.data.Stories, changed = loadCollection(ctx, backend, KeyStories, seed.Stories, (*models.Story).Validate)
	mark(KeyStories, changed)

	hashed, err := s.hashPlaintextPasswords()
	if err != nil {
		return nil, err
	}
	mark(KeyUsers, hashed)

	for key, dropped := range enforceReferences(&s.data) {
		mark(key, dropped)
	}

	if len(dirty) > 0 {
		if err := s.persist(ctx, dedupe(dirty)...); err != nil {
			// The in-memory copy is still usable; the next mutation retries.
			slog.Warn("failed to persist loaded collections", "keys", dirty, "error", err)
		}
	}

	slog.Info("store loaded",
		"apps", len(s.data.Apps), "vendors", len(s.data.Vendors),
		"users", len(s.data.Users), "stories", len(s.data.Stories))
	return s, nil
}

// Reset replaces every collection with the seed dataset.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data
	s.data = s.seed(s.now())
	if _, err := s.hashPlaintextPasswords(); err != nil {
		s.data = prev
		return err
	}
	if err := s.persist(ctx, KeyApps, KeyVendors, KeyUsers, KeyStories); err != nil {
		s.data = prev
		return err
	}
	s.publish(Event{Op: OpReset})
	return nil
}

// Snapshot returns a deep copy of all collections.
func (s *Store) Snapshot() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

func (s *Store) hashPlaintextPasswords() (bool, error) {
	changed := false
	for i := range s.data.Users {
		u := &s.data.Users[i]
		if isBcryptHash(u.Password) {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
		if err != nil {
			return false, fmt.Errorf("failed to hash password for user %s: %w", u.ID, err)
		}
		u.Password = string(hash)
		changed = true
	}
	return changed, nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// nextID returns one more than the largest numeric id in items.
func nextID[T any](items []T, id func(T) string) string {
	max := 0
	for _, item := range items {
		if n, err := strconv.Atoi(id(item)); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

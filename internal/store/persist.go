package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/tidwall/gjson"
)

// loadCollection decodes the snapshot under key. The bool result reports
// whether the collection differs from what is persisted (seeded or records
// dropped) and must be written back.
func loadCollection[T any](ctx context.Context, b kvstore.Backend, key string, fallback []T, validate func(*T) error) ([]T, bool) {
	raw, err := b.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		slog.Info("no persisted collection, using seed data", "key", key)
		return fallback, true
	}
	if err != nil {
		slog.Warn("failed to read collection, using seed data", "key", key, "error", err)
		return fallback, true
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsArray() {
		slog.Warn("persisted collection is not a JSON array, using seed data", "key", key)
		return fallback, true
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.Warn("failed to decode collection, using seed data", "key", key, "error", err)
		return fallback, true
	}

	kept := items[:0]
	for i := range items {
		if err := validate(&items[i]); err != nil {
			slog.Warn("dropping invalid record", "key", key, "error", err)
			continue
		}
		kept = append(kept, items[i])
	}
	return kept, len(kept) != len(items)
}

// enforceReferences drops duplicate ids, duplicate emails, vendors whose user
// is missing or not a vendor, and apps whose vendor is missing. It returns the
// keys of the collections it modified.
func enforceReferences(d *Dataset) map[string]bool {
	changed := make(map[string]bool)

	users := d.Users[:0]
	userByID := make(map[string]models.User)
	emails := make(map[string]bool)
	for _, u := range d.Users {
		email := models.NormalizeEmail(u.Email)
		if _, dup := userByID[u.ID]; dup || emails[email] {
			slog.Warn("dropping duplicate user", "id", u.ID, "email", u.Email)
			changed[KeyUsers] = true
			continue
		}
		userByID[u.ID] = u
		emails[email] = true
		users = append(users, u)
	}
	d.Users = users

	vendors := d.Vendors[:0]
	vendorByID := make(map[string]models.Vendor)
	for _, v := range d.Vendors {
		u, ok := userByID[v.UserID]
		if _, dup := vendorByID[v.ID]; dup || !ok || u.Role != models.RoleVendor {
			slog.Warn("dropping vendor with duplicate id or invalid user", "id", v.ID, "user_id", v.UserID)
			changed[KeyVendors] = true
			continue
		}
		vendorByID[v.ID] = v
		vendors = append(vendors, v)
	}
	d.Vendors = vendors

	apps := d.Apps[:0]
	appIDs := make(map[string]bool)
	for _, a := range d.Apps {
		if _, ok := vendorByID[a.VendorID]; !ok || appIDs[a.ID] {
			slog.Warn("dropping app with duplicate id or unknown vendor", "id", a.ID, "vendor_id", a.VendorID)
			changed[KeyApps] = true
			continue
		}
		appIDs[a.ID] = true
		apps = append(apps, a)
	}
	d.Apps = apps

	return changed
}

func (s *Store) encode(key string) ([]byte, error) {
	var v any
	switch key {
	case KeyApps:
		v = s.data.Apps
	case KeyVendors:
		v = s.data.Vendors
	case KeyUsers:
		v = s.data.Users
	case KeyStories:
		v = s.data.Stories
	default:
		return nil, fmt.Errorf("unknown collection key %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	// Keep empty collections as [] rather than null.
	if string(b) == "null" {
		b = []byte("[]")
	}
	return b, nil
}

// persist writes full snapshots of the given collections. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, keys ...string) error {
	entries := make(map[string][]byte, len(keys))
	for _, k := range keys {
		b, err := s.encode(k)
		if err != nil {
			return err
		}
		entries[k] = b
	}
	if len(entries) == 1 {
		for k, v := range entries {
			return s.backend.Put(ctx, k, v)
		}
	}
	return s.backend.PutMany(ctx, entries)
}

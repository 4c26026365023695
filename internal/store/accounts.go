package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Registration is the vendor sign-up form.
type Registration struct {
	Name         string
	Email        string
	Password     string
	BusinessName string
	Bio          string
	Logo         string
	Website      string
	Subscription models.Tier
}

// VendorPatch carries the editable vendor profile fields.
type VendorPatch struct {
	BusinessName *string
	Logo         *string
	Bio          *string
	Website      *string
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.data.Users...)
}

func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// FindUser returns the first user with role and, when email is non-empty, a
// matching email.
func (s *Store) FindUser(role models.Role, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = models.NormalizeEmail(email)
	for _, u := range s.data.Users {
		if u.Role != role {
			continue
		}
		if email == "" || models.NormalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("%s user: %w", role, ErrNotFound)
}

// Authenticate looks a user up by email and password.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.RLock()
	u, ok := s.userByEmail(email)
	s.mu.RUnlock()
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) Vendors() []models.Vendor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Vendor(nil), s.data.Vendors...)
}

func (s *Store) Vendor(id string) (models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.vendorIndex(id)
	if i < 0 {
		return models.Vendor{}, fmt.Errorf("vendor %s: %w", id, ErrNotFound)
	}
	return s.data.Vendors[i], nil
}

func (s *Store) VendorByUser(userID string) (models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.data.Vendors {
		if v.UserID == userID {
			return v, nil
		}
	}
	return models.Vendor{}, fmt.Errorf("vendor for user %s: %w", userID, ErrNotFound)
}

// RegisterVendor creates a vendor user and its vendor profile. Both
// collections are written in one PutMany; on failure neither record is kept.
func (s *Store) RegisterVendor(ctx context.Context, r Registration) (models.User, models.Vendor, error) {
	if r.Subscription == "" {
		r.Subscription = models.TierStandard
	}
	if !r.Subscription.Valid() {
		return models.User{}, models.Vendor{}, fmt.Errorf("%w: %q", ErrInvalidTier, r.Subscription)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, models.Vendor{}, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.userByEmail(r.Email); taken {
		return models.User{}, models.Vendor{}, ErrEmailTaken
	}

	user := models.User{
		ID:       nextID(s.data.Users, func(u models.User) string { return u.ID }),
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: string(hash),
		Role:     models.RoleVendor,
	}
	vendor := models.Vendor{
		ID:           nextID(s.data.Vendors, func(v models.Vendor) string { return v.ID }),
		UserID:       user.ID,
		BusinessName: strings.TrimSpace(r.BusinessName),
		Logo:         r.Logo,
		Bio:          r.Bio,
		Website:      r.Website,
		Subscription: r.Subscription,
		JoinedAt:     s.now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return models.User{}, models.Vendor{}, err
	}
	if err := vendor.Validate(); err != nil {
		return models.User{}, models.Vendor{}, err
	}

	prevUsers, prevVendors := s.data.Users, s.data.Vendors
	s.data.Users = append(append([]models.User(nil), prevUsers...), user)
	s.data.Vendors = append(append([]models.Vendor(nil), prevVendors...), vendor)
	if err := s.persist(ctx, KeyUsers, KeyVendors); err != nil {
		s.data.Users, s.data.Vendors = prevUsers, prevVendors
		return models.User{}, models.Vendor{}, err
	}
	s.publish(Event{Collection: KeyUsers, Op: OpCreated, ID: user.ID})
	s.publish(Event{Collection: KeyVendors, Op: OpCreated, ID: vendor.ID})
	return user, vendor, nil
}

// UpdateVendorSubscription changes the vendor's tier. Existing apps above the
// standard quota are kept; only new uploads are refused.
func (s *Store) UpdateVendorSubscription(ctx context.Context, vendorID string, tier models.Tier) (models.Vendor, error) {
	if !tier.Valid() {
		return models.Vendor{}, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return s.mutateVendor(ctx, vendorID, func(v *models.Vendor) bool {
		v.Subscription = tier
		return false
	})
}

// UpdateVendorProfile edits the profile. A new business name is copied to
// the denormalised vendorName of the vendor's apps.
func (s *Store) UpdateVendorProfile(ctx context.Context, vendorID string, p VendorPatch) (models.Vendor, error) {
	return s.mutateVendor(ctx, vendorID, func(v *models.Vendor) bool {
		renamed := false
		if p.BusinessName != nil && strings.TrimSpace(*p.BusinessName) != v.BusinessName {
			v.BusinessName = strings.TrimSpace(*p.BusinessName)
			renamed = true
		}
		if p.Logo != nil {
			v.Logo = *p.Logo
		}
		if p.Bio != nil {
			v.Bio = *p.Bio
		}
		if p.Website != nil {
			v.Website = *p.Website
		}
		return renamed
	})
}

func (s *Store) mutateVendor(ctx context.Context, vendorID string, fn func(*models.Vendor) (renamed bool)) (models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.vendorIndex(vendorID)
	if i < 0 {
		return models.Vendor{}, fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	prev := s.data.Vendors[i]
	updated := prev
	renamed := fn(&updated)
	if err := updated.Validate(); err != nil {
		return models.Vendor{}, err
	}

	prevApps := s.data.Apps
	s.data.Vendors[i] = updated
	keys := []string{KeyVendors}
	if renamed {
		apps := make([]models.App, len(prevApps))
		for j, a := range prevApps {
			if a.VendorID == vendorID {
				a.VendorName = updated.BusinessName
			}
			apps[j] = a
		}
		s.data.Apps = apps
		keys = append(keys, KeyApps)
	}
	if err := s.persist(ctx, keys...); err != nil {
		s.data.Vendors[i] = prev
		s.data.Apps = prevApps
		return models.Vendor{}, err
	}
	s.publish(Event{Collection: KeyVendors, Op: OpUpdated, ID: vendorID})
	return updated, nil
}

func (s *Store) userByEmail(email string) (models.User, bool) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return models.User{}, false
	}
	for _, u := range s.data.Users {
		if models.NormalizeEmail(u.Email) == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) vendorIndex(id string) int {
	for i := range s.data.Vendors {
		if s.data.Vendors[i].ID == id {
			return i
		}
	}
	return -1
}

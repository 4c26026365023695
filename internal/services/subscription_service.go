package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
)

// SubscriptionService keeps vendor tiers in sync with the billing provider.
// No payment is processed here.
type SubscriptionService struct {
	store         *store.Store
	sessions      *session.Manager
	entitlementID string
}

func NewSubscriptionService(st *store.Store, sessions *session.Manager, entitlementID string) *SubscriptionService {
	return &SubscriptionService{store: st, sessions: sessions, entitlementID: entitlementID}
}

// ChangeTier sets the vendor's tier. Downgrading keeps existing apps but
// blocks uploads beyond the standard quota.
func (s *SubscriptionService) ChangeTier(ctx context.Context, vendorID string, tier models.Tier) (models.Vendor, error) {
	vendor, err := s.store.UpdateVendorSubscription(ctx, vendorID, tier)
	if err != nil {
		return models.Vendor{}, err
	}
	s.sessions.SyncVendor(ctx, vendor)
	slog.Info("vendor tier changed", "vendor_id", vendorID, "tier", tier)
	return vendor, nil
}

// HandleWebhookEvent maps a billing event for the vendor in AppUserID to a
// tier change. Unknown vendors are logged and acknowledged.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *dto.RevenueCatEvent) error {
	var tier models.Tier
	switch event.Type {
	case "INITIAL_PURCHASE", "RENEWAL", "UNCANCELLATION", "PRODUCT_CHANGE":
		if !s.grantsPremium(event) {
			return nil
		}
		tier = models.TierPremium
	case "EXPIRATION":
		tier = models.TierStandard
	case "CANCELLATION":
		// Access lasts until the period ends; EXPIRATION downgrades.
		slog.Info("subscription cancelled", "vendor_id", event.AppUserID, "expires_at_ms", event.ExpirationAtMs)
		return nil
	default:
		return nil
	}

	vendor, err := s.store.Vendor(event.AppUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Warn("webhook for unknown vendor", "vendor_id", event.AppUserID, "event_type", event.Type)
			return nil
		}
		return err
	}
	if vendor.Subscription == tier {
		return nil
	}
	if _, err := s.ChangeTier(ctx, vendor.ID, tier); err != nil {
		return fmt.Errorf("failed to apply %s for vendor %s: %w", event.Type, vendor.ID, err)
	}
	return nil
}

func (s *SubscriptionService) grantsPremium(event *dto.RevenueCatEvent) bool {
	if len(event.EntitlementIDs) == 0 || s.entitlementID == "" {
		return true
	}
	return slices.Contains(event.EntitlementIDs, s.entitlementID)
}

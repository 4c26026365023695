package services

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
)

type VendorService struct {
	store    *store.Store
	sessions *session.Manager
}

func NewVendorService(st *store.Store, sessions *session.Manager) *VendorService {
	return &VendorService{store: st, sessions: sessions}
}

func (s *VendorService) Dashboard(vendorID string) (*dto.DashboardResponse, error) {
	vendor, err := s.store.Vendor(vendorID)
	if err != nil {
		return nil, err
	}
	apps := views.SortByCreatedDesc(views.VendorApps(s.store.Apps(), vendorID))
	return &dto.DashboardResponse{
		Vendor: vendor,
		Stats:  views.StatsForVendor(apps, vendorID),
		Quota:  dto.QuotaResponse{Used: len(apps), Limit: vendor.Subscription.Quota()},
		Apps:   dto.NewAppResponses(apps),
	}, nil
}

// PublicPage is the storefront view of a vendor: profile and approved apps.
func (s *VendorService) PublicPage(vendorID string, matureUnlocked bool) (*dto.VendorPageResponse, error) {
	vendor, err := s.store.Vendor(vendorID)
	if err != nil {
		return nil, err
	}
	apps := views.FilterStorefront(views.VendorApps(s.store.Apps(), vendorID), views.Filter{MatureUnlocked: matureUnlocked})
	return &dto.VendorPageResponse{Vendor: vendor, Apps: dto.NewAppResponses(views.SortByDownloadsDesc(apps))}, nil
}

func (s *VendorService) UpdateProfile(ctx context.Context, vendorID string, req *dto.VendorProfileRequest) (*dto.VendorPageResponse, error) {
	var v ValidationError
	if req.BusinessName != nil && strings.TrimSpace(*req.BusinessName) == "" {
		v.Add("businessName", "Business name cannot be empty")
	}
	if req.Website != nil && *req.Website != "" && !isHTTPURL(*req.Website) {
		v.Add("website", "Must be an http(s) URL")
	}
	if req.Logo != nil {
		checkImage(&v, "logo", *req.Logo, MaxIconBytes)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	vendor, err := s.store.UpdateVendorProfile(ctx, vendorID, store.VendorPatch{
		BusinessName: req.BusinessName,
		Logo:         req.Logo,
		Bio:          req.Bio,
		Website:      req.Website,
	})
	if err != nil {
		return nil, err
	}
	s.sessions.SyncVendor(ctx, vendor)
	return &dto.VendorPageResponse{
		Vendor: vendor,
		Apps:   dto.NewAppResponses(views.VendorApps(s.store.Apps(), vendorID)),
	}, nil
}

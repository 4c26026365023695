package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
)

// Limits on listing fields and inline images.
const (
	MaxNameLength             = 60
	MaxShortDescriptionLength = 120
	MaxDescriptionLength      = 4000
	MaxTags                   = 10
	MaxScreenshots            = 8
	MaxIconBytes              = 1 << 20
	MaxScreenshotBytes        = 5 << 20
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// InstallStatus is the terminal state reported for every download.
const InstallStatus = "installed"

type AppService struct {
	store      *store.Store
	catalog    *catalog.Registry
	moderation *ModerationService
	downloader delivery.Downloader
	latency    time.Duration
	now        func() time.Time
}

func NewAppService(st *store.Store, cat *catalog.Registry, moderation *ModerationService, downloader delivery.Downloader, latency time.Duration) *AppService {
	return &AppService{
		store:      st,
		catalog:    cat,
		moderation: moderation,
		downloader: downloader,
		latency:    latency,
		now:        time.Now,
	}
}

// Storefront lists the public apps matching f, ordered by sortBy. Browsing
// the mature category needs the age gate.
func (s *AppService) Storefront(f views.Filter, sortBy string) ([]models.App, error) {
	if strings.EqualFold(strings.TrimSpace(f.Category), catalog.Mature) && !f.MatureUnlocked {
		return nil, ErrAgeGateRequired
	}
	return views.Sort(views.FilterStorefront(s.store.Apps(), f), sortBy), nil
}

// Chart returns one of the named storefront charts.
func (s *AppService) Chart(name string, matureUnlocked bool, n int) ([]models.App, error) {
	public := views.FilterStorefront(s.store.Apps(), views.Filter{MatureUnlocked: matureUnlocked})
	switch name {
	case "trending":
		return views.Trending(public, s.now(), 7, n), nil
	case "top-free":
		return views.TopFree(public, n), nil
	case "top-paid":
		return views.TopPaid(public, n), nil
	case "top-rated":
		return top(views.SortByRatingDesc(public), n), nil
	case "new":
		return top(views.SortByCreatedDesc(public), n), nil
	}
	return nil, fmt.Errorf("chart %q: %w", name, store.ErrNotFound)
}

func top(apps []models.App, n int) []models.App {
	if n > 0 && len(apps) > n {
		return apps[:n]
	}
	return apps
}

// Categories returns the catalog with a per-category count of approved apps.
// Mature apps are only counted once the age gate is confirmed.
func (s *AppService) Categories(matureUnlocked bool) []dto.CategoryResponse {
	apps := s.store.Apps()
	if !matureUnlocked {
		apps = views.FilterStorefront(apps, views.Filter{})
	}
	var out []dto.CategoryResponse
	for _, c := range s.catalog.All() {
		if c.Mature && !matureUnlocked {
			continue
		}
		out = append(out, dto.CategoryResponse{
			ID:     c.ID,
			Name:   c.Name,
			Icon:   c.Icon,
			Mature: c.Mature,
			Count:  views.CountByCategory(c.ID, apps),
		})
	}
	return out
}

// Get returns an app as sess may see it. Unapproved apps are visible to
// their vendor and to admins only; mature apps need the age gate.
func (s *AppService) Get(sess *session.Session, id string) (models.App, error) {
	app, err := s.store.App(id)
	if err != nil {
		return models.App{}, err
	}
	if err := checkVisible(sess, app); err != nil {
		return models.App{}, err
	}
	return app, nil
}

// checkVisible applies the storefront rules to one app. Admins and the
// owning vendor see everything; others see approved apps, mature ones only
// once the age gate is confirmed.
func checkVisible(sess *session.Session, app models.App) error {
	privileged := sess != nil && (sess.HasRole(models.RoleAdmin) ||
		(sess.HasRole(models.RoleVendor) && sess.VendorID == app.VendorID))
	if privileged {
		return nil
	}
	if app.Status != models.StatusApproved {
		return fmt.Errorf("app %s: %w", app.ID, store.ErrNotFound)
	}
	if app.IsMature && (sess == nil || !sess.MatureUnlocked) {
		return ErrAgeGateRequired
	}
	return nil
}

// DownloadResult is returned for every download attempt. Package is nil
// when the fetch failed and the client should follow FallbackURL.
type DownloadResult struct {
	App         models.App
	Package     *delivery.Download
	FallbackURL string
	Status      string
}

// Download fetches the app package and records the download. A failed fetch
// degrades to the direct link; the result always reports installed.
// Unapproved apps, which only their vendor and admins can reach, are never
// fetched server-side or counted; the caller gets the direct link.
func (s *AppService) Download(ctx context.Context, sess *session.Session, id string) (*DownloadResult, error) {
	app, err := s.Get(sess, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved {
		return &DownloadResult{App: app, FallbackURL: app.PackageURL, Status: InstallStatus}, nil
	}

	var last int64
	pkg, err := s.downloader.Fetch(ctx, app.PackageURL, func(received, total int64) {
		metrics.AddDownloadBytes(received - last)
		last = received
	})
	result := &DownloadResult{Status: InstallStatus}
	if err != nil {
		slog.Warn("package fetch failed, falling back to direct link",
			"app_id", app.ID,
			"url", app.PackageURL,
			"error", err,
		)
		result.FallbackURL = app.PackageURL
	} else {
		result.Package = pkg
	}
	metrics.RecordDownload(result.Package == nil)

	updated, err := s.store.IncrementDownloads(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	result.App = updated
	return result, nil
}

// VendorApps lists every app owned by vendorID regardless of status.
func (s *AppService) VendorApps(vendorID string) []models.App {
	return views.SortByCreatedDesc(views.VendorApps(s.store.Apps(), vendorID))
}

// Upload validates and submits a new listing. It enters the queue as
// pending.
func (s *AppService) Upload(ctx context.Context, vendorID string, req *dto.AppUploadRequest) (models.App, error) {
	var v ValidationError
	s.checkText(&v, "name", req.Name, MaxNameLength, true)
	s.checkText(&v, "shortDescription", req.ShortDescription, MaxShortDescriptionLength, true)
	s.checkText(&v, "description", req.Description, MaxDescriptionLength, false)
	s.checkCategory(&v, req.Category)
	checkPrice(&v, req.Price)
	checkTags(&v, req.Tags)
	checkImage(&v, "icon", req.Icon, MaxIconBytes)
	checkScreenshots(&v, req.Screenshots)
	checkPackageURL(&v, req.PackageURL)
	if strings.TrimSpace(req.Version) == "" {
		v.Add("version", "Version is required")
	}
	if err := v.Err(); err != nil {
		return models.App{}, err
	}

	if err := delivery.Sleep(ctx, s.latency); err != nil {
		return models.App{}, err
	}

	app, err := s.store.AddApp(ctx, models.App{
		VendorID:         vendorID,
		Name:             strings.TrimSpace(req.Name),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Description:      req.Description,
		Category:         strings.ToLower(strings.TrimSpace(req.Category)),
		Price:            req.Price,
		IsMature:         req.IsMature,
		Tags:             req.Tags,
		Icon:             req.Icon,
		Screenshots:      req.Screenshots,
		PackageURL:       req.PackageURL,
		Version:          strings.TrimSpace(req.Version),
		Size:             req.Size,
	})
	if err != nil {
		return models.App{}, err
	}
	slog.Info("app submitted", "app_id", app.ID, "vendor_id", vendorID)
	return app, nil
}

// Update edits a listing owned by vendorID and sends it back to review.
func (s *AppService) Update(ctx context.Context, vendorID, appID string, req *dto.AppUpdateRequest) (models.App, error) {
	if err := s.checkOwner(vendorID, appID); err != nil {
		return models.App{}, err
	}

	var v ValidationError
	if req.Name != nil {
		s.checkText(&v, "name", *req.Name, MaxNameLength, true)
	}
	if req.ShortDescription != nil {
		s.checkText(&v, "shortDescription", *req.ShortDescription, MaxShortDescriptionLength, true)
	}
	if req.Description != nil {
		s.checkText(&v, "description", *req.Description, MaxDescriptionLength, false)
	}
	if req.Category != nil {
		s.checkCategory(&v, *req.Category)
		lower := strings.ToLower(strings.TrimSpace(*req.Category))
		req.Category = &lower
	}
	if req.Price != nil {
		checkPrice(&v, *req.Price)
	}
	if req.Tags != nil {
		checkTags(&v, req.Tags)
	}
	if req.Icon != nil {
		checkImage(&v, "icon", *req.Icon, MaxIconBytes)
	}
	if req.Screenshots != nil {
		checkScreenshots(&v, req.Screenshots)
	}
	if req.PackageURL != nil {
		checkPackageURL(&v, *req.PackageURL)
	}
	if req.Version != nil && strings.TrimSpace(*req.Version) == "" {
		v.Add("version", "Version cannot be empty")
	}
	if err := v.Err(); err != nil {
		return models.App{}, err
	}

	if err := delivery.Sleep(ctx, s.latency); err != nil {
		return models.App{}, err
	}

	return s.store.UpdateApp(ctx, appID, store.AppPatch{
		Name:             req.Name,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Category:         req.Category,
		Price:            req.Price,
		IsMature:         req.IsMature,
		Tags:             req.Tags,
		Icon:             req.Icon,
		Screenshots:      req.Screenshots,
		PackageURL:       req.PackageURL,
		Version:          req.Version,
		Size:             req.Size,
		ReleaseNotes:     req.ReleaseNotes,
	})
}

// Delete removes a listing owned by vendorID.
func (s *AppService) Delete(ctx context.Context, vendorID, appID string) error {
	if err := s.checkOwner(vendorID, appID); err != nil {
		return err
	}
	if err := s.store.DeleteApp(ctx, appID); err != nil {
		return err
	}
	slog.Info("app deleted", "app_id", appID, "vendor_id", vendorID)
	return nil
}

func (s *AppService) checkOwner(vendorID, appID string) error {
	app, err := s.store.App(appID)
	if err != nil {
		return err
	}
	if app.VendorID != vendorID {
		return ErrUnauthorized
	}
	return nil
}

func (s *AppService) checkText(v *ValidationError, field, text string, max int, required bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		if required {
			v.Add(field, "This field is required")
		}
		return
	}
	if len([]rune(text)) > max {
		v.Add(field, fmt.Sprintf("Must be at most %d characters", max))
		return
	}
	if ok, reason := s.moderation.FilterContent(text); !ok {
		v.Add(field, s.moderation.RejectionMessage(reason))
	}
}

func (s *AppService) checkCategory(v *ValidationError, category string) {
	if strings.TrimSpace(category) == "" {
		v.Add("category", "Category is required")
		return
	}
	if !s.catalog.Assignable(category) {
		v.Add("category", "Unknown category")
	}
}

func checkPrice(v *ValidationError, p models.Price) {
	if p.Amount < 0 {
		v.Add("price", "Price cannot be negative")
	}
}

func checkTags(v *ValidationError, tags []string) {
	if len(tags) > MaxTags {
		v.Add("tags", fmt.Sprintf("At most %d tags", MaxTags))
	}
}

func checkScreenshots(v *ValidationError, shots []string) {
	if len(shots) > MaxScreenshots {
		v.Add("screenshots", fmt.Sprintf("At most %d screenshots", MaxScreenshots))
		return
	}
	for _, shot := range shots {
		checkImage(v, "screenshots", shot, MaxScreenshotBytes)
	}
}

// checkImage accepts an http(s) URL or a base64 data URI of an allowed image
// type within maxBytes.
func checkImage(v *ValidationError, field, ref string, maxBytes int) {
	if ref == "" {
		return
	}
	if strings.HasPrefix(ref, "data:") {
		mime, payload, ok := parseDataURI(ref)
		switch {
		case !ok:
			v.Add(field, "Malformed data URI")
		case !allowedImageTypes[mime]:
			v.Add(field, "Images must be PNG, JPEG, WebP or GIF")
		case base64.StdEncoding.DecodedLen(len(payload)) > maxBytes:
			v.Add(field, fmt.Sprintf("Images must be at most %d KB", maxBytes>>10))
		}
		return
	}
	if !isHTTPURL(ref) {
		v.Add(field, "Must be an http(s) URL or a data URI")
	}
}

func checkPackageURL(v *ValidationError, ref string) {
	if ref != "" && !isHTTPURL(ref) {
		v.Add("packageUrl", "Must be an http(s) URL")
	}
}

func parseDataURI(ref string) (mime, payload string, ok bool) {
	header, payload, found := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSuffix(header, ";base64")), payload, true
}

func isHTTPURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

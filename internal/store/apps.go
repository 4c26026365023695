package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

// AppPatch carries the vendor-editable fields of an app. Nil fields are
// left unchanged.
type AppPatch struct {
	Name             *string
	ShortDescription *string
	Description      *string
	Category         *string
	Price            *models.Price
	IsMature         *bool
	Tags             []string
	Icon             *string
	Screenshots      []string
	PackageURL       *string
	Version          *string
	Size             *string
	ReleaseNotes     string
}

func (s *Store) Apps() []models.App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.App, len(s.data.Apps))
	for i, a := range s.data.Apps {
		out[i] = a.Clone()
	}
	return out
}

func (s *Store) App(id string) (models.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.appIndex(id)
	if i < 0 {
		return models.App{}, fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	return s.data.Apps[i].Clone(), nil
}

// AppCount returns how many apps are attributed to vendorID.
func (s *Store) AppCount(vendorID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appCount(vendorID)
}

// AddApp assigns the next numeric id and appends draft as a pending listing
// with zeroed engagement. Standard vendors are limited to
// models.StandardAppQuota listings.
func (s *Store) AddApp(ctx context.Context, draft models.App) (models.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vi := s.vendorIndex(draft.VendorID)
	if vi < 0 {
		return models.App{}, fmt.Errorf("vendor %s: %w", draft.VendorID, ErrNotFound)
	}
	vendor := s.data.Vendors[vi]
	if quota := vendor.Subscription.Quota(); quota > 0 && s.appCount(vendor.ID) >= quota {
		return models.App{}, ErrQuotaExceeded
	}

	now := s.now().UTC()
	app := draft.Clone()
	app.ID = s.nextAppID()
	app.VendorName = vendor.BusinessName
	app.Status = models.StatusPending
	app.Rating = 0
	app.ReviewCount = 0
	app.Metrics = models.Metrics{}
	app.DownloadHistory = nil
	app.VersionHistory = nil
	if app.Version != "" {
		app.VersionHistory = []models.VersionEntry{{Version: app.Version, Date: now, Notes: "Initial release"}}
	}
	app.CreatedAt = now
	app.UpdatedAt = now
	if err := app.Validate(); err != nil {
		return models.App{}, err
	}

	prev := s.data.Apps
	s.data.Apps = append(append([]models.App(nil), prev...), app)
	if err := s.persist(ctx, KeyApps); err != nil {
		s.data.Apps = prev
		return models.App{}, err
	}
	s.publish(Event{Collection: KeyApps, Op: OpCreated, ID: app.ID})
	return app.Clone(), nil
}

// UpdateApp merges patch into the app, sends it back to review and stamps
// UpdatedAt. Engagement, rating and download history are never touched.
func (s *Store) UpdateApp(ctx context.Context, id string, patch AppPatch) (models.App, error) {
	return s.mutateApp(ctx, id, func(a *models.App, now time.Time) error {
		applyPatch(a, patch, now)
		a.Status = models.StatusReview
		a.UpdatedAt = now
		return a.Validate()
	})
}

// UpdateAppStatus sets the moderation status. Any status may move to any
// other; no history is kept.
func (s *Store) UpdateAppStatus(ctx context.Context, id string, status models.Status) (models.App, error) {
	if !status.Valid() {
		return models.App{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.mutateApp(ctx, id, func(a *models.App, _ time.Time) error {
		a.Status = status
		return nil
	})
}

// IncrementDownloads records one download: the download and active-user
// counters grow by one and today's history bucket accumulates.
func (s *Store) IncrementDownloads(ctx context.Context, id string) (models.App, error) {
	return s.mutateApp(ctx, id, func(a *models.App, now time.Time) error {
		a.Metrics.Downloads++
		a.Metrics.ActiveUsers++
		today := now.Format(dayLayout)
		if n := len(a.DownloadHistory); n > 0 && a.DownloadHistory[n-1].Date == today {
			a.DownloadHistory[n-1].Count++
		} else {
			a.DownloadHistory = append(a.DownloadHistory, models.DownloadBucket{Date: today, Count: 1})
		}
		if n := len(a.DownloadHistory); n > maxDownloadBuckets {
			a.DownloadHistory = a.DownloadHistory[n-maxDownloadBuckets:]
		}
		return nil
	})
}

// DeleteApp removes the app. Stories pointing at it are left in place.
func (s *Store) DeleteApp(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(id)
	if i < 0 {
		return fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	prev := s.data.Apps
	next := make([]models.App, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	s.data.Apps = next
	if err := s.persist(ctx, KeyApps); err != nil {
		s.data.Apps = prev
		return err
	}
	s.publish(Event{Collection: KeyApps, Op: OpDeleted, ID: id})
	return nil
}

func (s *Store) mutateApp(ctx context.Context, id string, fn func(*models.App, time.Time) error) (models.App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.appIndex(id)
	if i < 0 {
		return models.App{}, fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	prev := s.data.Apps[i]
	updated := prev.Clone()
	now := s.now().UTC()
	if err := fn(&updated, now); err != nil {
		return models.App{}, err
	}

	s.data.Apps[i] = updated
	if err := s.persist(ctx, KeyApps); err != nil {
		s.data.Apps[i] = prev
		return models.App{}, err
	}
	s.publish(Event{Collection: KeyApps, Op: OpUpdated, ID: id})
	return updated.Clone(), nil
}

func applyPatch(a *models.App, p AppPatch, now time.Time) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setString(&a.Name, p.Name)
	setString(&a.ShortDescription, p.ShortDescription)
	setString(&a.Description, p.Description)
	setString(&a.Category, p.Category)
	setString(&a.Icon, p.Icon)
	setString(&a.PackageURL, p.PackageURL)
	setString(&a.Size, p.Size)
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.IsMature != nil {
		a.IsMature = *p.IsMature
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), p.Tags...)
	}
	if p.Screenshots != nil {
		a.Screenshots = append([]string(nil), p.Screenshots...)
	}
	if p.Version != nil && *p.Version != "" && *p.Version != a.Version {
		if len(a.VersionHistory) == 0 && a.Version != "" {
			a.VersionHistory = []models.VersionEntry{{Version: a.Version, Date: a.UpdatedAt}}
		}
		entry := models.VersionEntry{Version: *p.Version, Date: now, Notes: p.ReleaseNotes}
		a.VersionHistory = append([]models.VersionEntry{entry}, a.VersionHistory...)
		a.Version = *p.Version
	}
}

func (s *Store) appIndex(id string) int {
	for i := range s.data.Apps {
		if s.data.Apps[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) appCount(vendorID string) int {
	n := 0
	for i := range s.data.Apps {
		if s.data.Apps[i].VendorID == vendorID {
			n++
		}
	}
	return n
}

// nextAppID counts story references too, so a deleted app's id is never
// handed to a new app while a story still points at it.
func (s *Store) nextAppID() string {
	ids := make([]string, 0, len(s.data.Apps)+len(s.data.Stories))
	for _, a := range s.data.Apps {
		ids = append(ids, a.ID)
	}
	for _, st := range s.data.Stories {
		ids = append(ids, st.AppID)
	}
	return nextID(ids, func(id string) string { return id })
}

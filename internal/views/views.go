// Package views holds pure projections over app collections. None of the
// functions modify their input.
package views

import (
	"sort"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/catalog"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

// Filter is the storefront search state.
type Filter struct {
	Category       string
	Query          string
	MatureUnlocked bool
}

func where(apps []models.App, keep func(*models.App) bool) []models.App {
	out := make([]models.App, 0, len(apps))
	for i := range apps {
		if keep(&apps[i]) {
			out = append(out, apps[i])
		}
	}
	return out
}

// PublicApps returns approved apps.
func PublicApps(apps []models.App) []models.App {
	return where(apps, func(a *models.App) bool { return a.Status == models.StatusApproved })
}

// PendingApps returns apps with status pending.
func PendingApps(apps []models.App) []models.App {
	return ByStatus(apps, models.StatusPending)
}

// AwaitingReview returns new uploads and edited apps, the admin queue.
func AwaitingReview(apps []models.App) []models.App {
	return where(apps, func(a *models.App) bool {
		return a.Status == models.StatusPending || a.Status == models.StatusReview
	})
}

func ByStatus(apps []models.App, status models.Status) []models.App {
	return where(apps, func(a *models.App) bool { return a.Status == status })
}

func VendorApps(apps []models.App, vendorID string) []models.App {
	return where(apps, func(a *models.App) bool { return a.VendorID == vendorID })
}

// MatchesCategory applies the storefront category rule: "all" is every
// approved app, "mature" the approved mature ones, anything else compares
// the free-text category case-insensitively among approved apps.
func MatchesCategory(a *models.App, categoryID string) bool {
	if a.Status != models.StatusApproved {
		return false
	}
	switch id := strings.TrimSpace(categoryID); {
	case id == "" || strings.EqualFold(id, catalog.All):
		return true
	case strings.EqualFold(id, catalog.Mature):
		return a.IsMature
	default:
		return strings.EqualFold(strings.TrimSpace(a.Category), id)
	}
}

func CountByCategory(categoryID string, apps []models.App) int {
	n := 0
	for i := range apps {
		if MatchesCategory(&apps[i], categoryID) {
			n++
		}
	}
	return n
}

// FilterStorefront keeps apps matching the category, containing the query in
// name, vendor name, a tag or the category, and hides mature apps unless the
// age gate was confirmed or the mature category itself is browsed.
func FilterStorefront(apps []models.App, f Filter) []models.App {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	matureCategory := strings.EqualFold(strings.TrimSpace(f.Category), catalog.Mature)
	return where(apps, func(a *models.App) bool {
		if !MatchesCategory(a, f.Category) {
			return false
		}
		if query != "" && !matchesQuery(a, query) {
			return false
		}
		return !a.IsMature || f.MatureUnlocked || matureCategory
	})
}

func matchesQuery(a *models.App, query string) bool {
	if strings.Contains(strings.ToLower(a.Name), query) ||
		strings.Contains(strings.ToLower(a.VendorName), query) ||
		strings.Contains(strings.ToLower(a.Category), query) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func sortedCopy(apps []models.App, less func(a, b *models.App) bool) []models.App {
	out := append([]models.App(nil), apps...)
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// SortByDownloadsDesc orders by downloads; ties keep input order.
func SortByDownloadsDesc(apps []models.App) []models.App {
	return sortedCopy(apps, func(a, b *models.App) bool { return a.Metrics.Downloads > b.Metrics.Downloads })
}

// SortByRatingDesc orders by rating; ties keep input order.
func SortByRatingDesc(apps []models.App) []models.App {
	return sortedCopy(apps, func(a, b *models.App) bool { return a.Rating > b.Rating })
}

// SortByCreatedDesc orders newest first; ties keep input order.
func SortByCreatedDesc(apps []models.App) []models.App {
	return sortedCopy(apps, func(a, b *models.App) bool { return a.CreatedAt.After(b.CreatedAt) })
}

// Sort applies a named order: downloads, rating or newest. Unknown names
// return the input order.
func Sort(apps []models.App, by string) []models.App {
	switch by {
	case "downloads", "popular":
		return SortByDownloadsDesc(apps)
	case "rating":
		return SortByRatingDesc(apps)
	case "newest":
		return SortByCreatedDesc(apps)
	default:
		return append([]models.App(nil), apps...)
	}
}

func limit(apps []models.App, n int) []models.App {
	if n > 0 && len(apps) > n {
		return apps[:n]
	}
	return apps
}

// RecentDownloads sums the history buckets dated within days of now,
// today included.
func RecentDownloads(a *models.App, now time.Time, days int) int64 {
	cutoff := now.UTC().AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	var total int64
	for _, b := range a.DownloadHistory {
		if b.Date >= cutoff {
			total += int64(b.Count)
		}
	}
	return total
}

// Trending ranks apps by downloads over the last days. Apps without recent
// downloads are left out.
func Trending(apps []models.App, now time.Time, days, n int) []models.App {
	recent := make(map[string]int64, len(apps))
	active := where(apps, func(a *models.App) bool {
		recent[a.ID] = RecentDownloads(a, now, days)
		return recent[a.ID] > 0
	})
	return limit(sortedCopy(active, func(a, b *models.App) bool { return recent[a.ID] > recent[b.ID] }), n)
}

func TopFree(apps []models.App, n int) []models.App {
	return limit(SortByDownloadsDesc(where(apps, func(a *models.App) bool { return a.Price.IsFree() })), n)
}

func TopPaid(apps []models.App, n int) []models.App {
	return limit(SortByDownloadsDesc(where(apps, func(a *models.App) bool { return !a.Price.IsFree() })), n)
}

// VendorStats is the vendor dashboard summary.
type VendorStats struct {
	Apps        int     `json:"apps"`
	Approved    int     `json:"approved"`
	InReview    int     `json:"inReview"`
	Rejected    int     `json:"rejected"`
	Downloads   int64   `json:"downloads"`
	ActiveUsers int64   `json:"activeUsers"`
	Views       int64   `json:"views"`
	Likes       int64   `json:"likes"`
	Revenue     float64 `json:"revenue"`
}

func StatsForVendor(apps []models.App, vendorID string) VendorStats {
	var s VendorStats
	for _, a := range VendorApps(apps, vendorID) {
		s.Apps++
		switch a.Status {
		case models.StatusApproved:
			s.Approved++
		case models.StatusRejected:
			s.Rejected++
		default:
			s.InReview++
		}
		s.Downloads += int64(a.Metrics.Downloads)
		s.ActiveUsers += int64(a.Metrics.ActiveUsers)
		s.Views += int64(a.Metrics.Views)
		s.Likes += int64(a.Metrics.Likes)
		s.Revenue += a.Metrics.Revenue
	}
	return s
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
)

// BannedWords are refused in listing text.
var BannedWords = []string{
	"fuck", "fucking", "shit", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "chink", "spic", "kike", "faggot",
	"retard", "tranny",
	"porn", "porno", "nudes",
	"scam", "scammer", "phishing", "malware", "keylogger", "warez",
}

const maxRepeatedRunes = 5

type ModerationService struct {
	store    *store.Store
	notifier *Notifier
	latency  time.Duration

	bannedWordRegexps []*regexp.Regexp
	allCapsPattern    *regexp.Regexp
}

func NewModerationService(st *store.Store, notifier *Notifier, latency time.Duration) *ModerationService {
	ms := &ModerationService{store: st, notifier: notifier, latency: latency}
	ms.bannedWordRegexps = make([]*regexp.Regexp, 0, len(BannedWords))
	for _, word := range BannedWords {
		ms.bannedWordRegexps = append(ms.bannedWordRegexps, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	ms.allCapsPattern = regexp.MustCompile(`\b[A-Z]{5,}\b`)
	return ms
}

// FilterContent screens listing text. It returns false and a reason code
// when the text is refused.
func (ms *ModerationService) FilterContent(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, re := range ms.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if hasRepeatedRun(text, maxRepeatedRunes) {
		return false, "spam_detected"
	}
	if len(ms.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, "excessive_caps"
	}
	return true, ""
}

func (ms *ModerationService) RejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language": "Contains language that is not allowed on the storefront.",
		"spam_detected":          "Looks like spam.",
		"excessive_caps":         "Please avoid excessive capital letters.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Does not meet the listing guidelines."
}

// hasRepeatedRun reports whether a non-space rune repeats more than max
// times in a row.
func hasRepeatedRun(text string, max int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev && r != ' ' {
			run++
			if run > max {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

// Queue returns the admin review queue: pending and re-submitted apps.
func (ms *ModerationService) Queue() []models.App {
	return views.AwaitingReview(ms.store.Apps())
}

// All returns every app, optionally narrowed to one status.
func (ms *ModerationService) All(status string) ([]models.App, error) {
	apps := ms.store.Apps()
	if status == "" {
		return apps, nil
	}
	st := models.Status(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidStatus, status)
	}
	return views.ByStatus(apps, st), nil
}

// SetStatus records an admin decision. Only approved and rejected may be
// set; the owning vendor is notified.
func (ms *ModerationService) SetStatus(ctx context.Context, appID string, status models.Status) (models.App, error) {
	if !status.Decision() {
		return models.App{}, fmt.Errorf("%w: admins may only approve or reject", store.ErrInvalidStatus)
	}
	if err := delivery.Sleep(ctx, ms.latency); err != nil {
		return models.App{}, err
	}

	app, err := ms.store.UpdateAppStatus(ctx, appID, status)
	if err != nil {
		return models.App{}, err
	}
	metrics.RecordDecision(status)
	slog.Info("app status changed", "app_id", app.ID, "status", status)

	ms.notifyVendor(app)
	return app, nil
}

func (ms *ModerationService) notifyVendor(app models.App) {
	vendor, err := ms.store.Vendor(app.VendorID)
	if err != nil {
		slog.Warn("decision mail skipped: vendor missing", "app_id", app.ID, "vendor_id", app.VendorID)
		return
	}
	user, err := ms.store.User(vendor.UserID)
	if err != nil {
		slog.Warn("decision mail skipped: user missing", "app_id", app.ID, "user_id", vendor.UserID)
		return
	}
	ms.notifier.Notify("decision", delivery.DecisionMessage(user, app))
}

package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DefaultCleanupSchedule runs the retention purge nightly at 03:00.
const DefaultCleanupSchedule = "0 3 * * *"

// StartCleanup schedules the system log purge. The caller stops the returned
// scheduler on shutdown.
func StartCleanup(db *gorm.DB, retention time.Duration, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		deleted, err := PurgeOlderThan(db, time.Now().Add(-retention))
		if err != nil {
			slog.Error("log cleanup failed", "component", "logging", "error", err)
			return
		}
		if deleted > 0 {
			slog.Info("log cleanup completed", "deleted", deleted)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// PurgeOlderThan deletes system logs written before cutoff.
func PurgeOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

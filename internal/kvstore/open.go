package kvstore

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"gorm.io/gorm"
)

// FromConfig returns the backend named by cfg.StoreDriver. The SQL drivers
// share db; redis dials cfg.RedisURL.
func FromConfig(ctx context.Context, cfg *config.Config, db *gorm.DB) (Backend, error) {
	switch cfg.StoreDriver {
	case "postgres", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%s backend needs a database connection", cfg.StoreDriver)
		}
		return NewGorm(db), nil
	case "redis":
		return DialRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

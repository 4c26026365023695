package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores entries in the kv_entries table of any GORM dialect.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.KVEntry
	err := g.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (g *Gorm) Put(ctx context.Context, key string, value []byte) error {
	return upsert(g.db.WithContext(ctx), key, value)
}

func (g *Gorm) PutMany(ctx context.Context, entries map[string][]byte) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range entries {
			if err := upsert(tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *Gorm) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.KVEntry{}).Error
}

// Close is a no-op; the connection pool belongs to the database package.
func (g *Gorm) Close() error { return nil }

func upsert(db *gorm.DB, key string, value []byte) error {
	entry := models.KVEntry{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

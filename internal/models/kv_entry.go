package models

import (
	"time"

	"gorm.io/datatypes"
)

// KVEntry is one key of the durable key/value store. Collections are stored
// as full JSON snapshots under fixed keys.
type KVEntry struct {
	Key       string         `gorm:"primaryKey;size:191" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

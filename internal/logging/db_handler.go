package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// DBHandler batches ERROR+ records into the system_logs table.
type DBHandler struct {
	db        *gorm.DB
	batchSize int
	attrs     []slog.Attr

	state *dbHandlerState
}

type dbHandlerState struct {
	mu     sync.Mutex
	buffer []models.SystemLog
	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewDBHandler(db *gorm.DB, flushInterval time.Duration) *DBHandler {
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	h := &DBHandler{
		db:        db,
		batchSize: defaultBatchSize,
		state: &dbHandlerState{
			buffer: make([]models.SystemLog, 0, defaultBatchSize),
			ticker: time.NewTicker(flushInterval),
			done:   make(chan struct{}),
		},
	}
	h.state.wg.Add(1)
	go h.flushLoop()
	return h
}

func (h *DBHandler) flushLoop() {
	defer h.state.wg.Done()
	for {
		select {
		case <-h.state.ticker.C:
			h.Flush()
		case <-h.state.done:
			h.Flush()
			return
		}
	}
}

// Flush writes the buffered records now.
func (h *DBHandler) Flush() {
	h.state.mu.Lock()
	if len(h.state.buffer) == 0 {
		h.state.mu.Unlock()
		return
	}
	batch := h.state.buffer
	h.state.buffer = make([]models.SystemLog, 0, h.batchSize)
	h.state.mu.Unlock()

	if err := h.db.CreateInBatches(batch, h.batchSize).Error; err != nil {
		// Logged below ERROR so it cannot loop back into this handler.
		slog.Warn("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and ends the flush loop.
func (h *DBHandler) Stop() {
	h.state.ticker.Stop()
	close(h.state.done)
	h.state.wg.Wait()
}

func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]any)
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "component":
			entry.Component = a.Value.String()
		case "request_id":
			entry.RequestID = a.Value.String()
		case "session_id":
			s := a.Value.String()
			entry.SessionID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		case "latency_ms":
			switch v := a.Value.Any().(type) {
			case float64:
				entry.LatencyMs = int(math.Round(v))
			case int64:
				entry.LatencyMs = int(v)
			}
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.state.mu.Lock()
	h.state.buffer = append(h.state.buffer, entry)
	needFlush := len(h.state.buffer) >= h.batchSize
	h.state.mu.Unlock()

	if needFlush {
		go h.Flush()
	}
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup is ignored; grouped attributes land in Extra under their own key.
func (h *DBHandler) WithGroup(string) slog.Handler {
	return h
}

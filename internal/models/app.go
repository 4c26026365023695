package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/compact"
)

// Status is the moderation lifecycle of an app listing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Decision reports whether s is one of the two statuses an admin can set.
func (s Status) Decision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Price is either a positive amount or free. It marshals as the string
// "free" or a JSON number.
type Price struct {
	Amount float64
}

const freeMarker = "free"

func Free() Price { return Price{} }

func (p Price) IsFree() bool { return p.Amount <= 0 }

func (p Price) String() string {
	if p.IsFree() {
		return "Free"
	}
	return fmt.Sprintf("$%.2f", p.Amount)
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.IsFree() {
		return json.Marshal(freeMarker)
	}
	return json.Marshal(p.Amount)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Free()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
		if s == "" || strings.EqualFold(s, freeMarker) {
			*p = Free()
			return nil
		}
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil || amount < 0 {
			return fmt.Errorf("invalid price %q", s)
		}
		*p = Price{Amount: amount}
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	if amount < 0 {
		return fmt.Errorf("invalid price %s: negative", data)
	}
	*p = Price{Amount: amount}
	return nil
}

// Metrics is the engagement bundle of an app. Edits never reset it.
type Metrics struct {
	Downloads   compact.Count `json:"downloads"`
	ActiveUsers compact.Count `json:"activeUsers"`
	Likes       compact.Count `json:"likes"`
	Views       compact.Count `json:"views"`
	Revenue     float64       `json:"revenue"`
}

// DownloadBucket counts downloads for one calendar day (YYYY-MM-DD).
type DownloadBucket struct {
	Date  string        `json:"date"`
	Count compact.Count `json:"count"`
}

type VersionEntry struct {
	Version string    `json:"version"`
	Date    time.Time `json:"date"`
	Notes   string    `json:"notes,omitempty"`
}

// App is a single marketplace listing.
type App struct {
	ID               string           `json:"id"`
	VendorID         string           `json:"vendorId"`
	VendorName       string           `json:"vendorName"`
	Name             string           `json:"name"`
	ShortDescription string           `json:"shortDescription"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	Price            Price            `json:"price"`
	Status           Status           `json:"status"`
	IsMature         bool             `json:"isMature"`
	Tags             []string         `json:"tags"`
	Icon             string           `json:"icon"`
	Screenshots      []string         `json:"screenshots"`
	PackageURL       string           `json:"packageUrl,omitempty"`
	Version          string           `json:"version"`
	Size             string           `json:"size"`
	Rating           float64          `json:"rating"`
	ReviewCount      compact.Count    `json:"reviewCount"`
	Metrics          Metrics          `json:"metrics"`
	DownloadHistory  []DownloadBucket `json:"downloadHistory,omitempty"`
	VersionHistory   []VersionEntry   `json:"versionHistory,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (a App) Clone() App {
	a.Tags = append([]string(nil), a.Tags...)
	a.Screenshots = append([]string(nil), a.Screenshots...)
	a.DownloadHistory = append([]DownloadBucket(nil), a.DownloadHistory...)
	a.VersionHistory = append([]VersionEntry(nil), a.VersionHistory...)
	return a
}

func (a *App) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("app: missing id")
	case a.VendorID == "":
		return fmt.Errorf("app %s: missing vendorId", a.ID)
	case strings.TrimSpace(a.Name) == "":
		return fmt.Errorf("app %s: missing name", a.ID)
	case !a.Status.Valid():
		return fmt.Errorf("app %s: invalid status %q", a.ID, a.Status)
	case a.Rating < 0 || a.Rating > 5:
		return fmt.Errorf("app %s: rating %.2f out of range", a.ID, a.Rating)
	case a.Metrics.Revenue < 0:
		return fmt.Errorf("app %s: negative revenue", a.ID)
	}
	return nil
}

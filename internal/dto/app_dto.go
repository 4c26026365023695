package dto

import (
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/compact"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

type AppUploadRequest struct {
	Name             string       `json:"name"`
	ShortDescription string       `json:"shortDescription"`
	Description      string       `json:"description"`
	Category         string       `json:"category"`
	Price            models.Price `json:"price"`
	IsMature         bool         `json:"isMature"`
	Tags             []string     `json:"tags"`
	Icon             string       `json:"icon"`
	Screenshots      []string     `json:"screenshots"`
	PackageURL       string       `json:"packageUrl"`
	Version          string       `json:"version"`
	Size             string       `json:"size"`
}

// AppUpdateRequest is a partial edit; omitted fields keep their value.
type AppUpdateRequest struct {
	Name             *string       `json:"name"`
	ShortDescription *string       `json:"shortDescription"`
	Description      *string       `json:"description"`
	Category         *string       `json:"category"`
	Price            *models.Price `json:"price"`
	IsMature         *bool         `json:"isMature"`
	Tags             []string      `json:"tags"`
	Icon             *string       `json:"icon"`
	Screenshots      []string      `json:"screenshots"`
	PackageURL       *string       `json:"packageUrl"`
	Version          *string       `json:"version"`
	Size             *string       `json:"size"`
	ReleaseNotes     string        `json:"releaseNotes"`
}

// AppResponse adds display strings to an app.
type AppResponse struct {
	models.App
	DownloadsLabel   string `json:"downloadsLabel"`
	ActiveUsersLabel string `json:"activeUsersLabel"`
	PriceLabel       string `json:"priceLabel"`
}

func NewAppResponse(a models.App) AppResponse {
	return AppResponse{
		App:              a,
		DownloadsLabel:   compact.Format(int64(a.Metrics.Downloads)),
		ActiveUsersLabel: compact.Format(int64(a.Metrics.ActiveUsers)),
		PriceLabel:       a.Price.String(),
	}
}

func NewAppResponses(apps []models.App) []AppResponse {
	out := make([]AppResponse, len(apps))
	for i, a := range apps {
		out[i] = NewAppResponse(a)
	}
	return out
}

type AppListResponse struct {
	Apps  []AppResponse `json:"apps"`
	Total int           `json:"total"`
}

type CategoryResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Mature bool   `json:"mature,omitempty"`
	Count  int    `json:"count"`
}

type DownloadResponse struct {
	AppID       string `json:"appId"`
	Status      string `json:"status"`
	Bytes       int    `json:"bytes"`
	FallbackURL string `json:"fallbackUrl,omitempty"`
}

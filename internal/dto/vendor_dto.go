package dto

import (
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/views"
)

type VendorProfileRequest struct {
	BusinessName *string `json:"businessName"`
	Logo         *string `json:"logo"`
	Bio          *string `json:"bio"`
	Website      *string `json:"website"`
}

type SubscriptionRequest struct {
	Tier string `json:"tier"`
}

// QuotaResponse reports uploads used against the tier limit. Limit is zero
// for unlimited tiers.
type QuotaResponse struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

type DashboardResponse struct {
	Vendor models.Vendor     `json:"vendor"`
	Stats  views.VendorStats `json:"stats"`
	Quota  QuotaResponse     `json:"quota"`
	Apps   []AppResponse     `json:"apps"`
}

type VendorPageResponse struct {
	Vendor models.Vendor `json:"vendor"`
	Apps   []AppResponse `json:"apps"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Avatar string      `json:"avatar,omitempty"`
}

func NewUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Avatar: u.Avatar}
}

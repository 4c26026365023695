// Package session tracks the identity behind each browser session. A
// session is anonymous until a login or registration authenticates it.
package session

import (
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
)

type State string

const (
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Session is the source of truth for "who is browsing". LegacyFlags derives
// the older flag keys from it.
type Session struct {
	ID             string      `json:"id"`
	State          State       `json:"state"`
	UserID         string      `json:"userId,omitempty"`
	Name           string      `json:"name,omitempty"`
	Email          string      `json:"email,omitempty"`
	Role           models.Role `json:"role,omitempty"`
	VendorID       string      `json:"vendorId,omitempty"`
	VendorName     string      `json:"vendorName,omitempty"`
	Subscription   models.Tier `json:"subscription,omitempty"`
	MatureUnlocked bool        `json:"matureUnlocked"`
	// Debug marks identities set without credentials.
	Debug     bool      `json:"debug,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated
}

func (s *Session) HasRole(role models.Role) bool {
	return s.Authenticated() && s.Role == role
}

// LegacyFlags returns the compatibility keys older clients read.
func (s *Session) LegacyFlags() map[string]string {
	flags := map[string]string{
		"adminLoggedIn":  strconv.FormatBool(s.HasRole(models.RoleAdmin)),
		"vendorLoggedIn": strconv.FormatBool(s.HasRole(models.RoleVendor)),
		"vendorName":     "",
		"vendorEmail":    "",
		"loginType":      "",
		"subscription":   "",
	}
	if s.Authenticated() {
		flags["loginType"] = string(s.Role)
	}
	if s.HasRole(models.RoleVendor) {
		flags["vendorName"] = s.VendorName
		flags["vendorEmail"] = s.Email
		flags["subscription"] = string(s.Subscription)
	}
	return flags
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a vendor subscription level.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// StandardAppQuota is the number of apps a standard vendor may list.
const StandardAppQuota = 3

func (t Tier) Valid() bool {
	return t == TierStandard || t == TierPremium
}

// Quota returns the upload limit for the tier; zero means unlimited.
func (t Tier) Quota() int {
	if t == TierPremium {
		return 0
	}
	return StandardAppQuota
}

type Vendor struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	BusinessName string    `json:"businessName"`
	Logo         string    `json:"logo"`
	Bio          string    `json:"bio"`
	Website      string    `json:"website,omitempty"`
	Subscription Tier      `json:"subscription"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func (v *Vendor) Validate() error {
	switch {
	case v.ID == "":
		return fmt.Errorf("vendor: missing id")
	case v.UserID == "":
		return fmt.Errorf("vendor %s: missing userId", v.ID)
	case strings.TrimSpace(v.BusinessName) == "":
		return fmt.Errorf("vendor %s: missing businessName", v.ID)
	case !v.Subscription.Valid():
		return fmt.Errorf("vendor %s: invalid subscription %q", v.ID, v.Subscription)
	}
	return nil
}

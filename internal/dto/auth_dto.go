package dto

import "github.com/ahmetcoskunkizilkaya/indie-market/internal/session"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterVendorRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"businessName"`
	Bio          string `json:"bio"`
	Logo         string `json:"logo"`
	Website      string `json:"website"`
	Subscription string `json:"subscription"`
}

// DebugLoginRequest selects the first user with Role (and Email, if given).
type DebugLoginRequest struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

type SessionResponse struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
}

type ErrorResponse struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	AppCount  int    `json:"app_count"`
}

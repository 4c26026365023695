package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/dto"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
)

const minPasswordLength = 8

type AuthService struct {
	store    *store.Store
	sessions *session.Manager
	notifier *Notifier
	cfg      *config.Config
}

func NewAuthService(st *store.Store, sessions *session.Manager, notifier *Notifier, cfg *config.Config) *AuthService {
	return &AuthService{store: st, sessions: sessions, notifier: notifier, cfg: cfg}
}

// StartSession issues a token for a new anonymous session.
func (s *AuthService) StartSession() (*dto.SessionResponse, error) {
	return s.respond(s.sessions.New())
}

// Refresh re-issues the token for sess.
func (s *AuthService) Refresh(sess *session.Session) (*dto.SessionResponse, error) {
	return s.respond(sess)
}

// Login authenticates email+password. A failed attempt leaves the session
// untouched.
func (s *AuthService) Login(ctx context.Context, sid string, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	var v ValidationError
	if strings.TrimSpace(req.Email) == "" {
		v.Add("email", "Email is required")
	}
	if req.Password == "" {
		v.Add("password", "Password is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, sid, user, false)
}

// RegisterVendor creates the user and vendor records, signs the session in
// as that vendor and sends a welcome mail.
func (s *AuthService) RegisterVendor(ctx context.Context, sid string, req *dto.RegisterVendorRequest) (*dto.SessionResponse, error) {
	var v ValidationError
	if strings.TrimSpace(req.Name) == "" {
		v.Add("name", "Name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		v.Add("email", "A valid email is required")
	} else if s.cfg.IsAdminEmail(req.Email) {
		v.Add("email", "This email is reserved")
	}
	if len(req.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		v.Add("businessName", "Business name is required")
	}
	checkImage(&v, "logo", req.Logo, MaxIconBytes)
	if req.Website != "" && !isHTTPURL(req.Website) {
		v.Add("website", "Must be an http(s) URL")
	}
	tier := models.Tier(req.Subscription)
	if tier == "" {
		tier = models.TierStandard
	}
	if !tier.Valid() {
		v.Add("subscription", "Subscription must be standard or premium")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, vendor, err := s.store.RegisterVendor(ctx, store.Registration{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Password:     req.Password,
		BusinessName: strings.TrimSpace(req.BusinessName),
		Bio:          req.Bio,
		Logo:         req.Logo,
		Website:      req.Website,
		Subscription: tier,
	})
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.SignIn(ctx, sid, user, &vendor, false)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify("welcome", delivery.WelcomeMessage(user, vendor))
	slog.Info("vendor registered", "vendor_id", vendor.ID, "session_id", sid)
	return s.respond(sess)
}

// Logout clears the session identity. Records are never touched.
func (s *AuthService) Logout(ctx context.Context, sid string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Logout(ctx, sid)
	if err != nil {
		return nil, err
	}
	return s.respond(sess)
}

// DebugLogin sets the session identity to the first user matching role (and
// email when given) without checking credentials. Disabled unless
// ENABLE_DEBUG_LOGIN is set; sessions created this way are marked Debug.
func (s *AuthService) DebugLogin(ctx context.Context, sid string, req *dto.DebugLoginRequest) (*dto.SessionResponse, error) {
	if !s.cfg.EnableDebugLogin {
		return nil, ErrDebugLoginDisabled
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		var v ValidationError
		v.Add("role", "Role must be admin, vendor or customer")
		return nil, v.Err()
	}

	user, err := s.store.FindUser(role, req.Email)
	if err != nil {
		return nil, err
	}
	slog.Warn("debug login used; identity is not authenticated",
		"session_id", sid,
		"user_id", user.ID,
		"role", user.Role,
	)
	return s.signIn(ctx, sid, user, true)
}

func (s *AuthService) ConfirmAgeGate(ctx context.Context, sid string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.ConfirmAgeGate(ctx, sid)
	if err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *AuthService) signIn(ctx context.Context, sid string, user models.User, debug bool) (*dto.SessionResponse, error) {
	var vendor *models.Vendor
	if user.Role == models.RoleVendor {
		v, err := s.store.VendorByUser(user.ID)
		if err != nil {
			return nil, err
		}
		vendor = &v
	}
	sess, err := s.sessions.SignIn(ctx, sid, user, vendor, debug)
	if err != nil {
		return nil, err
	}
	return s.respond(sess)
}

func (s *AuthService) respond(sess *session.Session) (*dto.SessionResponse, error) {
	token, err := session.IssueToken(s.cfg.JWTSecret, sess, s.cfg.SessionExpiry)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Token: token, Session: sess}, nil
}

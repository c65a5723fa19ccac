package service

import (
	"errors"
	"time"

	"github.com/familyhub/family-access-backend/internal/config"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/session"
	"github.com/familyhub/family-access-backend/internal/socket"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrProfileRevoked     = errors.New("active profile access has been revoked")
	ErrNotFound           = errors.New("resource not found")
	ErrMemberNotFound     = errors.New("family member not found")
	ErrInvalidInput       = errors.New("invalid input")

	ErrInvalidTierForConsent  = errors.New("member tier does not take parental consent")
	ErrConsentEvidenceInvalid = errors.New("consent evidence is incomplete")
	ErrNoLiveConsent          = errors.New("no live consent grant to revoke")
	ErrConcurrentModification = errors.New("concurrent modification, retry the operation")
)

// Identity is the authenticated caller extracted from a validated token
// pair: the guardian account, its household, the login session and the
// family member profile the session is currently scoped to (if any).
type Identity struct {
	UserID         string
	HouseholdID    string
	SessionID      string
	ActiveMemberID string
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth      AuthService
	Member    MemberService
	Consent   ConsentService
	Profile   ProfileService
	AccessLog AccessLogService

	Broadcaster *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Sessions    session.Store
	Broadcaster *socket.Broadcaster
}

func NewServices(deps *ServiceDeps) *Services {
	validity := time.Duration(deps.Config.ConsentValidityDays) * 24 * time.Hour

	// AccessLogService first: the profile switcher records every
	// evaluation through it.
	accessLogSvc := NewAccessLogService(deps.Repos.AccessLogRepo, deps.Broadcaster)

	memberSvc := NewMemberService(deps.Repos.MemberRepo, deps.Repos.ConsentRepo, validity, deps.Broadcaster)
	consentSvc := NewConsentService(deps.Repos.MemberRepo, deps.Repos.ConsentRepo, validity, deps.Config.TermsVersion, deps.Broadcaster)
	authSvc := NewAuthService(deps.Config, deps.Repos.UserRepo, deps.Repos.MemberRepo, deps.Repos.ConsentRepo, deps.Sessions)

	return &Services{
		Auth:      authSvc,
		Member:    memberSvc,
		Consent:   consentSvc,
		Profile:   NewProfileService(deps.Repos.UserRepo, deps.Repos.MemberRepo, deps.Repos.ConsentRepo, validity, authSvc, accessLogSvc),
		AccessLog: accessLogSvc,

		Broadcaster: deps.Broadcaster,
	}
}

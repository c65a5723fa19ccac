package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/familyhub/family-access-backend/internal/config"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/session"
	"github.com/familyhub/family-access-backend/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ============================================
// Auth Service
// ============================================

type AuthService interface {
	// Register creates the guardian account, its household and the
	// guardian's own member profile (primary contact, adult-asserted),
	// then opens a session.
	Register(ctx context.Context, name, email, password string) (*repository.User, string, string, error)
	Login(ctx context.Context, email, password string) (*repository.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error

	// Authenticate validates an access token against the session store.
	// A token whose jti is not the session's current one is dead: it
	// belonged to a pair that has been rotated away. A token scoped to a
	// member whose access has since been revoked fails here too (lazy
	// session invalidation).
	Authenticate(ctx context.Context, tokenString string) (*Identity, error)

	// IssueSessionTokens mints a fresh pair for an existing session,
	// optionally scoped to a member, replacing the session's previous
	// pair. Used by the profile switcher.
	IssueSessionTokens(ctx context.Context, user *repository.User, sessionID string, memberID *string) (string, string, error)
}

type authService struct {
	cfg             *config.Config
	userRepo        repository.UserRepository
	memberRepo      repository.FamilyMemberRepository
	consentRepo     repository.ConsentRepository
	sessions        session.Store
	consentValidity time.Duration
	now             func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, memberRepo repository.FamilyMemberRepository, consentRepo repository.ConsentRepository, sessions session.Store) AuthService {
	return &authService{
		cfg:             cfg,
		userRepo:        userRepo,
		memberRepo:      memberRepo,
		consentRepo:     consentRepo,
		sessions:        sessions,
		consentValidity: time.Duration(cfg.ConsentValidityDays) * 24 * time.Hour,
		now:             time.Now,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*repository.User, string, string, error) {
	existingUser, _ := s.userRepo.FindByEmail(ctx, email)
	if existingUser != nil {
		return nil, "", "", ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
	}

	firstName, lastName := splitName(name)
	guardian := &repository.FamilyMember{
		FirstName:    firstName,
		LastName:     lastName,
		Relationship: types.RelationshipGuardian,
		IsPrimary:    true,
		// Registering implies the account owner is an adult; the full
		// tier applies until a birth date says otherwise.
		AdultAsserted: true,
		Status:        types.MemberActive,
	}

	if err := s.userRepo.CreateWithHousehold(ctx, user, name, guardian); err != nil {
		return nil, "", "", fmt.Errorf("failed to create account: %w", err)
	}

	accessToken, refreshToken, err := s.IssueSessionTokens(ctx, user, uuid.New().String(), nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*repository.User, string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.IssueSessionTokens(ctx, user, uuid.New().String(), nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil || rt == nil {
		return "", "", ErrInvalidToken
	}

	if s.now().After(rt.ExpiresAt) {
		s.userRepo.DeleteRefreshToken(ctx, refreshToken)
		return "", "", ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return "", "", ErrInvalidToken
	}

	// Keep the session's member scope only while that member still has
	// platform access; otherwise the new pair comes out unscoped and the
	// caller has to switch again.
	memberID := rt.MemberID
	if memberID != nil {
		if err := s.checkMemberAccess(ctx, user.HouseholdID, *memberID); err != nil {
			memberID = nil
		}
	}

	accessToken, newRefreshToken, err := s.IssueSessionTokens(ctx, user, rt.SessionID, memberID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return accessToken, newRefreshToken, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if rt != nil {
		s.sessions.Delete(ctx, rt.SessionID)
	}
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	householdID, _ := claims["hh"].(string)
	sessionID, _ := claims["sid"].(string)
	jti, _ := claims["jti"].(string)
	if userID == "" || householdID == "" || sessionID == "" || jti == "" {
		return nil, ErrInvalidToken
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		// Fail closed on an unreadable session store.
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if state.AccessJTI != jti {
		// A newer pair exists for this session; this token was rotated
		// away and is no longer valid.
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UserID:      userID,
		HouseholdID: householdID,
		SessionID:   sessionID,
	}

	if memberID, _ := claims["member"].(string); memberID != "" {
		if err := s.checkMemberAccess(ctx, householdID, memberID); err != nil {
			return nil, err
		}
		identity.ActiveMemberID = memberID
	}

	return identity, nil
}

func (s *authService) IssueSessionTokens(ctx context.Context, user *repository.User, sessionID string, memberID *string) (string, string, error) {
	now := s.now()
	jti := uuid.New().String()
	accessExpiry := now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry))
	refreshExpiry := now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry))

	claims := jwt.MapClaims{
		"sub": user.ID,
		"hh":  user.HouseholdID,
		"sid": sessionID,
		"jti": jti,
		"exp": accessExpiry.Unix(),
		"iat": now.Unix(),
	}
	if memberID != nil {
		claims["member"] = *memberID
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	refreshTokenString := uuid.New().String()
	rt := &repository.RefreshToken{
		Token:     refreshTokenString,
		UserID:    user.ID,
		SessionID: sessionID,
		MemberID:  memberID,
		ExpiresAt: refreshExpiry,
	}
	if err := s.userRepo.ReplaceRefreshTokenForSession(ctx, rt); err != nil {
		return "", "", err
	}

	// Single SET: the session's previous access jti stops validating the
	// instant this state lands, so old and new pairs are never live
	// together.
	state := &session.State{
		SessionID:   sessionID,
		UserID:      user.ID,
		HouseholdID: user.HouseholdID,
		AccessJTI:   jti,
		IssuedAt:    now,
		ExpiresAt:   refreshExpiry,
	}
	if memberID != nil {
		state.ActiveMemberID = *memberID
	}
	if err := s.sessions.Put(ctx, state); err != nil {
		return "", "", err
	}

	return accessToken, refreshTokenString, nil
}

// checkMemberAccess re-resolves the member's access decision; it is the
// read-time check that makes revoked or expired consent bite on sessions
// that were scoped before the change.
func (s *authService) checkMemberAccess(ctx context.Context, householdID, memberID string) error {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to load family member: %w", err)
	}
	if member == nil || member.HouseholdID != householdID || member.Status != types.MemberActive {
		return ErrProfileRevoked
	}

	latest, err := s.consentRepo.FindLatestByMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to read consent ledger: %w", err)
	}

	decision := ResolveAccess(member, latest, s.now(), s.consentValidity)
	if !decision.CanAccessPlatform {
		return ErrProfileRevoked
	}
	return nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
)

// ============================================
// Profile Service
// ============================================

// SwitchResult is a successful profile switch: a freshly rotated token
// pair scoped to the target member, plus the member's derived state.
type SwitchResult struct {
	Token         string
	RefreshToken  string
	ActiveProfile *MemberWithAccess
}

// AccessDenial is a first-class switch outcome, not an error: the
// evaluation completed and the answer was no.
type AccessDenial struct {
	Reason string
	Member *MemberWithAccess
}

type ProfileService interface {
	// Switch re-derives the target member's access and, when allowed,
	// rotates the session's token pair onto that profile. Every
	// evaluation is written to the audit trail, denials included.
	// Switching to the already-active profile is allowed and simply
	// rotates the pair again.
	Switch(ctx context.Context, identity Identity, targetMemberID string) (*SwitchResult, *AccessDenial, error)
}

type profileService struct {
	userRepo        repository.UserRepository
	memberRepo      repository.FamilyMemberRepository
	consentRepo     repository.ConsentRepository
	consentValidity time.Duration
	auth            AuthService
	accessLog       AccessLogService
	now             func() time.Time
}

func NewProfileService(userRepo repository.UserRepository, memberRepo repository.FamilyMemberRepository, consentRepo repository.ConsentRepository, consentValidity time.Duration, auth AuthService, accessLog AccessLogService) ProfileService {
	return &profileService{
		userRepo:        userRepo,
		memberRepo:      memberRepo,
		consentRepo:     consentRepo,
		consentValidity: consentValidity,
		auth:            auth,
		accessLog:       accessLog,
		now:             time.Now,
	}
}

func (s *profileService) Switch(ctx context.Context, identity Identity, targetMemberID string) (*SwitchResult, *AccessDenial, error) {
	member, err := s.memberRepo.FindByID(ctx, targetMemberID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load family member: %w", err)
	}
	if member == nil || member.HouseholdID != identity.HouseholdID || member.Status != types.MemberActive {
		// Unknown targets are not audit events; nothing was evaluated.
		return nil, nil, ErrMemberNotFound
	}

	latest, err := s.consentRepo.FindLatestByMember(ctx, member.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read consent ledger: %w", err)
	}

	decision := ResolveAccess(member, latest, s.now(), s.consentValidity)
	withAccess := &MemberWithAccess{Member: member, Decision: decision}

	if !decision.CanAccessPlatform {
		s.accessLog.Record(ctx, AccessAttempt{
			HouseholdID:    identity.HouseholdID,
			ActorUserID:    identity.UserID,
			TargetMemberID: member.ID,
			Outcome:        types.OutcomeDenied,
			DenialReason:   decision.DenialReason,
		})
		return nil, &AccessDenial{Reason: decision.DenialReason, Member: withAccess}, nil
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil || user == nil {
		return nil, nil, ErrInvalidToken
	}

	memberID := member.ID
	accessToken, refreshToken, err := s.auth.IssueSessionTokens(ctx, user, identity.SessionID, &memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rotate session tokens: %w", err)
	}

	s.accessLog.Record(ctx, AccessAttempt{
		HouseholdID:    identity.HouseholdID,
		ActorUserID:    identity.UserID,
		TargetMemberID: member.ID,
		Outcome:        types.OutcomeAllowed,
	})

	return &SwitchResult{
		Token:         accessToken,
		RefreshToken:  refreshToken,
		ActiveProfile: withAccess,
	}, nil, nil
}

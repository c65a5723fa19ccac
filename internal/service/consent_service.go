package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/socket"
	"github.com/familyhub/family-access-backend/internal/types"
)

// ============================================
// Consent Service
// ============================================

// ConsentEvidence is the durable proof attached to a grant: who signed,
// which terms version they accepted, and where the request came from.
type ConsentEvidence struct {
	Signature     string
	TermsAccepted bool
	TermsVersion  string
	IPAddress     string
	UserAgent     string
}

type ConsentService interface {
	// Grant appends a grant record for a supervised member. Granting on
	// top of a live grant is the renewal path and resets the validity
	// window.
	Grant(ctx context.Context, actor Identity, memberID string, evidence ConsentEvidence) (*MemberWithAccess, error)
	// Revoke appends a revoke record referencing the member's live
	// grant. The revoked member's platform access ends immediately; any
	// session scoped to that profile fails its next access check.
	Revoke(ctx context.Context, actor Identity, memberID, reason, ipAddress, userAgent string) (*MemberWithAccess, error)
	History(ctx context.Context, householdID, memberID string) ([]*repository.ConsentRecord, error)
}

type consentService struct {
	memberRepo      repository.FamilyMemberRepository
	consentRepo     repository.ConsentRepository
	consentValidity time.Duration
	termsVersion    string
	broadcaster     *socket.Broadcaster
	now             func() time.Time
}

func NewConsentService(memberRepo repository.FamilyMemberRepository, consentRepo repository.ConsentRepository, consentValidity time.Duration, termsVersion string, broadcaster *socket.Broadcaster) ConsentService {
	return &consentService{
		memberRepo:      memberRepo,
		consentRepo:     consentRepo,
		consentValidity: consentValidity,
		termsVersion:    termsVersion,
		broadcaster:     broadcaster,
		now:             time.Now,
	}
}

func (s *consentService) Grant(ctx context.Context, actor Identity, memberID string, evidence ConsentEvidence) (*MemberWithAccess, error) {
	member, err := s.findHouseholdMember(ctx, actor.HouseholdID, memberID)
	if err != nil {
		return nil, err
	}

	age, err := ClassifyAge(member.BirthDate, member.AdultAsserted, s.now())
	if err != nil {
		return nil, err
	}
	if age.Tier != types.TierSupervised {
		return nil, fmt.Errorf("%w: member tier is %s", ErrInvalidTierForConsent, age.Tier)
	}

	signature := strings.TrimSpace(evidence.Signature)
	if !evidence.TermsAccepted {
		return nil, fmt.Errorf("%w: terms were not accepted", ErrConsentEvidenceInvalid)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrConsentEvidenceInvalid)
	}
	// Clients that do not pin a terms version accept the current one.
	termsVersion := strings.TrimSpace(evidence.TermsVersion)
	if termsVersion == "" {
		termsVersion = s.termsVersion
	}
	if termsVersion == "" {
		return nil, fmt.Errorf("%w: terms version is required", ErrConsentEvidenceInvalid)
	}

	record := &repository.ConsentRecord{
		FamilyMemberID: member.ID,
		Action:         types.ConsentGrant,
		ActorUserID:    actor.UserID,
		Signature:      &signature,
		TermsAccepted:  true,
		TermsVersion:   &termsVersion,
		IPAddress:      optStrPtr(evidence.IPAddress),
		UserAgent:      optStrPtr(evidence.UserAgent),
	}

	// The guard runs under the member's row lock; a grant has no ledger
	// precondition (granting over a live grant is a renewal), the lock
	// only serializes it against concurrent revokes and grants.
	err = s.consentRepo.AppendWithGuard(ctx, record, func(latest *repository.ConsentRecord) error {
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAvailable) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to append consent grant: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastConsentGranted(member.HouseholdID, map[string]interface{}{
			"memberId":     member.ID,
			"actorUserId":  actor.UserID,
			"termsVersion": termsVersion,
		})
	}

	return &MemberWithAccess{
		Member:   member,
		Decision: ResolveAccess(member, record, s.now(), s.consentValidity),
	}, nil
}

func (s *consentService) Revoke(ctx context.Context, actor Identity, memberID, reason, ipAddress, userAgent string) (*MemberWithAccess, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a revoke reason is required", ErrInvalidInput)
	}

	member, err := s.findHouseholdMember(ctx, actor.HouseholdID, memberID)
	if err != nil {
		return nil, err
	}

	age, err := ClassifyAge(member.BirthDate, member.AdultAsserted, s.now())
	if err != nil {
		return nil, err
	}
	if age.Tier != types.TierSupervised {
		return nil, fmt.Errorf("%w: member tier is %s", ErrInvalidTierForConsent, age.Tier)
	}

	record := &repository.ConsentRecord{
		FamilyMemberID: member.ID,
		Action:         types.ConsentRevoke,
		ActorUserID:    actor.UserID,
		RevokeReason:   strPtr(strings.TrimSpace(reason)),
		IPAddress:      optStrPtr(ipAddress),
		UserAgent:      optStrPtr(userAgent),
	}

	// A revoke must reference a live grant; the check runs on the
	// serialized ledger state under the row lock, so a revoke can never
	// race a grant into an inconsistent current record.
	err = s.consentRepo.AppendWithGuard(ctx, record, func(latest *repository.ConsentRecord) error {
		if latest == nil || latest.Action != types.ConsentGrant {
			return ErrNoLiveConsent
		}
		if s.now().Sub(latest.CreatedAt) > s.consentValidity {
			return ErrNoLiveConsent
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAvailable) {
			return nil, ErrConcurrentModification
		}
		if errors.Is(err, ErrNoLiveConsent) {
			return nil, ErrNoLiveConsent
		}
		return nil, fmt.Errorf("failed to append consent revoke: %w", err)
	}

	// Sessions scoped to the member are invalidated lazily: the auth
	// middleware re-resolves access on every request, so the next use of
	// such a session is rejected.

	if s.broadcaster != nil {
		s.broadcaster.BroadcastConsentRevoked(member.HouseholdID, map[string]interface{}{
			"memberId":    member.ID,
			"actorUserId": actor.UserID,
			"reason":      reason,
		})
	}

	return &MemberWithAccess{
		Member:   member,
		Decision: ResolveAccess(member, record, s.now(), s.consentValidity),
	}, nil
}

func (s *consentService) History(ctx context.Context, householdID, memberID string) ([]*repository.ConsentRecord, error) {
	if _, err := s.findHouseholdMember(ctx, householdID, memberID); err != nil {
		return nil, err
	}
	records, err := s.consentRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to read consent ledger: %w", err)
	}
	return records, nil
}

func (s *consentService) findHouseholdMember(ctx context.Context, householdID, memberID string) (*repository.FamilyMember, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family member: %w", err)
	}
	if member == nil || member.HouseholdID != householdID || member.Status != types.MemberActive {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func strPtr(s string) *string {
	return &s
}

func optStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

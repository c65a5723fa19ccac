package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/socket"
	"github.com/familyhub/family-access-backend/internal/types"
)

// ============================================
// Member Service
// ============================================

type MemberService interface {
	Create(ctx context.Context, householdID string, req *models.CreateFamilyMemberRequest) (*MemberWithAccess, error)
	List(ctx context.Context, householdID string) ([]*MemberWithAccess, error)
	Get(ctx context.Context, householdID, memberID string) (*MemberWithAccess, error)
	// VerifyBirthDate is the explicit age-verification step: it records
	// the birth date and re-derives the member's tier. A member newly in
	// the supervised band comes out pending consent.
	VerifyBirthDate(ctx context.Context, householdID, memberID, birthDate string) (*MemberWithAccess, error)
	Deactivate(ctx context.Context, householdID, memberID string) error
}

type memberService struct {
	memberRepo      repository.FamilyMemberRepository
	consentRepo     repository.ConsentRepository
	consentValidity time.Duration
	broadcaster     *socket.Broadcaster
	now             func() time.Time
}

func NewMemberService(memberRepo repository.FamilyMemberRepository, consentRepo repository.ConsentRepository, consentValidity time.Duration, broadcaster *socket.Broadcaster) MemberService {
	return &memberService{
		memberRepo:      memberRepo,
		consentRepo:     consentRepo,
		consentValidity: consentValidity,
		broadcaster:     broadcaster,
		now:             time.Now,
	}
}

const birthDateLayout = "2006-01-02"

func parseBirthDate(value string) (time.Time, error) {
	parsed, err := time.Parse(birthDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: birth date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return parsed, nil
}

func (s *memberService) Create(ctx context.Context, householdID string, req *models.CreateFamilyMemberRequest) (*MemberWithAccess, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if !types.IsValidRelationship(req.Relationship) {
		return nil, fmt.Errorf("%w: unknown relationship %q", ErrInvalidInput, req.Relationship)
	}

	member := &repository.FamilyMember{
		HouseholdID:  householdID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		DisplayName:  req.DisplayName,
		Relationship: req.Relationship,
		Status:       types.MemberActive,
	}

	if req.BirthDate != nil {
		parsed, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		// Rejects future dates before anything is stored.
		if _, err := ClassifyAge(&parsed, false, s.now()); err != nil {
			return nil, err
		}
		member.BirthDate = &parsed
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create family member: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberCreated(householdID, map[string]interface{}{
			"memberId":     member.ID,
			"relationship": member.Relationship,
		})
	}

	return s.withAccess(ctx, member)
}

func (s *memberService) List(ctx context.Context, householdID string) ([]*MemberWithAccess, error) {
	members, err := s.memberRepo.FindByHousehold(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}

	result := make([]*MemberWithAccess, 0, len(members))
	for _, member := range members {
		withAccess, err := s.withAccess(ctx, member)
		if err != nil {
			return nil, err
		}
		result = append(result, withAccess)
	}
	return result, nil
}

func (s *memberService) Get(ctx context.Context, householdID, memberID string) (*MemberWithAccess, error) {
	member, err := s.findHouseholdMember(ctx, householdID, memberID)
	if err != nil {
		return nil, err
	}
	return s.withAccess(ctx, member)
}

func (s *memberService) VerifyBirthDate(ctx context.Context, householdID, memberID, birthDate string) (*MemberWithAccess, error) {
	member, err := s.findHouseholdMember(ctx, householdID, memberID)
	if err != nil {
		return nil, err
	}

	parsed, err := parseBirthDate(birthDate)
	if err != nil {
		return nil, err
	}
	if _, err := ClassifyAge(&parsed, false, s.now()); err != nil {
		return nil, err
	}

	if err := s.memberRepo.UpdateBirthDate(ctx, member.ID, parsed); err != nil {
		return nil, fmt.Errorf("failed to update birth date: %w", err)
	}
	member.BirthDate = &parsed

	withAccess, err := s.withAccess(ctx, member)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberAgeVerified(householdID, map[string]interface{}{
			"memberId": member.ID,
			"tier":     withAccess.Decision.Tier,
		})
	}

	return withAccess, nil
}

func (s *memberService) Deactivate(ctx context.Context, householdID, memberID string) error {
	member, err := s.findHouseholdMember(ctx, householdID, memberID)
	if err != nil {
		return err
	}
	if member.IsPrimary {
		return fmt.Errorf("%w: the primary contact cannot be deactivated", ErrInvalidInput)
	}

	// Consent history stays in the ledger; the profile is only marked
	// inactive, never deleted.
	if err := s.memberRepo.Deactivate(ctx, member.ID); err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberDeactivated(householdID, map[string]interface{}{
			"memberId": member.ID,
		})
	}
	return nil
}

func (s *memberService) findHouseholdMember(ctx context.Context, householdID, memberID string) (*repository.FamilyMember, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family member: %w", err)
	}
	if member == nil || member.HouseholdID != householdID {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

func (s *memberService) withAccess(ctx context.Context, member *repository.FamilyMember) (*MemberWithAccess, error) {
	latest, err := s.consentRepo.FindLatestByMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read consent ledger: %w", err)
	}
	return &MemberWithAccess{
		Member:   member,
		Decision: ResolveAccess(member, latest, s.now(), s.consentValidity),
	}, nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
)

func newMemberFixture(now time.Time) (*memberService, *fakeMemberRepo, *fakeConsentRepo) {
	memberRepo := newFakeMemberRepo()
	consentRepo := newFakeConsentRepo()
	consentRepo.clock = func() time.Time { return now }

	svc := &memberService{
		memberRepo:      memberRepo,
		consentRepo:     consentRepo,
		consentValidity: testValidity,
		now:             func() time.Time { return now },
	}
	return svc, memberRepo, consentRepo
}

func TestMemberCreate(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, _, _ := newMemberFixture(now)

	birthDate := "2009-06-01"
	result, err := svc.Create(context.Background(), "household-1", &models.CreateFamilyMemberRequest{
		FirstName:    "Maya",
		LastName:     "Rivera",
		Relationship: types.RelationshipChild,
		BirthDate:    &birthDate,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if result.Member.ID == "" {
		t.Error("member was not assigned an id")
	}
	if result.Decision.Tier != types.TierSupervised {
		t.Errorf("tier = %q, want supervised", result.Decision.Tier)
	}
	if result.Decision.CanAccessPlatform {
		t.Error("new supervised member should not have access before consent")
	}
	if !result.Decision.RequiresConsent {
		t.Error("supervised member should require consent")
	}
}

func TestMemberCreateWithoutBirthDate(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, _, _ := newMemberFixture(now)

	result, err := svc.Create(context.Background(), "household-1", &models.CreateFamilyMemberRequest{
		FirstName:    "Sam",
		LastName:     "Ortiz",
		Relationship: types.RelationshipSibling,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if result.Decision.Tier != types.TierUnverified {
		t.Errorf("tier = %q, want unverified", result.Decision.Tier)
	}
	if result.Decision.DenialReason != types.DenialUnverified {
		t.Errorf("denialReason = %q, want unverified", result.Decision.DenialReason)
	}
}

func TestMemberCreateValidation(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, _, _ := newMemberFixture(now)

	futureDate := "2030-01-01"
	badDate := "June 1st 2009"

	tests := []struct {
		name string
		req  models.CreateFamilyMemberRequest
	}{
		{
			name: "blank name",
			req:  models.CreateFamilyMemberRequest{FirstName: " ", LastName: "Rivera", Relationship: types.RelationshipChild},
		},
		{
			name: "unknown relationship",
			req:  models.CreateFamilyMemberRequest{FirstName: "Maya", LastName: "Rivera", Relationship: "cousin"},
		},
		{
			name: "future birth date",
			req:  models.CreateFamilyMemberRequest{FirstName: "Maya", LastName: "Rivera", Relationship: types.RelationshipChild, BirthDate: &futureDate},
		},
		{
			name: "malformed birth date",
			req:  models.CreateFamilyMemberRequest{FirstName: "Maya", LastName: "Rivera", Relationship: types.RelationshipChild, BirthDate: &badDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "household-1", &tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestMemberVerifyBirthDate(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, memberRepo, _ := newMemberFixture(now)

	member := memberRepo.add(&repository.FamilyMember{
		HouseholdID:  "household-1",
		FirstName:    "Sam",
		LastName:     "Ortiz",
		Relationship: types.RelationshipSibling,
		Status:       types.MemberActive,
	})

	result, err := svc.VerifyBirthDate(context.Background(), "household-1", member.ID, "2009-06-01")
	if err != nil {
		t.Fatalf("VerifyBirthDate returned error: %v", err)
	}

	if result.Decision.Tier != types.TierSupervised {
		t.Errorf("tier = %q, want supervised after verification", result.Decision.Tier)
	}
	if result.Decision.CanAccessPlatform {
		t.Error("newly supervised member should be pending consent")
	}
}

func TestMemberDeactivate(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, memberRepo, _ := newMemberFixture(now)

	primary := memberRepo.add(&repository.FamilyMember{
		HouseholdID:   "household-1",
		FirstName:     "Dana",
		LastName:      "Rivera",
		Relationship:  types.RelationshipGuardian,
		IsPrimary:     true,
		AdultAsserted: true,
		Status:        types.MemberActive,
	})
	other := memberRepo.add(&repository.FamilyMember{
		HouseholdID:  "household-1",
		FirstName:    "Sam",
		LastName:     "Ortiz",
		Relationship: types.RelationshipSibling,
		Status:       types.MemberActive,
	})

	if err := svc.Deactivate(context.Background(), "household-1", primary.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("deactivating primary contact: error = %v, want ErrInvalidInput", err)
	}

	if err := svc.Deactivate(context.Background(), "household-1", other.ID); err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	if other.Status != types.MemberInactive {
		t.Errorf("status = %q, want inactive", other.Status)
	}
}

func TestMemberHouseholdScoping(t *testing.T) {
	now := date(2025, time.January, 1)
	svc, memberRepo, _ := newMemberFixture(now)

	member := memberRepo.add(&repository.FamilyMember{
		HouseholdID:  "household-1",
		FirstName:    "Maya",
		LastName:     "Rivera",
		Relationship: types.RelationshipChild,
		Status:       types.MemberActive,
	})

	if _, err := svc.Get(context.Background(), "household-9", member.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("error = %v, want ErrMemberNotFound", err)
	}
	if _, err := svc.Get(context.Background(), "household-1", "missing"); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("error = %v, want ErrMemberNotFound", err)
	}
}

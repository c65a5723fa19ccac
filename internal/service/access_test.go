package service

import (
	"testing"
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
)

const testValidity = 365 * 24 * time.Hour

func activeMember(birthDate *time.Time, adultAsserted bool) *repository.FamilyMember {
	return &repository.FamilyMember{
		ID:            "member-1",
		HouseholdID:   "household-1",
		FirstName:     "Test",
		LastName:      "Member",
		Relationship:  types.RelationshipChild,
		AdultAsserted: adultAsserted,
		BirthDate:     birthDate,
		Status:        types.MemberActive,
	}
}

func grantAt(createdAt time.Time) *repository.ConsentRecord {
	return &repository.ConsentRecord{
		ID:             "consent-1",
		FamilyMemberID: "member-1",
		Action:         types.ConsentGrant,
		ActorUserID:    "user-1",
		TermsAccepted:  true,
		CreatedAt:      createdAt,
	}
}

func TestResolveAccess(t *testing.T) {
	now := date(2025, time.January, 1)

	tests := []struct {
		name        string
		member      *repository.FamilyMember
		latest      *repository.ConsentRecord
		wantLevel   string
		wantAccess  bool
		wantLive    bool
		wantRenewal bool
		wantReason  string
	}{
		{
			name:       "adult has full access",
			member:     activeMember(ptrDate(date(1990, time.March, 10)), false),
			wantLevel:  types.AccessFull,
			wantAccess: true,
		},
		{
			name:       "adult asserted without birth date has full access",
			member:     activeMember(nil, true),
			wantLevel:  types.AccessFull,
			wantAccess: true,
		},
		{
			name:       "no birth date is denied as unverified",
			member:     activeMember(nil, false),
			wantLevel:  types.AccessBlocked,
			wantReason: types.DenialUnverified,
		},
		{
			name:       "under fourteen is denied regardless of consent",
			member:     activeMember(ptrDate(date(2015, time.June, 1)), false),
			latest:     grantAt(now.Add(-time.Hour)),
			wantLevel:  types.AccessBlocked,
			wantReason: types.DenialBlocked,
		},
		{
			name:       "supervised without consent is denied",
			member:     activeMember(ptrDate(date(2009, time.June, 1)), false),
			wantLevel:  types.AccessSupervised,
			wantReason: types.DenialConsentRequired,
		},
		{
			name:       "supervised with live grant has access",
			member:     activeMember(ptrDate(date(2009, time.June, 1)), false),
			latest:     grantAt(now.Add(-30 * 24 * time.Hour)),
			wantLevel:  types.AccessSupervised,
			wantAccess: true,
			wantLive:   true,
		},
		{
			name:       "grant on the validity boundary is still live",
			member:     activeMember(ptrDate(date(2009, time.June, 1)), false),
			latest:     grantAt(now.Add(-testValidity)),
			wantLevel:  types.AccessSupervised,
			wantAccess: true,
			wantLive:   true,
		},
		{
			name:        "grant past the validity window requires renewal",
			member:      activeMember(ptrDate(date(2009, time.June, 1)), false),
			latest:      grantAt(now.Add(-testValidity - time.Second)),
			wantLevel:   types.AccessSupervised,
			wantRenewal: true,
			wantReason:  types.DenialConsentRequired,
		},
		{
			name:   "revoked consent denies access",
			member: activeMember(ptrDate(date(2009, time.June, 1)), false),
			latest: &repository.ConsentRecord{
				FamilyMemberID: "member-1",
				Action:         types.ConsentRevoke,
				ActorUserID:    "user-1",
				CreatedAt:      now.Add(-time.Hour),
			},
			wantLevel:  types.AccessSupervised,
			wantReason: types.DenialConsentRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := ResolveAccess(tt.member, tt.latest, now, testValidity)

			if decision.AccessLevel != tt.wantLevel {
				t.Errorf("accessLevel = %q, want %q", decision.AccessLevel, tt.wantLevel)
			}
			if decision.CanAccessPlatform != tt.wantAccess {
				t.Errorf("canAccessPlatform = %v, want %v", decision.CanAccessPlatform, tt.wantAccess)
			}
			if decision.LiveConsent != tt.wantLive {
				t.Errorf("liveConsent = %v, want %v", decision.LiveConsent, tt.wantLive)
			}
			if decision.ConsentRenewalRequired != tt.wantRenewal {
				t.Errorf("consentRenewalRequired = %v, want %v", decision.ConsentRenewalRequired, tt.wantRenewal)
			}
			if decision.DenialReason != tt.wantReason {
				t.Errorf("denialReason = %q, want %q", decision.DenialReason, tt.wantReason)
			}
		})
	}
}

// A grant aging past the validity window flips the decision with no
// intervening write.
func TestResolveAccessLazyExpiry(t *testing.T) {
	member := activeMember(ptrDate(date(2009, time.June, 1)), false)
	granted := date(2024, time.February, 1)
	latest := grantAt(granted)

	before := ResolveAccess(member, latest, granted.Add(testValidity-time.Hour), testValidity)
	if !before.CanAccessPlatform {
		t.Fatal("expected access inside the validity window")
	}

	after := ResolveAccess(member, latest, granted.Add(testValidity+time.Hour), testValidity)
	if after.CanAccessPlatform {
		t.Fatal("expected no access after the validity window")
	}
	if !after.ConsentRenewalRequired {
		t.Error("expected consentRenewalRequired after expiry")
	}
}

// The resolver is deterministic: same inputs, same decision.
func TestResolveAccessIdempotent(t *testing.T) {
	member := activeMember(ptrDate(date(2009, time.June, 1)), false)
	now := date(2025, time.January, 1)
	latest := grantAt(now.Add(-time.Hour))

	first := ResolveAccess(member, latest, now, testValidity)
	second := ResolveAccess(member, latest, now, testValidity)

	if first.Tier != second.Tier ||
		first.AccessLevel != second.AccessLevel ||
		first.CanAccessPlatform != second.CanAccessPlatform ||
		first.LiveConsent != second.LiveConsent ||
		first.DenialReason != second.DenialReason {
		t.Errorf("decisions differ: %+v vs %+v", first, second)
	}
}

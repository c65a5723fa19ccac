package service

import (
	"time"

	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/types"
)

// AccessDecision is the derived access state of one family member. It is
// a pure function of (birth date, consent ledger, reference time) and is
// recomputed on every read; nothing here is ever persisted.
type AccessDecision struct {
	AgeYears               *int
	Tier                   string
	AccessLevel            string
	CanAccessPlatform      bool
	RequiresConsent        bool
	LiveConsent            bool
	ConsentRenewalRequired bool

	// DenialReason is set whenever CanAccessPlatform is false and tells
	// the caller which remediation flow applies.
	DenialReason string
}

// ResolveAccess derives the access decision for a member given the
// latest consent ledger row (nil when the ledger is empty for them).
//
// The resolver fails closed: any state it cannot classify resolves to no
// platform access, never to implicit access.
func ResolveAccess(member *repository.FamilyMember, latest *repository.ConsentRecord, now time.Time, consentValidity time.Duration) AccessDecision {
	age, err := ClassifyAge(member.BirthDate, member.AdultAsserted, now)
	if err != nil {
		// A stored future birth date should be unreachable; treat it as
		// unresolved rather than granting anything.
		return AccessDecision{
			Tier:         types.TierUnverified,
			AccessLevel:  types.AccessBlocked,
			DenialReason: types.DenialUnverified,
		}
	}

	decision := AccessDecision{
		AgeYears: age.AgeYears,
		Tier:     age.Tier,
	}

	switch age.Tier {
	case types.TierBlocked:
		// No consent can override the age block.
		decision.AccessLevel = types.AccessBlocked
		decision.DenialReason = types.DenialBlocked

	case types.TierFull:
		decision.AccessLevel = types.AccessFull
		decision.CanAccessPlatform = true

	case types.TierSupervised:
		decision.AccessLevel = types.AccessSupervised
		decision.RequiresConsent = true

		if latest != nil && latest.Action == types.ConsentGrant {
			if now.Sub(latest.CreatedAt) <= consentValidity {
				decision.LiveConsent = true
				decision.CanAccessPlatform = true
			} else {
				// Grant exists but aged out: expiry is derived at read
				// time, there is no expiry write in the ledger.
				decision.ConsentRenewalRequired = true
			}
		}
		if !decision.CanAccessPlatform {
			decision.DenialReason = types.DenialConsentRequired
		}

	default: // unverified
		decision.AccessLevel = types.AccessBlocked
		decision.DenialReason = types.DenialUnverified
	}

	return decision
}

// MemberWithAccess pairs a stored member with its freshly derived access
// decision.
type MemberWithAccess struct {
	Member   *repository.FamilyMember
	Decision AccessDecision
}

package types

// COPPA tier values derived from a member's birth date
const (
	TierUnverified = "unverified"
	TierBlocked    = "blocked"
	TierSupervised = "supervised"
	TierFull       = "full"
)

// Access level values
const (
	AccessBlocked    = "blocked"
	AccessSupervised = "supervised"
	AccessFull       = "full"
)

// Age boundaries for tier classification. Hard legal thresholds:
// age < 14 blocked, 14-17 supervised, >= 18 full.
const (
	SupervisedMinAge = 14
	FullMinAge       = 18
)

// Relationship values for family members
const (
	RelationshipChild    = "child"
	RelationshipSpouse   = "spouse"
	RelationshipSibling  = "sibling"
	RelationshipGuardian = "guardian"
)

// Family member status values
const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// Consent record actions
const (
	ConsentGrant  = "grant"
	ConsentRevoke = "revoke"
)

// Denial reasons returned by a profile switch evaluation
const (
	DenialUnverified      = "unverified"
	DenialBlocked         = "blocked"
	DenialConsentRequired = "consent_required"
)

// Access log outcomes
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
)

// Valid values for validation
var ValidRelationships = []string{
	RelationshipChild, RelationshipSpouse, RelationshipSibling, RelationshipGuardian,
}

var ValidTiers = []string{
	TierUnverified, TierBlocked, TierSupervised, TierFull,
}

var ValidConsentActions = []string{
	ConsentGrant, ConsentRevoke,
}

var ValidDenialReasons = []string{
	DenialUnverified, DenialBlocked, DenialConsentRequired,
}

// Helper functions for validation
func IsValidRelationship(relationship string) bool {
	for _, r := range ValidRelationships {
		if r == relationship {
			return true
		}
	}
	return false
}

func IsValidTier(tier string) bool {
	for _, t := range ValidTiers {
		if t == tier {
			return true
		}
	}
	return false
}

func IsValidConsentAction(action string) bool {
	for _, a := range ValidConsentActions {
		if a == action {
			return true
		}
	}
	return false
}

func IsValidDenialReason(reason string) bool {
	for _, r := range ValidDenialReasons {
		if r == reason {
			return true
		}
	}
	return false
}

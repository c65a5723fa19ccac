package service

import (
	"fmt"
	"time"

	"github.com/familyhub/family-access-backend/internal/types"
)

// AgeResult is the output of the age classifier: the computed age in
// whole years (nil when no birth date is known) and the COPPA tier it
// falls into.
type AgeResult struct {
	AgeYears *int
	Tier     string
}

// ClassifyAge derives the COPPA tier from a birth date as of a reference
// date. A missing birth date yields the unverified tier unless the member
// asserted adulthood at account creation; unverified is terminal until an
// explicit age-verification step supplies the date.
//
// Tier boundaries: age < 14 blocked, 14 <= age < 18 supervised,
// age >= 18 full. Inclusive/exclusive exactly as stated.
func ClassifyAge(birthDate *time.Time, adultAsserted bool, asOf time.Time) (AgeResult, error) {
	if birthDate == nil {
		if adultAsserted {
			return AgeResult{Tier: types.TierFull}, nil
		}
		return AgeResult{Tier: types.TierUnverified}, nil
	}

	if birthDate.After(asOf) {
		return AgeResult{}, fmt.Errorf("%w: birth date is in the future", ErrInvalidInput)
	}

	age := yearsBetween(*birthDate, asOf)

	result := AgeResult{AgeYears: &age}
	switch {
	case age < types.SupervisedMinAge:
		result.Tier = types.TierBlocked
	case age < types.FullMinAge:
		result.Tier = types.TierSupervised
	default:
		result.Tier = types.TierFull
	}
	return result, nil
}

// yearsBetween computes whole calendar years from birth to asOf,
// subtracting one when the birthday has not yet been reached this year.
func yearsBetween(birth, asOf time.Time) int {
	years := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() ||
		(asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		years--
	}
	return years
}

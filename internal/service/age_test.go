package service

import (
	"errors"
	"testing"
	"time"

	"github.com/familyhub/family-access-backend/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyAge(t *testing.T) {
	asOf := date(2025, time.January, 1)

	tests := []struct {
		name      string
		birthDate *time.Time
		asserted  bool
		wantAge   int
		wantTier  string
		noAge     bool
	}{
		{
			name:      "twelve year old is blocked",
			birthDate: ptrDate(date(2012, time.June, 1)),
			wantAge:   12,
			wantTier:  types.TierBlocked,
		},
		{
			name:      "fifteen year old is supervised",
			birthDate: ptrDate(date(2009, time.June, 1)),
			wantAge:   15,
			wantTier:  types.TierSupervised,
		},
		{
			name:      "fourteenth birthday today enters supervised",
			birthDate: ptrDate(date(2011, time.January, 1)),
			wantAge:   14,
			wantTier:  types.TierSupervised,
		},
		{
			name:      "day before fourteenth birthday is still blocked",
			birthDate: ptrDate(date(2011, time.January, 2)),
			wantAge:   13,
			wantTier:  types.TierBlocked,
		},
		{
			name:      "eighteenth birthday today enters full",
			birthDate: ptrDate(date(2007, time.January, 1)),
			wantAge:   18,
			wantTier:  types.TierFull,
		},
		{
			name:      "seventeen year old is supervised",
			birthDate: ptrDate(date(2007, time.January, 2)),
			wantAge:   17,
			wantTier:  types.TierSupervised,
		},
		{
			name:      "birthday later in the year counts the lower age",
			birthDate: ptrDate(date(2007, time.December, 31)),
			wantAge:   17,
			wantTier:  types.TierSupervised,
		},
		{
			name:     "no birth date is unverified",
			wantTier: types.TierUnverified,
			noAge:    true,
		},
		{
			name:     "no birth date with adult assertion is full",
			asserted: true,
			wantTier: types.TierFull,
			noAge:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ClassifyAge(tt.birthDate, tt.asserted, asOf)
			if err != nil {
				t.Fatalf("ClassifyAge returned error: %v", err)
			}
			if result.Tier != tt.wantTier {
				t.Errorf("tier = %q, want %q", result.Tier, tt.wantTier)
			}
			if tt.noAge {
				if result.AgeYears != nil {
					t.Errorf("ageYears = %d, want nil", *result.AgeYears)
				}
				return
			}
			if result.AgeYears == nil {
				t.Fatal("ageYears is nil")
			}
			if *result.AgeYears != tt.wantAge {
				t.Errorf("ageYears = %d, want %d", *result.AgeYears, tt.wantAge)
			}
		})
	}
}

func TestClassifyAgeFutureBirthDate(t *testing.T) {
	asOf := date(2025, time.January, 1)
	future := date(2025, time.January, 2)

	_, err := ClassifyAge(&future, false, asOf)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func ptrDate(t time.Time) *time.Time {
	return &t
}

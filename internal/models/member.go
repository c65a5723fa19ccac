package models

import "time"

// ============================================
// Family member DTOs
// ============================================

type CreateFamilyMemberRequest struct {
	FirstName    string  `json:"firstName" binding:"required"`
	LastName     string  `json:"lastName" binding:"required"`
	DisplayName  *string `json:"displayName,omitempty"`
	Relationship string  `json:"relationship" binding:"required,oneof=child spouse sibling guardian"`
	// Date in YYYY-MM-DD form; optional, members without one stay in the
	// unverified tier until age verification.
	BirthDate *string `json:"birthDate,omitempty"`
}

type UpdateBirthDateRequest struct {
	BirthDate string `json:"birthDate" binding:"required"`
}

// FamilyMemberResponse carries the stored profile plus the derived access
// fields. The derived fields are recomputed on every read, never stored.
type FamilyMemberResponse struct {
	ID           string  `json:"id"`
	HouseholdID  string  `json:"householdId"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	DisplayName  *string `json:"displayName,omitempty"`
	Relationship string  `json:"relationship"`
	IsPrimary    bool    `json:"isPrimary"`
	BirthDate    *string `json:"birthDate,omitempty"`
	Status       string  `json:"status"`

	AgeYears               *int   `json:"ageYears"`
	CoppaTier              string `json:"coppaTier"`
	AccessLevel            string `json:"accessLevel"`
	CanAccessPlatform      bool   `json:"canAccessPlatform"`
	RequiresParentConsent  bool   `json:"requiresParentConsent"`
	ParentConsentGiven     bool   `json:"parentConsentGiven"`
	ConsentRenewalRequired bool   `json:"consentRenewalRequired"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/repository"
	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth      *AuthHandler
	Member    *MemberHandler
	Consent   *ConsentHandler
	Profile   *ProfileHandler
	AccessLog *AccessLogHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:      &AuthHandler{authService: services.Auth},
		Member:    &MemberHandler{memberService: services.Member},
		Consent:   &ConsentHandler{consentService: services.Consent},
		Profile:   &ProfileHandler{profileService: services.Profile},
		AccessLog: &AccessLogHandler{accessLogService: services.AccessLog},
	}
}

// ============================================
// Error Mapping
// ============================================

// respondServiceError maps service sentinels to HTTP statuses. Conflict
// class errors (409) are all retryable or resolvable by the caller.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConsentEvidenceInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTierForConsent),
		errors.Is(err, service.ErrNoLiveConsent),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMemberNotFound), errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrProfileRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:          u.ID,
		HouseholdID: u.HouseholdID,
		Email:       u.Email,
		Name:        u.Name,
		CreatedAt:   u.CreatedAt,
	}
}

func toFamilyMemberResponse(m *service.MemberWithAccess) models.FamilyMemberResponse {
	member := m.Member
	decision := m.Decision

	resp := models.FamilyMemberResponse{
		ID:           member.ID,
		HouseholdID:  member.HouseholdID,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		DisplayName:  member.DisplayName,
		Relationship: member.Relationship,
		IsPrimary:    member.IsPrimary,
		Status:       member.Status,
		CreatedAt:    member.CreatedAt,
		UpdatedAt:    member.UpdatedAt,

		AgeYears:               decision.AgeYears,
		CoppaTier:              decision.Tier,
		AccessLevel:            decision.AccessLevel,
		CanAccessPlatform:      decision.CanAccessPlatform,
		RequiresParentConsent:  decision.RequiresConsent,
		ParentConsentGiven:     decision.LiveConsent,
		ConsentRenewalRequired: decision.ConsentRenewalRequired,
	}

	if member.BirthDate != nil {
		birthDate := member.BirthDate.Format("2006-01-02")
		resp.BirthDate = &birthDate
	}

	return resp
}

func toConsentRecordResponse(r *repository.ConsentRecord) models.ConsentRecordResponse {
	return models.ConsentRecordResponse{
		ID:            r.ID,
		Action:        r.Action,
		ActorUserID:   r.ActorUserID,
		Signature:     r.Signature,
		TermsAccepted: r.TermsAccepted,
		TermsVersion:  r.TermsVersion,
		RevokeReason:  r.RevokeReason,
		IPAddress:     r.IPAddress,
		UserAgent:     r.UserAgent,
		CreatedAt:     r.CreatedAt,
	}
}

func toAccessLogResponse(e *repository.AccessLogEntry) models.AccessLogResponse {
	return models.AccessLogResponse{
		ID:             e.ID,
		HouseholdID:    e.HouseholdID,
		ActorUserID:    e.ActorUserID,
		TargetMemberID: e.TargetMemberID,
		Outcome:        e.Outcome,
		DenialReason:   e.DenialReason,
		CreatedAt:      e.CreatedAt,
	}
}

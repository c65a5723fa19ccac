package handlers

import (
	"net/http"

	"github.com/familyhub/family-access-backend/internal/api/middleware"
	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Consent Handler
// ============================================

type ConsentHandler struct {
	consentService service.ConsentService
}

func (h *ConsentHandler) Grant(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	var req models.GrantConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evidence := service.ConsentEvidence{
		Signature:     req.Signature,
		TermsAccepted: req.TermsAccepted,
		TermsVersion:  req.TermsVersion,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	}

	member, err := h.consentService.Grant(c.Request.Context(), *identity, c.Param("id"), evidence)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFamilyMemberResponse(member))
}

func (h *ConsentHandler) Revoke(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	var req models.RevokeConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.consentService.Revoke(c.Request.Context(), *identity, c.Param("id"), req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFamilyMemberResponse(member))
}

func (h *ConsentHandler) History(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	records, err := h.consentService.History(c.Request.Context(), identity.HouseholdID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.ConsentRecordResponse, len(records))
	for i, r := range records {
		response[i] = toConsentRecordResponse(r)
	}
	c.JSON(http.StatusOK, response)
}

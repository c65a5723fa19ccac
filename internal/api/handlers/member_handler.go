package handlers

import (
	"net/http"

	"github.com/familyhub/family-access-backend/internal/api/middleware"
	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Family Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

func (h *MemberHandler) Create(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	var req models.CreateFamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.memberService.Create(c.Request.Context(), identity.HouseholdID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toFamilyMemberResponse(member))
}

func (h *MemberHandler) List(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	members, err := h.memberService.List(c.Request.Context(), identity.HouseholdID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := make([]models.FamilyMemberResponse, len(members))
	for i, m := range members {
		response[i] = toFamilyMemberResponse(m)
	}
	c.JSON(http.StatusOK, response)
}

func (h *MemberHandler) Get(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	member, err := h.memberService.Get(c.Request.Context(), identity.HouseholdID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFamilyMemberResponse(member))
}

// VerifyBirthDate records a member's birth date and re-derives their
// access tier.
func (h *MemberHandler) VerifyBirthDate(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	var req models.UpdateBirthDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.memberService.VerifyBirthDate(c.Request.Context(), identity.HouseholdID, c.Param("id"), req.BirthDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFamilyMemberResponse(member))
}

func (h *MemberHandler) Deactivate(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	if err := h.memberService.Deactivate(c.Request.Context(), identity.HouseholdID, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Family member deactivated"})
}

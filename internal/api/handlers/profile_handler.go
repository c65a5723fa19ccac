package handlers

import (
	"net/http"

	"github.com/familyhub/family-access-backend/internal/api/middleware"
	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Profile Handler
// ============================================

type ProfileHandler struct {
	profileService service.ProfileService
}

// Switch evaluates access for the target member and, when allowed,
// rotates the session's token pair onto that profile. A denial is a 403
// with a typed reason, not a generic error.
func (h *ProfileHandler) Switch(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	result, denial, err := h.profileService.Switch(c.Request.Context(), *identity, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if denial != nil {
		c.JSON(http.StatusForbidden, models.DenialResponse{
			Denied: true,
			Reason: denial.Reason,
		})
		return
	}

	c.JSON(http.StatusOK, models.SwitchProfileResponse{
		Token:         result.Token,
		RefreshToken:  result.RefreshToken,
		ActiveProfile: toFamilyMemberResponse(result.ActiveProfile),
	})
}

package api

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ProfileHandler struct {
	photoService service.PhotoService
	log          zerolog.Logger
}

func NewProfileHandler(photoService service.PhotoService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{photoService: photoService, log: log}
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"max=200"`
	Bio         string `json:"bio" binding:"max=2000"`
}

type ProfileResponse struct {
	OwnerID      string           `json:"ownerId"`
	DisplayName  string           `json:"displayName"`
	Bio          string           `json:"bio"`
	Photos       domain.PhotoList `json:"photos"`
	PrimaryPhoto string           `json:"primaryPhoto,omitempty"`
}

// GetProfile godoc
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	profile, err := h.photoService.GetProfile(c.Request.Context(), ownerID)
	if err != nil {
		h.log.Error().Err(err).Str("owner", ownerID).Msg("load profile failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to load profile.")
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// UpdateProfile godoc
// @Summary Update display name and bio
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile details"
// @Success 200 {object} ProfileResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.photoService.UpdateProfile(c.Request.Context(), ownerID, req.DisplayName, req.Bio)
	if err != nil {
		h.log.Error().Err(err).Str("owner", ownerID).Msg("update profile failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to update profile.")
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

func MapProfileToResponse(p *domain.Profile) ProfileResponse {
	if p == nil {
		return ProfileResponse{Photos: domain.PhotoList{}}
	}
	photos := p.Photos
	if photos == nil {
		photos = domain.PhotoList{}
	}
	return ProfileResponse{
		OwnerID:      p.OwnerID,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		Photos:       photos,
		PrimaryPhoto: p.PrimaryPhoto(),
	}
}

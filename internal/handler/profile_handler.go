package handler

import (
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile and family sharing requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest represents the update profile request. An empty email
// clears it.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// InviteMemberRequest represents the invite member request
type InviteMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateMemberRequest represents the update member request
type UpdateMemberRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	profile, err := h.profileService.GetProfile(c.Request().Context())
	if err != nil {
		return NewServiceError(c, err, "Failed to get profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	profile, err := h.profileService.UpdateProfile(c.Request().Context(), service.UpdateProfileInput{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to update profile")
	}
	return c.JSON(http.StatusOK, profile)
}

// GetFamily handles GET /api/v1/family
func (h *ProfileHandler) GetFamily(c echo.Context) error {
	family, err := h.profileService.GetFamily(c.Request().Context())
	if err != nil {
		return NewServiceError(c, err, "Failed to get family group")
	}
	return c.JSON(http.StatusOK, family)
}

// InviteMember handles POST /api/v1/family/members
func (h *ProfileHandler) InviteMember(c echo.Context) error {
	var req InviteMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	member, err := h.profileService.InviteMember(c.Request().Context(), service.InviteMemberInput{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to invite member")
	}

	log.Info().Str("member_id", member.ID).Msg("Family member invited")
	return c.JSON(http.StatusCreated, member)
}

// UpdateMember handles PUT /api/v1/family/members/:id
func (h *ProfileHandler) UpdateMember(c echo.Context) error {
	var req UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	member, err := h.profileService.UpdateMember(c.Request().Context(), c.Param("id"), service.UpdateMemberInput{
		Name: req.Name,
		Role: domain.MemberRole(req.Role),
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to update member")
	}
	return c.JSON(http.StatusOK, member)
}

// RemoveMember handles DELETE /api/v1/family/members/:id
func (h *ProfileHandler) RemoveMember(c echo.Context) error {
	if err := h.profileService.RemoveMember(c.Request().Context(), c.Param("id")); err != nil {
		return NewServiceError(c, err, "Failed to remove member")
	}
	return c.NoContent(http.StatusNoContent)
}

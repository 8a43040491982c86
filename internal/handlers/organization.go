package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/middleware"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/services"
)

type OrganizationHandler struct {
	orgs *services.OrganizationService
}

func NewOrganizationHandler(orgs *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

// CreateOrganization creates a new organization with the caller as owner
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateOrgRequest struct {
		Name                  string `json:"name" binding:"required"`
		MajorityVoteNumber    *int   `json:"majority_vote_number"`
		RequireMotionApproval bool   `json:"require_motion_approval"`
		RequireTaskApproval   bool   `json:"require_task_approval"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgs.CreateOrganization(services.CreateOrganizationInput{
		Name:                  req.Name,
		OwnerID:               userID,
		MajorityVoteNumber:    req.MajorityVoteNumber,
		RequireMotionApproval: req.RequireMotionApproval,
		RequireTaskApproval:   req.RequireTaskApproval,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org, true))
}

// ListOrganizations returns all organizations the user is a member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	memberships, err := h.orgs.ListOrganizationsForUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrganizationWithRoleDTOs(memberships),
	})
}

// GetOrganization returns organization details
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	// Organization and membership are loaded by RequireOrganizationAccess
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}
	member, _ := middleware.GetOrganizationMember(c)

	_, members, err := h.orgs.GetOrganizationWithMembers(org.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(org, members, member))
}

// UpdateOrganization updates the name, majority threshold or approval policy
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	type UpdateOrgRequest struct {
		Name                  *string `json:"name"`
		MajorityVoteNumber    *int    `json:"majority_vote_number"`
		RequireMotionApproval *bool   `json:"require_motion_approval"`
		RequireTaskApproval   *bool   `json:"require_task_approval"`
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.orgs.UpdateOrganization(org.ID, services.UpdateOrganizationInput{
		Name:                  req.Name,
		MajorityVoteNumber:    req.MajorityVoteNumber,
		RequireMotionApproval: req.RequireMotionApproval,
		RequireTaskApproval:   req.RequireTaskApproval,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*updated, true))
}

// DeleteOrganization deletes an organization
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	if err := h.orgs.DeleteOrganization(org.ID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted successfully",
	})
}

// JoinOrganization allows a user to join via invite code
func (h *OrganizationHandler) JoinOrganization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgs.JoinOrganizationByInvite(userID, req.InviteCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Successfully joined organization",
		"organization": dto.ToOrganizationDTO(*org, false),
	})
}

// RegenerateInviteCode generates a new invite code for the organization
func (h *OrganizationHandler) RegenerateInviteCode(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}

	updated, err := h.orgs.RegenerateInviteCode(org.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*updated, true))
}

// RemoveMember removes a member from the organization
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.orgs.RemoveMember(org.ID, actorID, targetID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// ChangeMemberRole sets the role of another member
func (h *OrganizationHandler) ChangeMemberRole(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not found in context")
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := uintParam(c, "user_id")
	if !ok {
		return
	}

	type ChangeRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.orgs.ChangeMemberRole(org.ID, actorID, targetID, models.OrganizationRole(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": member.OrganizationID,
		"user_id":         member.UserID,
		"role":            member.Role,
	})
}

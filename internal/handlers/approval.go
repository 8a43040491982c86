package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/services"
)

// ApprovalHandler serves the approval workflow
type ApprovalHandler struct {
	approvals *services.ApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvals *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// ListApprovals returns the approvals of an organization, filtered by
// type, status, submitter and submission window
func (h *ApprovalHandler) ListApprovals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	orgID, ok := requiredUintQuery(c, "organization_id")
	if !ok {
		return
	}
	submittedBy, ok := uintQuery(c, "submitted_by")
	if !ok {
		return
	}
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}

	approvals, err := h.approvals.ListApprovals(services.ListApprovalsInput{
		OrganizationID: orgID,
		ActorID:        userID,
		Type:           c.Query("type"),
		Status:         c.Query("status"),
		SubmittedByID:  submittedBy,
		SubmittedFrom:  from,
		SubmittedTo:    to,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"approvals": dto.ToApprovalDTOs(approvals),
	})
}

// CreateApproval files an approval request
func (h *ApprovalHandler) CreateApproval(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateApprovalRequest struct {
		OrganizationID uint64 `json:"organization_id" binding:"required"`
		Type           string `json:"type" binding:"required"`
		RelatedID      uint64 `json:"related_id" binding:"required"`
		Description    string `json:"description"`
	}

	var req CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	approval, err := h.approvals.CreateApproval(services.CreateApprovalInput{
		OrganizationID: req.OrganizationID,
		SubmittedByID:  userID,
		Type:           models.ApprovalType(req.Type),
		RelatedID:      req.RelatedID,
		Description:    req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToApprovalDTO(*approval))
}

// ProcessApproval approves or rejects a pending approval
func (h *ApprovalHandler) ProcessApproval(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	approvalID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	type ProcessApprovalRequest struct {
		Action   string `json:"action" binding:"required"`
		Comments string `json:"comments"`
	}

	var req ProcessApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	approval, err := h.approvals.ProcessApproval(c.Request.Context(), services.ProcessApprovalInput{
		ApprovalID: approvalID,
		ActorID:    userID,
		Action:     req.Action,
		Comments:   req.Comments,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalDTO(*approval))
}

// GetApprovalStats counts an organization's approvals by type and status
func (h *ApprovalHandler) GetApprovalStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orgID, ok := requiredUintQuery(c, "organization_id")
	if !ok {
		return
	}

	stats, err := h.approvals.ApprovalStats(orgID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": dto.ToApprovalStatsDTO(stats),
	})
}

// timeQuery parses an optional RFC 3339 query parameter
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name+", expected RFC 3339")
		return nil, false
	}
	return &t, true
}

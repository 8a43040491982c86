package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/services"
)

// VoteHandler serves the vote ledger
type VoteHandler struct {
	lifecycle *services.MotionLifecycle
	ledger    *services.VoteLedger
	motions   *services.MotionService
	orgs      *services.OrganizationService
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(
	lifecycle *services.MotionLifecycle,
	ledger *services.VoteLedger,
	motions *services.MotionService,
	orgs *services.OrganizationService,
) *VoteHandler {
	return &VoteHandler{
		lifecycle: lifecycle,
		ledger:    ledger,
		motions:   motions,
		orgs:      orgs,
	}
}

// CastVote records the current user's vote on a motion
func (h *VoteHandler) CastVote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CastVoteRequest struct {
		MotionID uint64  `json:"motion_id" binding:"required"`
		UserID   *uint64 `json:"user_id"`
		VoteType string  `json:"vote_type" binding:"required"`
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Members vote for themselves only
	if req.UserID != nil && *req.UserID != userID {
		apierrors.Forbidden(c, "You can only vote for yourself")
		return
	}

	vote, err := h.lifecycle.CastVote(c.Request.Context(), services.CastVoteInput{
		MotionID: req.MotionID,
		VoterID:  userID,
		VoteType: models.VoteType(req.VoteType),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToVoteDTO(*vote))
}

// GetTally returns the for and against counts of a motion and how the
// given user (the caller by default) voted
func (h *VoteHandler) GetTally(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	motionID, ok := requiredUintQuery(c, "motion_id")
	if !ok {
		return
	}
	subject, ok := uintQuery(c, "user_id")
	if !ok {
		return
	}

	if _, err := h.motionMembership(motionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	if subject != nil {
		userID = *subject
	}

	tally, err := h.ledger.Tally(motionID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	userVote, err := h.ledger.VoteOf(motionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TallyResponse{
		Tally:    dto.TallyDTO{For: tally.For, Against: tally.Against},
		UserVote: userVote,
	})
}

// ListVotes returns the votes of a motion with their voters
func (h *VoteHandler) ListVotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	motionID, ok := requiredUintQuery(c, "motion_id")
	if !ok {
		return
	}

	if _, err := h.motionMembership(motionID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	votes, err := h.ledger.ListVotes(motionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"votes": dto.ToVoteDTOs(votes),
	})
}

// DeleteVote removes a vote. Only organization owners and admins may do
// this; the motion is not re-evaluated.
func (h *VoteHandler) DeleteVote(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	voteID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	vote, err := h.ledger.FindVote(voteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	member, err := h.motionMembership(vote.MotionID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !member.Role.CanProcessApprovals() {
		apierrors.Forbidden(c, "Only organization owners and admins can delete votes")
		return
	}

	if err := h.ledger.DeleteVote(voteID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vote deleted successfully",
	})
}

// motionMembership resolves the user's membership in the organization
// owning the motion
func (h *VoteHandler) motionMembership(motionID, userID uint64) (*models.OrganizationMember, error) {
	motion, err := h.motions.GetMotion(motionID)
	if err != nil {
		return nil, err
	}
	return h.orgs.Membership(motion.OrganizationID, userID)
}

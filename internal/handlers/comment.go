package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wegovern/governance-api/internal/dto"
	apierrors "github.com/wegovern/governance-api/internal/errors"
	"github.com/wegovern/governance-api/internal/repository"
	"github.com/wegovern/governance-api/internal/services"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// ListComments returns the threads on the record named by exactly one of
// motion_id, issue_id or task_id
func (h *CommentHandler) ListComments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var target repository.CommentTarget
	for name, dst := range map[string]**uint64{
		"motion_id": &target.MotionID,
		"issue_id":  &target.IssueID,
		"task_id":   &target.TaskID,
	} {
		v, ok := uintQuery(c, name)
		if !ok {
			return
		}
		*dst = v
	}

	comments, err := h.comments.ListComments(target, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments, userID),
	})
}

// CreateComment posts a comment or a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateCommentRequest struct {
		MotionID *uint64 `json:"motion_id"`
		IssueID  *uint64 `json:"issue_id"`
		TaskID   *uint64 `json:"task_id"`
		ParentID *uint64 `json:"parent_id"`
		Text     string  `json:"text" binding:"required"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.CreateComment(c.Request.Context(), services.CreateCommentInput{
		Target: repository.CommentTarget{
			MotionID: req.MotionID,
			IssueID:  req.IssueID,
			TaskID:   req.TaskID,
		},
		AuthorID: userID,
		ParentID: req.ParentID,
		Text:     req.Text,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment, userID))
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	type UpdateCommentRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.UpdateComment(c.Request.Context(), commentID, userID, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment, userID))
}

// DeleteComment soft deletes the caller's own comment
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}

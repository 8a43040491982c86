package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/repository"
)

// ApprovalDTO represents an approval request
type ApprovalDTO struct {
	ID             uint64                `json:"id"`
	OrganizationID uint64                `json:"organization_id"`
	Type           models.ApprovalType   `json:"type"`
	Status         models.ApprovalStatus `json:"status"`
	Description    string                `json:"description"`
	RelatedID      uint64                `json:"related_id"`
	SubmittedAt    time.Time             `json:"submitted_at"`
	ProcessedAt    *time.Time            `json:"processed_at"`
	SubmittedBy    *UserDTO              `json:"submitted_by,omitempty"`
	ProcessedBy    *UserDTO              `json:"processed_by,omitempty"`
}

// ApprovalStatsDTO counts approvals per type and status
type ApprovalStatsDTO map[models.ApprovalType]map[models.ApprovalStatus]int64

// ToApprovalDTO converts an Approval model to ApprovalDTO
func ToApprovalDTO(approval models.Approval) ApprovalDTO {
	dto := ApprovalDTO{
		ID:             approval.ID,
		OrganizationID: approval.OrganizationID,
		Type:           approval.Type,
		Status:         approval.Status,
		Description:    approval.Description,
		RelatedID:      approval.RelatedID,
		SubmittedAt:    approval.SubmittedAt,
		ProcessedAt:    approval.ProcessedAt,
	}
	if approval.SubmittedBy.ID != 0 {
		submitter := ToUserDTO(approval.SubmittedBy)
		dto.SubmittedBy = &submitter
	}
	if approval.ProcessedBy != nil && approval.ProcessedBy.ID != 0 {
		processor := ToUserDTO(*approval.ProcessedBy)
		dto.ProcessedBy = &processor
	}
	return dto
}

// ToApprovalDTOs converts a slice of approvals
func ToApprovalDTOs(approvals []models.Approval) []ApprovalDTO {
	items := make([]ApprovalDTO, len(approvals))
	for i, approval := range approvals {
		items[i] = ToApprovalDTO(approval)
	}
	return items
}

// ToApprovalStatsDTO folds stat rows into a type -> status -> count map.
// Every known type and status is present, zero when no row matched.
func ToApprovalStatsDTO(stats []repository.ApprovalStat) ApprovalStatsDTO {
	out := ApprovalStatsDTO{}
	for _, t := range []models.ApprovalType{models.ApprovalTypeMotion, models.ApprovalTypeTask} {
		out[t] = map[models.ApprovalStatus]int64{
			models.ApprovalStatusPending:  0,
			models.ApprovalStatusApproved: 0,
			models.ApprovalStatusRejected: 0,
		}
	}
	for _, s := range stats {
		if _, ok := out[s.Type]; !ok {
			out[s.Type] = map[models.ApprovalStatus]int64{}
		}
		out[s.Type][s.Status] += s.Count
	}
	return out
}

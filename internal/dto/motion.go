package dto

import (
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

// VoteDTO represents a cast vote
type VoteDTO struct {
	ID        uint64          `json:"id"`
	MotionID  uint64          `json:"motion_id"`
	UserID    uint64          `json:"user_id"`
	VoteType  models.VoteType `json:"vote_type"`
	CreatedAt time.Time       `json:"created_at"`
	User      *UserDTO        `json:"user,omitempty"`
}

// TallyDTO counts the votes of a motion
type TallyDTO struct {
	For     int `json:"for"`
	Against int `json:"against"`
}

// TallyResponse is the body of GET /votes/tally. UserVote is null when
// the user has not voted.
type TallyResponse struct {
	Tally    TallyDTO         `json:"tally"`
	UserVote *models.VoteType `json:"user_vote"`
}

// MotionDTO represents a motion in API responses
type MotionDTO struct {
	ID             uint64              `json:"id"`
	OrganizationID uint64              `json:"organization_id"`
	AuthorID       uint64              `json:"author_id"`
	IssueID        *uint64             `json:"issue_id"`
	Summary        string              `json:"summary"`
	Text           string              `json:"text"`
	Discussion     string              `json:"discussion"`
	Status         models.MotionStatus `json:"status"`
	DecidedAt      *time.Time          `json:"decided_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Author         *UserDTO            `json:"author,omitempty"`
	Tally          TallyDTO            `json:"tally"`
	Votes          []VoteDTO           `json:"votes,omitempty"`
	Tasks          []TaskDTO           `json:"tasks,omitempty"`
}

// MotionListResponse represents a paginated list of motions
type MotionListResponse struct {
	Motions    []MotionDTO `json:"motions"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int64       `json:"total_count"`
	TotalPages int         `json:"total_pages"`
}

// ToVoteDTO converts a Vote model to VoteDTO
func ToVoteDTO(vote models.Vote) VoteDTO {
	dto := VoteDTO{
		ID:        vote.ID,
		MotionID:  vote.MotionID,
		UserID:    vote.UserID,
		VoteType:  vote.Type,
		CreatedAt: vote.CreatedAt,
	}
	if vote.User.ID != 0 {
		user := ToUserDTO(vote.User)
		dto.User = &user
	}
	return dto
}

// ToVoteDTOs converts a slice of votes
func ToVoteDTOs(votes []models.Vote) []VoteDTO {
	items := make([]VoteDTO, len(votes))
	for i, vote := range votes {
		items[i] = ToVoteDTO(vote)
	}
	return items
}

// ToMotionDTO converts a Motion model to MotionDTO. The tally is counted
// from the preloaded votes; withVotes controls whether they are listed.
func ToMotionDTO(motion models.Motion, withVotes bool) MotionDTO {
	dto := MotionDTO{
		ID:             motion.ID,
		OrganizationID: motion.OrganizationID,
		AuthorID:       motion.AuthorID,
		IssueID:        motion.IssueID,
		Summary:        motion.Summary,
		Text:           motion.Text,
		Discussion:     motion.Discussion,
		Status:         motion.Status,
		DecidedAt:      motion.DecidedAt,
		CreatedAt:      motion.CreatedAt,
		UpdatedAt:      motion.UpdatedAt,
	}

	if motion.Author.ID != 0 {
		author := ToUserDTO(motion.Author)
		dto.Author = &author
	}

	for _, v := range motion.Votes {
		switch v.Type {
		case models.VoteFor:
			dto.Tally.For++
		case models.VoteAgainst:
			dto.Tally.Against++
		}
	}

	if withVotes && len(motion.Votes) > 0 {
		dto.Votes = ToVoteDTOs(motion.Votes)
	}
	if len(motion.Tasks) > 0 {
		dto.Tasks = ToTaskDTOs(motion.Tasks)
	}

	return dto
}

// ToMotionListResponse converts a slice of motions to MotionListResponse
func ToMotionListResponse(motions []models.Motion, page, pageSize int, totalCount int64) MotionListResponse {
	items := make([]MotionDTO, len(motions))
	for i, motion := range motions {
		items[i] = ToMotionDTO(motion, false)
	}

	return MotionListResponse{
		Motions:    items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

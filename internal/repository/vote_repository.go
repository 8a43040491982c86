package repository

import (
	"errors"

	"github.com/wegovern/governance-api/internal/models"
	"gorm.io/gorm"
)

// GormVoteRepository is a GORM implementation of VoteRepository
type GormVoteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &GormVoteRepository{db: db}
}

// Create inserts a vote
func (r *GormVoteRepository) Create(vote *models.Vote) error {
	err := r.db.Omit("Motion", "User").Create(vote).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrVoteExists
	}
	return err
}

// FindByID finds a vote by ID
func (r *GormVoteRepository) FindByID(id uint64) (*models.Vote, error) {
	var vote models.Vote
	if err := r.db.First(&vote, id).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

// FindByMotionAndUser finds the vote a user cast on a motion
func (r *GormVoteRepository) FindByMotionAndUser(motionID, userID uint64) (*models.Vote, error) {
	var vote models.Vote
	if err := r.db.Where("motion_id = ? AND user_id = ?", motionID, userID).
		First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

// ListByMotion lists the votes of a motion ordered by vote ID, which is cast order
func (r *GormVoteRepository) ListByMotion(motionID uint64, preloadUser bool) ([]models.Vote, error) {
	var votes []models.Vote
	query := r.db.Where("motion_id = ?", motionID).Order("id ASC")
	if preloadUser {
		query = query.Preload("User")
	}
	if err := query.Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// CountByType counts the votes of a motion grouped by vote type
func (r *GormVoteRepository) CountByType(motionID uint64) (map[models.VoteType]int, error) {
	var rows []struct {
		Type  models.VoteType
		Count int
	}
	if err := r.db.Model(&models.Vote{}).
		Select("type, COUNT(*) AS count").
		Where("motion_id = ?", motionID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.VoteType]int, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// Delete removes a vote
func (r *GormVoteRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.Vote{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

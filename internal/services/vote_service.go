package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wegovern/governance-api/internal/metrics"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrDuplicateVote    = errors.New("user already voted on this motion")
	ErrInvalidVoteType  = errors.New("vote type must be \"for\" or \"against\"")
	ErrVoteInputMissing = errors.New("motion ID and voter ID are required")
	ErrMotionNotFound   = errors.New("motion not found")
	ErrVoteNotFound     = errors.New("vote not found")
)

// VoteLedger records votes and derives tallies from them. It does not look
// at motion status; callers decide whether a motion is open.
type VoteLedger struct {
	voteRepo    repository.VoteRepository
	motionRepo  repository.MotionRepository
	userRepo    repository.UserRepository
	broadcaster realtime.Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewVoteLedger creates a new VoteLedger
func NewVoteLedger(
	voteRepo repository.VoteRepository,
	motionRepo repository.MotionRepository,
	userRepo repository.UserRepository,
	broadcaster realtime.Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VoteLedger {
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteLedger{
		voteRepo:    voteRepo,
		motionRepo:  motionRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.With("component", "vote_ledger"),
	}
}

// CastVoteInput represents a single vote
type CastVoteInput struct {
	MotionID uint64
	VoterID  uint64
	VoteType models.VoteType
}

// CastVote records a vote. A second vote by the same member on the same
// motion fails with ErrDuplicateVote and leaves the first vote untouched.
func (l *VoteLedger) CastVote(ctx context.Context, input CastVoteInput) (*models.Vote, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	motion, err := l.findMotion(input.MotionID)
	if err != nil {
		return nil, err
	}
	if err := l.findVoter(input.VoterID); err != nil {
		return nil, err
	}
	return l.record(ctx, motion, input)
}

func (input CastVoteInput) validate() error {
	if input.MotionID == 0 || input.VoterID == 0 {
		return ErrVoteInputMissing
	}
	if !input.VoteType.Valid() {
		return ErrInvalidVoteType
	}
	return nil
}

func (l *VoteLedger) findVoter(voterID uint64) error {
	if _, err := l.userRepo.FindByID(voterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}

// record inserts the vote for an already loaded motion and voter.
func (l *VoteLedger) record(ctx context.Context, motion *models.Motion, input CastVoteInput) (*models.Vote, error) {
	if _, err := l.voteRepo.FindByMotionAndUser(motion.ID, input.VoterID); err == nil {
		l.metrics.ObserveDuplicateVote()
		return nil, ErrDuplicateVote
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	vote := &models.Vote{
		MotionID: motion.ID,
		UserID:   input.VoterID,
		Type:     input.VoteType,
	}

	// The unique index decides races that slip past the lookup above.
	if err := l.voteRepo.Create(vote); err != nil {
		if errors.Is(err, repository.ErrVoteExists) {
			l.metrics.ObserveDuplicateVote()
			return nil, ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	l.metrics.ObserveVote(vote.Type)

	ev := realtime.NewEvent(realtime.EventVote, motion.OrganizationID, motion.ID, vote)
	if err := l.broadcaster.Publish(ctx, motion.OrganizationID, ev); err != nil {
		l.metrics.ObserveNotifyFailure()
		l.logger.Warn("failed to publish vote event", "motion_id", motion.ID, "vote_id", vote.ID, "error", err)
	}

	return vote, nil
}

// Tally counts the votes of a motion. With withVoters it also lists the
// voters on each side in cast order.
func (l *VoteLedger) Tally(motionID uint64, withVoters bool) (Tally, error) {
	if !withVoters {
		counts, err := l.voteRepo.CountByType(motionID)
		if err != nil {
			return Tally{}, fmt.Errorf("failed to count votes: %w", err)
		}
		return Tally{For: counts[models.VoteFor], Against: counts[models.VoteAgainst]}, nil
	}

	votes, err := l.voteRepo.ListByMotion(motionID, false)
	if err != nil {
		return Tally{}, fmt.Errorf("failed to load votes: %w", err)
	}

	var t Tally
	for _, v := range votes {
		switch v.Type {
		case models.VoteFor:
			t.For++
			t.ForVoters = append(t.ForVoters, v.UserID)
		case models.VoteAgainst:
			t.Against++
			t.AgainstVoters = append(t.AgainstVoters, v.UserID)
		}
	}

	return t, nil
}

// VoteOf returns the vote type the voter cast on the motion, or nil.
func (l *VoteLedger) VoteOf(motionID, voterID uint64) (*models.VoteType, error) {
	vote, err := l.voteRepo.FindByMotionAndUser(motionID, voterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}
	return &vote.Type, nil
}

// ListVotes returns the votes of a motion with their voters, in cast order
func (l *VoteLedger) ListVotes(motionID uint64) ([]models.Vote, error) {
	if _, err := l.findMotion(motionID); err != nil {
		return nil, err
	}

	votes, err := l.voteRepo.ListByMotion(motionID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

// FindVote returns a single vote
func (l *VoteLedger) FindVote(voteID uint64) (*models.Vote, error) {
	vote, err := l.voteRepo.FindByID(voteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}
	return vote, nil
}

// DeleteVote removes a vote. The motion's status is not re-evaluated.
func (l *VoteLedger) DeleteVote(voteID uint64) error {
	if err := l.voteRepo.Delete(voteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVoteNotFound
		}
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}

func (l *VoteLedger) findMotion(motionID uint64) (*models.Motion, error) {
	motion, err := l.motionRepo.FindByID(motionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotionNotFound
		}
		return nil, fmt.Errorf("failed to find motion: %w", err)
	}
	return motion, nil
}

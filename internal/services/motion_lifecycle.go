package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wegovern/governance-api/internal/metrics"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/notify"
	"github.com/wegovern/governance-api/internal/realtime"
	"github.com/wegovern/governance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMotionNotOpen    = errors.New("motion is not open for voting")
	ErrInvalidThreshold = errors.New("majority vote number must be at least 1")
)

// MotionLifecycle drives a motion from pending to its outcome as votes
// arrive, and repairs motions whose evaluation was missed.
type MotionLifecycle struct {
	ledger      *VoteLedger
	motionRepo  repository.MotionRepository
	orgRepo     repository.OrganizationRepository
	dispatcher  notify.Dispatcher
	broadcaster realtime.Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewMotionLifecycle creates a new MotionLifecycle
func NewMotionLifecycle(
	ledger *VoteLedger,
	motionRepo repository.MotionRepository,
	orgRepo repository.OrganizationRepository,
	dispatcher notify.Dispatcher,
	broadcaster realtime.Broadcaster,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MotionLifecycle {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	if broadcaster == nil {
		broadcaster = realtime.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MotionLifecycle{
		ledger:      ledger,
		motionRepo:  motionRepo,
		orgRepo:     orgRepo,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.With("component", "motion_lifecycle"),
		now:         time.Now,
	}
}

// MotionStatusPayload is the payload of a motion_status event
type MotionStatusPayload struct {
	Motion *models.Motion      `json:"motion"`
	Status models.MotionStatus `json:"status"`
}

// ReconcileReport summarizes one ReconcileAll sweep
type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Passed   int `json:"passed"`
	Defeated int `json:"defeated"`
	Failed   int `json:"failed"`
}

// CastVote records a member's vote on a pending motion and evaluates the
// motion. The vote is returned even when evaluation fails; a later
// reconciliation picks the motion up again.
func (c *MotionLifecycle) CastVote(ctx context.Context, input CastVoteInput) (*models.Vote, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	motion, err := c.ledger.findMotion(input.MotionID)
	if err != nil {
		return nil, err
	}
	if err := c.ledger.findVoter(input.VoterID); err != nil {
		return nil, err
	}

	if _, err := c.orgRepo.FindMember(motion.OrganizationID, input.VoterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}

	if motion.Status != models.MotionStatusPending {
		return nil, ErrMotionNotOpen
	}

	vote, err := c.ledger.record(ctx, motion, input)
	if err != nil {
		return nil, err
	}

	if _, err := c.OnVoteCast(ctx, motion.ID); err != nil {
		c.logger.Error("motion evaluation failed after vote", "motion_id", motion.ID, "vote_id", vote.ID, "error", err)
	}

	return vote, nil
}

// OnVoteCast re-tallies a motion and, when the threshold is reached,
// decides it. Only the caller whose update moved the motion out of
// pending sees a non-NoChange decision and fires notifications.
func (c *MotionLifecycle) OnVoteCast(ctx context.Context, motionID uint64) (Decision, error) {
	motion, err := c.motionRepo.FindByID(motionID, "Organization")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NoChange, ErrMotionNotFound
		}
		return NoChange, fmt.Errorf("failed to find motion: %w", err)
	}

	if motion.Status != models.MotionStatusPending {
		return NoChange, nil
	}

	threshold := motion.Organization.MajorityVoteNumber
	if threshold < 1 {
		return NoChange, fmt.Errorf("organization %d: %w", motion.OrganizationID, ErrInvalidThreshold)
	}

	tally, err := c.ledger.Tally(motionID, false)
	if err != nil {
		return NoChange, err
	}

	decision := Evaluate(tally, threshold, motion.Status)
	if decision == NoChange {
		return NoChange, nil
	}

	decidedAt := c.now().UTC()
	applied, err := c.motionRepo.Decide(motionID, decision.Status(), decidedAt)
	if err != nil {
		return NoChange, fmt.Errorf("failed to update motion status: %w", err)
	}
	if !applied {
		return NoChange, nil
	}

	c.metrics.ObserveTransition(decision.Status())
	c.logger.Info("motion decided",
		"motion_id", motionID,
		"organization_id", motion.OrganizationID,
		"status", decision.Status(),
		"for", tally.For,
		"against", tally.Against,
		"threshold", threshold,
	)

	motion.Status = decision.Status()
	motion.DecidedAt = &decidedAt
	c.announce(ctx, motion)

	return decision, nil
}

// ReconcileAll evaluates every pending motion. A failing motion does not
// stop the sweep; all failures are joined into the returned error.
func (c *MotionLifecycle) ReconcileAll(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	ids, err := c.motionRepo.ListIDsByStatus(models.MotionStatusPending)
	if err != nil {
		return report, fmt.Errorf("failed to list pending motions: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		report.Scanned++
		decision, err := c.OnVoteCast(ctx, id)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("motion %d: %w", id, err))
			continue
		}

		switch decision {
		case Passed:
			report.Passed++
		case Defeated:
			report.Defeated++
		}
	}

	c.metrics.ObserveReconcile(report.Failed)
	c.logger.Info("reconciliation finished",
		"scanned", report.Scanned,
		"passed", report.Passed,
		"defeated", report.Defeated,
		"failed", report.Failed,
	)

	return report, errors.Join(errs...)
}

// announce never fails the transition it reports on.
func (c *MotionLifecycle) announce(ctx context.Context, motion *models.Motion) {
	if err := c.dispatcher.NotifyMotionStatusChange(ctx, motion.ID, motion.Status); err != nil {
		c.metrics.ObserveNotifyFailure()
		c.logger.Warn("failed to send status notification", "motion_id", motion.ID, "error", err)
	}

	ev := realtime.NewEvent(realtime.EventMotionStatus, motion.OrganizationID, motion.ID, MotionStatusPayload{
		Motion: motion,
		Status: motion.Status,
	})
	if err := c.broadcaster.Publish(ctx, motion.OrganizationID, ev); err != nil {
		c.metrics.ObserveNotifyFailure()
		c.logger.Warn("failed to publish status event", "motion_id", motion.ID, "error", err)
	}
}

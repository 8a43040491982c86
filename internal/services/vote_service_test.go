package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wegovern/governance-api/internal/models"
	"github.com/wegovern/governance-api/internal/realtime"
)

func TestVoteLedger_CastVoteRecordsAndPublishes(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 3, owner)
	motion := e.motion(t, org, owner)

	vote, err := e.ledger.CastVote(context.Background(), CastVoteInput{MotionID: motion.ID, VoterID: owner.ID, VoteType: models.VoteFor})
	require.NoError(t, err)
	assert.NotZero(t, vote.ID)
	assert.Equal(t, models.VoteFor, vote.Type)

	events := e.broadcaster.ofType(realtime.EventVote)
	require.Len(t, events, 1)
	assert.Equal(t, org.ID, events[0].OrganizationID)
	assert.Equal(t, motion.ID, *events[0].MotionID)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.VotesCast.WithLabelValues("for")))
}

func TestVoteLedger_DuplicateVoteLeavesFirstVote(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 3, owner)
	motion := e.motion(t, org, owner)

	_, err := e.ledger.CastVote(context.Background(), CastVoteInput{MotionID: motion.ID, VoterID: owner.ID, VoteType: models.VoteFor})
	require.NoError(t, err)

	_, err = e.ledger.CastVote(context.Background(), CastVoteInput{MotionID: motion.ID, VoterID: owner.ID, VoteType: models.VoteAgainst})
	assert.ErrorIs(t, err, ErrDuplicateVote)

	tally, err := e.ledger.Tally(motion.ID, false)
	require.NoError(t, err)
	assert.Equal(t, Tally{For: 1}, tally)

	vt, err := e.ledger.VoteOf(motion.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, vt)
	assert.Equal(t, models.VoteFor, *vt)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.DuplicateVotes))
}

func TestVoteLedger_CastVoteValidation(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 3, owner)
	motion := e.motion(t, org, owner)

	tests := []struct {
		name  string
		input CastVoteInput
		want  error
	}{
		{"invalid type", CastVoteInput{MotionID: motion.ID, VoterID: owner.ID, VoteType: "abstain"}, ErrInvalidVoteType},
		{"missing motion", CastVoteInput{VoterID: owner.ID, VoteType: models.VoteFor}, ErrVoteInputMissing},
		{"missing voter", CastVoteInput{MotionID: motion.ID, VoteType: models.VoteFor}, ErrVoteInputMissing},
		{"unknown motion", CastVoteInput{MotionID: 999, VoterID: owner.ID, VoteType: models.VoteFor}, ErrMotionNotFound},
		{"unknown voter", CastVoteInput{MotionID: motion.ID, VoterID: 999, VoteType: models.VoteFor}, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ledger.CastVote(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	votes, err := e.ledger.ListVotes(motion.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVoteLedger_DoesNotCheckMotionStatus(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 1, owner)
	motion := e.motion(t, org, owner)
	_, err := e.motionRepo.Decide(motion.ID, models.MotionStatusDefeated, motion.CreatedAt)
	require.NoError(t, err)

	_, err = e.ledger.CastVote(context.Background(), CastVoteInput{MotionID: motion.ID, VoterID: owner.ID, VoteType: models.VoteFor})
	assert.NoError(t, err)
}

func TestVoteLedger_TallyWithVotersInCastOrder(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 10, owner)
	voters := e.members(t, org, 5)
	motion := e.motion(t, org, owner)

	types := []models.VoteType{models.VoteAgainst, models.VoteFor, models.VoteFor, models.VoteAgainst, models.VoteFor}
	for i, vt := range types {
		e.vote(t, motion, voters[i], vt)
	}

	tally, err := e.ledger.Tally(motion.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, tally.For)
	assert.Equal(t, 2, tally.Against)
	assert.Equal(t, []uint64{voters[1].ID, voters[2].ID, voters[4].ID}, tally.ForVoters)
	assert.Equal(t, []uint64{voters[0].ID, voters[3].ID}, tally.AgainstVoters)

	plain, err := e.ledger.Tally(motion.ID, false)
	require.NoError(t, err)
	assert.Nil(t, plain.ForVoters)
	assert.Nil(t, plain.AgainstVoters)
}

func TestVoteLedger_VoteOfWithoutVote(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 1, owner)
	motion := e.motion(t, org, owner)

	vt, err := e.ledger.VoteOf(motion.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, vt)
}

func TestVoteLedger_DeleteVoteAllowsRevote(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner")
	org := e.org(t, 5, owner)
	motion := e.motion(t, org, owner)
	vote := e.vote(t, motion, owner, models.VoteFor)

	require.NoError(t, e.ledger.DeleteVote(vote.ID))
	assert.ErrorIs(t, e.ledger.DeleteVote(vote.ID), ErrVoteNotFound)

	again := e.vote(t, motion, owner, models.VoteAgainst)
	assert.Equal(t, models.VoteAgainst, again.Type)
}

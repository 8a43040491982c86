package services

import "github.com/wegovern/governance-api/internal/models"

// Decision is the outcome of evaluating a motion's tally.
type Decision int

const (
	NoChange Decision = iota
	Passed
	Defeated
)

// Status returns the motion status the decision moves to, or the empty
// status for NoChange.
func (d Decision) Status() models.MotionStatus {
	switch d {
	case Passed:
		return models.MotionStatusPassed
	case Defeated:
		return models.MotionStatusDefeated
	}
	return ""
}

func (d Decision) String() string {
	switch d {
	case Passed:
		return "passed"
	case Defeated:
		return "defeated"
	}
	return "no_change"
}

// Tally counts the votes of one motion. Voter lists are only filled when
// requested and are in cast order.
type Tally struct {
	For           int      `json:"for"`
	Against       int      `json:"against"`
	ForVoters     []uint64 `json:"for_voters,omitempty"`
	AgainstVoters []uint64 `json:"against_voters,omitempty"`
}

// Evaluate decides a pending motion once either side reaches threshold.
// "for" is checked first, so a tally where both sides reach the threshold
// passes.
func Evaluate(tally Tally, threshold int, current models.MotionStatus) Decision {
	if current != models.MotionStatusPending {
		return NoChange
	}
	if tally.For >= threshold {
		return Passed
	}
	if tally.Against >= threshold {
		return Defeated
	}
	return NoChange
}

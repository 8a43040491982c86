// Package realtime pushes organization events to connected websocket
// clients, optionally fanning them out across instances through Redis.
package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventVote           EventType = "vote"
	EventMotionStatus   EventType = "motion_status"
	EventMotionCreated  EventType = "motion_created"
	EventMotionApproved EventType = "motion_approved"
	EventIssue          EventType = "issue"
	EventComment        EventType = "comment"
)

// Event is the envelope delivered to clients of one organization.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	OrganizationID uint64    `json:"organization_id"`
	MotionID       *uint64   `json:"motion_id,omitempty"`
	Payload        any       `json:"payload"`
	SentAt         time.Time `json:"sent_at"`
}

// NewEvent stamps a fresh id and send time on an event. A zero motionID
// leaves MotionID unset.
func NewEvent(eventType EventType, orgID, motionID uint64, payload any) Event {
	ev := Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		OrganizationID: orgID,
		Payload:        payload,
		SentAt:         time.Now().UTC(),
	}
	if motionID != 0 {
		ev.MotionID = &motionID
	}
	return ev
}

// Broadcaster publishes events to the members of an organization.
type Broadcaster interface {
	Publish(ctx context.Context, orgID uint64, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, uint64, Event) error { return nil }

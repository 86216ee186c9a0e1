package models

import (
	"time"

	"github.com/google/uuid"
)

// FollowUpType identifies which best-efforts workflow an attempt belongs to
type FollowUpType string

const (
	FollowUpTypeEmployerOccupation FollowUpType = "employer_occupation"
)

// MaxFollowUpAttempts bounds the number of requests sent per donor and type
const MaxFollowUpAttempts = 2

// FollowUpCooldown is the minimum gap between the first and second request
const FollowUpCooldown = 30 * 24 * time.Hour

// FollowUpAttempt is one persisted best-efforts request. AttemptNumber is
// unique per donor and type, so concurrent evaluations cannot both claim
// the same slot.
type FollowUpAttempt struct {
	ID                 uuid.UUID    `db:"id"`
	DonorID            uuid.UUID    `db:"donor_id"`
	DonationID         uuid.UUID    `db:"donation_id"`
	Type               FollowUpType `db:"follow_up_type"`
	AttemptNumber      int          `db:"attempt_number"`
	SentAt             time.Time    `db:"sent_at"`
	ResponseReceivedAt *time.Time   `db:"response_received_at"`
}

// FollowUpState is the workflow state derived from a donor's attempts
type FollowUpState string

const (
	FollowUpStateUntriggered FollowUpState = "untriggered"
	FollowUpStateSent        FollowUpState = "sent"
	FollowUpStateExhausted   FollowUpState = "exhausted"
	FollowUpStateCompleted   FollowUpState = "completed"
)

// DeriveFollowUpState folds persisted attempts into the current state
func DeriveFollowUpState(attempts []*FollowUpAttempt) FollowUpState {
	for _, a := range attempts {
		if a.ResponseReceivedAt != nil {
			return FollowUpStateCompleted
		}
	}
	switch {
	case len(attempts) == 0:
		return FollowUpStateUntriggered
	case len(attempts) >= MaxFollowUpAttempts:
		return FollowUpStateExhausted
	default:
		return FollowUpStateSent
	}
}

// FollowUpOutcome records what a single evaluation did
type FollowUpOutcome string

const (
	FollowUpOutcomeSent        FollowUpOutcome = "sent"
	FollowUpOutcomeDeferred    FollowUpOutcome = "deferred"
	FollowUpOutcomeExhausted   FollowUpOutcome = "exhausted"
	FollowUpOutcomeCompleted   FollowUpOutcome = "completed"
	FollowUpOutcomeNotRequired FollowUpOutcome = "not_required"
	FollowUpOutcomeFailed      FollowUpOutcome = "failed"
)

// FollowUpRequest is the notification handed to the mail transport
type FollowUpRequest struct {
	DonorID       uuid.UUID `json:"donor_id"`
	DonationID    uuid.UUID `json:"donation_id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	Attempt       int       `json:"attempt"`
	MissingFields []string  `json:"missing_fields"`
	RequestedAt   time.Time `json:"requested_at"`
}

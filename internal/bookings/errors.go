package bookings

import (
	"errors"

	"github.com/wolfman30/campus-triage-bot/internal/scheduling"
)

var (
	// ErrMissingInformation is returned when the session has no name or
	// condition yet, or no preferred time was sent.
	ErrMissingInformation = errors.New("bookings: missing name, condition or preferred time")
	// ErrTimeInPast is returned when the requested time today has already passed.
	ErrTimeInPast = errors.New("bookings: requested time has already passed")
	// ErrSlotUnavailable is returned when the requested slot cannot be booked;
	// the closest free slot is offered instead.
	ErrSlotUnavailable = errors.New("bookings: requested slot is not available")
	// ErrSlotTaken is returned by an AppointmentLog when the slot was reserved
	// by someone else first.
	ErrSlotTaken = errors.New("bookings: slot already reserved")
	// ErrNoPendingSlot is returned when a confirmation arrives with no offer open.
	ErrNoPendingSlot = errors.New("bookings: no pending slot to confirm")
)

// Outcome labels a booking attempt for metrics and replies.
type Outcome string

const (
	OutcomeBooked       Outcome = "booked"
	OutcomeOffered      Outcome = "offered"
	OutcomeDeclined     Outcome = "declined"
	OutcomeMissingInfo  Outcome = "missing_information"
	OutcomeInvalidTime  Outcome = "invalid_time"
	OutcomeTimeInPast   Outcome = "time_in_past"
	OutcomeFullyBooked  Outcome = "fully_booked"
	OutcomeNoPending    Outcome = "no_pending_slot"
	OutcomeInternalFail Outcome = "error"
)

// outcomeOf maps a booking error onto its outcome. Errors that are not
// expected user-facing outcomes report ok=false.
func outcomeOf(err error) (Outcome, bool) {
	switch {
	case err == nil:
		return OutcomeBooked, true
	case errors.Is(err, ErrSlotUnavailable):
		return OutcomeOffered, true
	case errors.Is(err, ErrMissingInformation):
		return OutcomeMissingInfo, true
	case errors.Is(err, scheduling.ErrInvalidTime):
		return OutcomeInvalidTime, true
	case errors.Is(err, ErrTimeInPast):
		return OutcomeTimeInPast, true
	case errors.Is(err, scheduling.ErrNoSlotsAvailable):
		return OutcomeFullyBooked, true
	case errors.Is(err, ErrNoPendingSlot):
		return OutcomeNoPending, true
	default:
		return OutcomeInternalFail, false
	}
}

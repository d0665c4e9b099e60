package appointment

import "errors"

// Action is a lifecycle transition requested by a doctor or a patient.
type Action string

const (
	ActionClaim      Action = "claim"
	ActionConfirm    Action = "confirm"
	ActionDepart     Action = "depart"
	ActionArrive     Action = "arrive"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionDecline    Action = "decline"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalStatus    = errors.New("appointment is in a terminal status")
)

// NextStatus validates an action against the lifecycle edge table and
// returns the status it leads to. Teleconsultations skip the travel leg:
// start follows confirmed directly, while in-person visits go through
// on_the_way and arrived first. Every mutation goes through this table, so
// a stale client replaying an old action gets ErrInvalidTransition instead
// of silently rewinding the record.
func NextStatus(typ Type, current Status, action Action) (Status, error) {
	if current.Terminal() {
		return "", ErrTerminalStatus
	}

	switch action {
	case ActionClaim:
		if current == StatusPendingAssignment {
			return StatusAssigned, nil
		}
	case ActionConfirm:
		if current == StatusAssigned {
			return StatusConfirmed, nil
		}
	case ActionDepart:
		if typ == TypeInPerson && current == StatusConfirmed {
			return StatusOnTheWay, nil
		}
	case ActionArrive:
		if typ == TypeInPerson && current == StatusOnTheWay {
			return StatusArrived, nil
		}
	case ActionStart:
		if typ == TypeInPerson && current == StatusArrived {
			return StatusServiceStarted, nil
		}
		if typ == TypeTeleconsultation && current == StatusConfirmed {
			return StatusServiceStarted, nil
		}
	case ActionComplete:
		if current == StatusServiceStarted {
			return StatusCompleted, nil
		}
	case ActionDecline:
		switch current {
		case StatusAssigned, StatusConfirmed, StatusOnTheWay, StatusArrived, StatusServiceStarted:
			return StatusDeclinedByDoctor, nil
		}
	case ActionCancel:
		return StatusCancelledByPatient, nil
	case ActionReschedule:
		return StatusRescheduled, nil
	}

	return "", ErrInvalidTransition
}

// teleMirror returns the sub-entity status implied by the parent moving to
// next, or "" when the mirror is untouched.
func teleMirror(next Status) TeleStatus {
	switch next {
	case StatusServiceStarted:
		return TeleInProgress
	case StatusCompleted:
		return TeleCompleted
	case StatusCancelledByPatient, StatusDeclinedByDoctor, StatusRescheduled:
		return TeleCancelled
	}
	return ""
}

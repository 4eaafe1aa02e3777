package lifecycle

import (
	"fmt"

	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
)

// State is one step of the terminal-facing sale flow.
type State string

const (
	StateIdle             State = "idle"
	StateCategorySelected State = "category_selected"
	StateValueSelected    State = "value_selected"
	StateConfirmPending   State = "confirm_pending"
	StateSubmitting       State = "submitting"
	StateSuccess          State = "success"
	StateFailed           State = "failed"
)

// Event drives the state machine forward.
type Event string

const (
	EventSelectCategory Event = "select_category"
	EventSelectValue    Event = "select_value"
	EventReview         Event = "review"
	EventSubmit         Event = "submit"
	EventSucceed        Event = "succeed"
	EventFail           Event = "fail"
	EventRetry          Event = "retry"
	EventCancel         Event = "cancel"
	EventNewSale        Event = "new_sale"
)

// transitions is the full table. Anything absent is an illegal move.
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventSelectCategory: StateCategorySelected,
	},
	StateCategorySelected: {
		EventSelectCategory: StateCategorySelected,
		EventSelectValue:    StateValueSelected,
		EventCancel:         StateIdle,
	},
	StateValueSelected: {
		EventSelectCategory: StateCategorySelected,
		EventSelectValue:    StateValueSelected,
		EventReview:         StateConfirmPending,
		EventCancel:         StateIdle,
	},
	StateConfirmPending: {
		EventSelectValue: StateValueSelected,
		EventReview:      StateConfirmPending,
		EventSubmit:      StateSubmitting,
		EventCancel:      StateIdle,
	},
	// Submitting accepts only the executor outcome. In particular there is
	// no cancel: once the transaction is sent the terminal has to wait for
	// a definitive answer.
	StateSubmitting: {
		EventSucceed: StateSuccess,
		EventFail:    StateFailed,
	},
	// Success is terminal until the cashier explicitly starts over.
	StateSuccess: {
		EventNewSale: StateIdle,
	},
	// A failed sale is retried manually through a fresh confirmation, never
	// resubmitted with the same request.
	StateFailed: {
		EventRetry:  StateConfirmPending,
		EventCancel: StateIdle,
	},
}

// Next applies one event to the current state. Illegal moves return a
// STATE_CONFLICT error so controllers surface them as 409s.
func Next(current State, event Event) (State, error) {
	byEvent, ok := transitions[current]
	if !ok {
		return current, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("unknown sale state %q", current))
	}
	next, ok := byEvent[event]
	if !ok {
		return current, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot %s while the sale is %s", event, current))
	}
	return next, nil
}

// CanCancel reports whether the flow may be abandoned from the given state.
func CanCancel(current State) bool {
	_, err := Next(current, EventCancel)
	return err == nil
}

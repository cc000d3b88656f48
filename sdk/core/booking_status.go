package core

import "fmt"

// BookingStatus represents where a Booking is in its lifecycle.
type BookingStatus string

const (
	// BookingStatusNew represents a Booking that has been recorded but not yet
	// confirmed.
	BookingStatusNew BookingStatus = "new"
	// BookingStatusConfirmed represents a Booking that has been confirmed,
	// usually with a Table assigned.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusArrived represents a Booking whose guests have arrived.
	BookingStatusArrived BookingStatus = "arrived"
	// BookingStatusCompleted represents a Booking whose visit has ended.
	BookingStatusCompleted BookingStatus = "completed"
	// BookingStatusCancelled represents a Booking that was cancelled.
	BookingStatusCancelled BookingStatus = "cancelled"
	// BookingStatusNoShow represents a Booking whose guests never arrived.
	BookingStatusNoShow BookingStatus = "no_show"
)

// BookingStatuses lists every BookingStatus in lifecycle order.
var BookingStatuses = []BookingStatus{
	BookingStatusNew,
	BookingStatusConfirmed,
	BookingStatusArrived,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// Valid returns true if the BookingStatus is one the API defines.
func (b BookingStatus) Valid() bool {
	for _, status := range BookingStatuses {
		if b == status {
			return true
		}
	}
	return false
}

// Terminal returns true if no further action can be taken on a Booking with
// this status.
func (b BookingStatus) Terminal() bool {
	switch b {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}

// BookingAction represents a status transition that staff can request for a
// Booking.
type BookingAction string

const (
	// BookingActionConfirm moves a new Booking to confirmed.
	BookingActionConfirm BookingAction = "confirm"
	// BookingActionArrived moves a confirmed Booking to arrived.
	BookingActionArrived BookingAction = "arrived"
	// BookingActionComplete moves an arrived Booking to completed.
	BookingActionComplete BookingAction = "complete"
	// BookingActionCancel moves a new or confirmed Booking to cancelled.
	BookingActionCancel BookingAction = "cancel"
)

var availableBookingActions = map[BookingStatus][]BookingAction{
	BookingStatusNew:       {BookingActionConfirm, BookingActionCancel},
	BookingStatusConfirmed: {BookingActionArrived, BookingActionCancel},
	BookingStatusArrived:   {BookingActionComplete},
}

// AvailableActions returns the actions offered for a Booking with this
// status. The API remains the authority on which transitions are legal; this
// only governs which affordances are presented.
func (b BookingStatus) AvailableActions() []BookingAction {
	actions := availableBookingActions[b]
	return append([]BookingAction{}, actions...)
}

// Allows returns true if the given action is offered for a Booking with this
// status.
func (b BookingStatus) Allows(action BookingAction) bool {
	for _, available := range availableBookingActions[b] {
		if available == action {
			return true
		}
	}
	return false
}

// ErrActionUnavailable is returned when an action is requested for a Booking
// whose status does not offer it. No request is sent to the API in that case.
type ErrActionUnavailable struct {
	Status BookingStatus
	Action BookingAction
}

func (e *ErrActionUnavailable) Error() string {
	return fmt.Sprintf(
		"action %q is not available for a booking with status %q",
		e.Action,
		e.Status,
	)
}

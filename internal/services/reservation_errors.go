package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies reservation errors for callers
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
)

// ReservationError is returned by the reservation engine when a
// precondition fails. No state is changed when one is returned.
type ReservationError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *ReservationError) Error() string {
	return e.Message
}

// Is matches errors with the same code, so errors.Is works against the
// sentinels below even when the message carries details
func (e *ReservationError) Is(target error) bool {
	t, ok := target.(*ReservationError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrInvalidBus        = &ReservationError{Kind: KindValidation, Code: "INVALID_BUS", Message: "invalid bus details"}
	ErrInvalidTravelDate = &ReservationError{Kind: KindValidation, Code: "INVALID_TRAVEL_DATE", Message: "invalid travel date"}
	ErrInvalidPassenger  = &ReservationError{Kind: KindValidation, Code: "INVALID_PASSENGER", Message: "invalid passenger details"}
	ErrSeatOutOfRange    = &ReservationError{Kind: KindValidation, Code: "SEAT_OUT_OF_RANGE", Message: "invalid seat number"}
	ErrTooManySeats      = &ReservationError{Kind: KindValidation, Code: "TOO_MANY_SEATS", Message: "seat count exceeds the maximum"}

	ErrBusNotFound    = &ReservationError{Kind: KindNotFound, Code: "BUS_NOT_FOUND", Message: "bus not found"}
	ErrTicketNotFound = &ReservationError{Kind: KindNotFound, Code: "TICKET_NOT_FOUND", Message: "ticket not found or has been cancelled"}
	ErrBillNotFound   = &ReservationError{Kind: KindNotFound, Code: "BILL_NOT_FOUND", Message: "bill not found"}

	ErrDuplicateBusNumber = &ReservationError{Kind: KindConflict, Code: "DUPLICATE_BUS_NUMBER", Message: "this bus number already exists"}
	ErrRouteMismatch      = &ReservationError{Kind: KindConflict, Code: "ROUTE_MISMATCH", Message: "selected bus does not match the requested travel details"}
	ErrSeatAlreadyBooked  = &ReservationError{Kind: KindConflict, Code: "SEAT_ALREADY_BOOKED", Message: "seat already booked"}
	ErrBusHasBookings     = &ReservationError{Kind: KindConflict, Code: "BUS_HAS_BOOKINGS", Message: "cannot delete bus with active bookings that is not fully booked"}
)

// newError copies a sentinel with a more specific message
func newError(base *ReservationError, format string, args ...interface{}) *ReservationError {
	return &ReservationError{
		Kind:    base.Kind,
		Code:    base.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of a reservation error, or "" for other errors
func KindOf(err error) ErrorKind {
	var resErr *ReservationError
	if errors.As(err, &resErr) {
		return resErr.Kind
	}
	return ""
}

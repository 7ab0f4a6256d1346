package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrMissingField           = errors.New("required property is missing")
	ErrInvalidDate            = errors.New("reservation_date is not valid")
	ErrInvalidTime            = errors.New("reservation_time is not valid")
	ErrInvalidPartySize       = errors.New("people must be a positive integer")
	ErrInvalidStatus          = errors.New("status is not valid for this request")
	ErrClosedDay              = errors.New("we're closed on Tuesdays")
	ErrNotInFuture            = errors.New("reservation_date must be in the future")
	ErrOutsideBusinessHours   = errors.New("reservation_time must be within business hours")
	ErrReservationFinished    = errors.New("cannot update a finished reservation")
	ErrReservationNotFound    = errors.New("reservation does not exist")
	ErrReservationNotBookable = errors.New("reservation is not booked")
	ErrBadQuery               = errors.New("bad list query")
)

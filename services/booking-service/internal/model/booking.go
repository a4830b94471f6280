package model

import "time"

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Booking never changes its interval once created; cancellation only flips Status.
type Booking struct {
	ID          string
	CalendarID  string
	ServiceID   string
	CustomerID  string
	Start       time.Time
	End         time.Time
	Status      BookingStatus
	Notes       string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

func (b Booking) Confirmed() bool {
	return b.Status == StatusConfirmed
}

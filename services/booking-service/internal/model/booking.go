package model

import "time"

// DateLayout is the wire format of Booking.Date.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return s, true
	default:
		return "", false
	}
}

// Booking is a requested seminar slot. Email is lower-cased and Date is midnight
// of the booked day in the service timezone; together they are unique.
type Booking struct {
	ID            string
	FullName      string
	Email         string
	PhoneNumber   string
	City          string
	Country       string
	Date          time.Time
	TimeSlot      string
	Status        Status
	AdminNotified bool
	UserNotified  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b Booking) DateString() string {
	return b.Date.Format(DateLayout)
}

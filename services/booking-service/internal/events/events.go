package events

import (
	"encoding/json"
	"time"

	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/outbox"
)

const (
	AggregateBooking = "booking"

	TypeBookingCreated       = "booking.created.v1"
	TypeBookingStatusChanged = "booking.status_changed.v1"
)

type BookingCreated struct {
	BookingID   string `json:"booking_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type BookingStatusChanged struct {
	BookingID string `json:"booking_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	ChangedAt string `json:"changed_at"`
}

func NewBookingCreated(b model.Booking) (outbox.Event, error) {
	payload, err := json.Marshal(BookingCreated{
		BookingID:   b.ID,
		FullName:    b.FullName,
		Email:       b.Email,
		PhoneNumber: b.PhoneNumber,
		City:        b.City,
		Country:     b.Country,
		Date:        b.DateString(),
		Time:        b.TimeSlot,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		EventType:     TypeBookingCreated,
		Payload:       payload,
	}, nil
}

func NewBookingStatusChanged(b model.Booking, from model.Status) (outbox.Event, error) {
	payload, err := json.Marshal(BookingStatusChanged{
		BookingID: b.ID,
		From:      string(from),
		To:        string(b.Status),
		ChangedAt: b.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: AggregateBooking,
		AggregateID:   b.ID,
		EventType:     TypeBookingStatusChanged,
		Payload:       payload,
	}, nil
}

func DecodeBookingCreated(raw []byte) (BookingCreated, error) {
	var evt BookingCreated
	err := json.Unmarshal(raw, &evt)
	return evt, err
}

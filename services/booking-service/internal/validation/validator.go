package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
)

// Kind classifies a rejected input. Every Kind maps to a 400 response.
type Kind string

const (
	KindMissingField  Kind = "MissingField"
	KindInvalidEmail  Kind = "InvalidEmail"
	KindInvalidPhone  Kind = "InvalidPhone"
	KindInvalidDate   Kind = "InvalidDate"
	KindPastDate      Kind = "PastDate"
	KindInvalidStatus Kind = "InvalidStatus"
)

type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Submission is the raw booking form.
type Submission struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{8,14}$`)
	phoneNoise   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

type Validator struct {
	loc *time.Location
	now func() time.Time
}

// New returns a validator that compares dates at day granularity in loc.
func New(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{loc: loc, now: time.Now}
}

// WithClock overrides the current time source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	cp := *v
	cp.now = now
	return &cp
}

// Booking checks a submission and returns the normalized pending booking.
func (v *Validator) Booking(s Submission) (model.Booking, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"fullName", &s.FullName},
		{"email", &s.Email},
		{"phoneNumber", &s.PhoneNumber},
		{"city", &s.City},
		{"country", &s.Country},
		{"date", &s.Date},
		{"time", &s.Time},
	}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return model.Booking{}, newError(KindMissingField, f.name, "%s is required", f.name)
		}
	}

	email := strings.ToLower(s.Email)
	if !emailPattern.MatchString(email) {
		return model.Booking{}, newError(KindInvalidEmail, "email", "please provide a valid email address")
	}

	if !phonePattern.MatchString(CleanPhone(s.PhoneNumber)) {
		return model.Booking{}, newError(KindInvalidPhone, "phoneNumber", "please provide a valid phone number")
	}

	day, err := v.ParseDay(s.Date)
	if err != nil {
		return model.Booking{}, err
	}
	if day.Before(v.Today()) {
		return model.Booking{}, newError(KindPastDate, "date", "booking date cannot be in the past")
	}

	return model.Booking{
		FullName:    s.FullName,
		Email:       email,
		PhoneNumber: s.PhoneNumber,
		City:        s.City,
		Country:     s.Country,
		Date:        day,
		TimeSlot:    s.Time,
		Status:      model.StatusPending,
	}, nil
}

// ParseDay accepts YYYY-MM-DD or an RFC 3339 timestamp and returns midnight of that
// calendar day in the validator's location.
func (v *Validator) ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(model.DateLayout, raw, v.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t, v.loc), nil
	}
	return time.Time{}, newError(KindInvalidDate, "date", "date must be YYYY-MM-DD or an RFC 3339 timestamp")
}

func (v *Validator) Today() time.Time {
	return Day(v.now(), v.loc)
}

// Status accepts exactly pending, confirmed or cancelled.
func (v *Validator) Status(raw string) (model.Status, error) {
	st, ok := model.ParseStatus(strings.TrimSpace(raw))
	if !ok {
		return "", newError(KindInvalidStatus, "status", "status must be one of pending, confirmed, cancelled")
	}
	return st, nil
}

// CleanPhone removes spaces, dashes and parentheses.
func CleanPhone(raw string) string {
	return phoneNoise.Replace(strings.TrimSpace(raw))
}

// Day truncates t to midnight of its calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

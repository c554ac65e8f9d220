// Package bookingtest provides an in-memory booking.Store for tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
)

type Store struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
	now      func() time.Time

	// Err, when set, is returned by every call.
	Err error
	// SkipPrecheck makes ExistsForDay report false so Create hits the unique key.
	SkipPrecheck bool
	// FlagErr is returned by SetNotificationFlags.
	FlagErr error
}

func NewStore() *Store {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	return &Store{
		bookings: map[string]model.Booking{},
		now: func() time.Time {
			n++
			return base.Add(time.Duration(n) * time.Second)
		},
	}
}

func key(email string, day time.Time) string {
	return email + "|" + day.Format(model.DateLayout)
}

func (s *Store) ExistsForDay(_ context.Context, email string, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if s.SkipPrecheck {
		return false, nil
	}
	for _, b := range s.bookings {
		if key(b.Email, b.Date) == key(email, day) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Create(_ context.Context, b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Booking{}, s.Err
	}
	for _, existing := range s.bookings {
		if key(existing.Email, existing.Date) == key(b.Email, b.Date) {
			return model.Booking{}, booking.ErrDuplicate
		}
	}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Booking{}, s.Err
	}
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (s *Store) List(_ context.Context, f booking.ListFilter) ([]model.Booking, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var matched []model.Booking
	for _, b := range s.bookings {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Date != nil && !b.Date.Equal(*f.Date) {
			continue
		}
		matched = append(matched, b)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if f.Offset >= total {
		return []model.Booking{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status model.Status) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Booking{}, s.Err
	}
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, booking.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = s.now()
	s.bookings[id] = b
	return b, nil
}

func (s *Store) SetNotificationFlags(_ context.Context, id string, admin, user bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FlagErr != nil {
		return s.FlagErr
	}
	b, ok := s.bookings[id]
	if !ok {
		return booking.ErrNotFound
	}
	b.AdminNotified, b.UserNotified = admin, user
	s.bookings[id] = b
	return nil
}

// Len returns the number of stored bookings.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

var _ booking.Store = (*Store)(nil)

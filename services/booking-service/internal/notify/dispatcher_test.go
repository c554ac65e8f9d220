package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendImage(ctx context.Context, to, link, caption string) (string, error) {
	args := m.Called(ctx, to, link, caption)
	return args.String(0), args.Error(1)
}

func (m *mockSender) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type memRecorder struct {
	attempts []Attempt
	err      error
}

func (r *memRecorder) RecordAttempt(_ context.Context, a Attempt) error {
	r.attempts = append(r.attempts, a)
	return r.err
}

func testBooking() model.Booking {
	return model.Booking{
		ID:          "b-42",
		FullName:    "Asha Rao",
		Email:       "asha@example.com",
		PhoneNumber: "+91 98765-43210",
		City:        "Pune",
		Country:     "India",
		Date:        time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		TimeSlot:    "10:00 AM",
		Status:      model.StatusPending,
	}
}

func testConfig() Config {
	return Config{
		AdminNumber:   "9000000001",
		AdminImageURL: "https://cdn/admin.png",
		UserImageURL:  "https://cdn/user.png",
		CountryPrefix: "91",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBookingCreatedBothDelivered(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendImage", mock.Anything, "919000000001", "https://cdn/admin.png", mock.MatchedBy(func(c string) bool {
		return strings.Contains(c, "Booking ID: b-42") && strings.Contains(c, "Date: 2026-10-19")
	})).Return("wamid.admin", nil).Once()
	sender.On("SendImage", mock.Anything, "919876543210", "https://cdn/user.png", mock.MatchedBy(func(c string) bool {
		return strings.HasPrefix(c, "Hi Asha,")
	})).Return("wamid.user", nil).Once()
	rec := &memRecorder{}

	out := NewDispatcher(sender, rec, testConfig(), discard()).BookingCreated(context.Background(), testBooking())

	assert.True(t, out.AdminNotified)
	assert.True(t, out.UserNotified)
	assert.False(t, out.FallbackUsed)
	require.Len(t, rec.attempts, 2)
	assert.Equal(t, ChannelAdmin, rec.attempts[0].Channel)
	assert.Equal(t, "wamid.user", rec.attempts[1].MessageID)
	sender.AssertExpectations(t)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingCreatedUserFallsBackToText(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendImage", mock.Anything, "919000000001", mock.Anything, mock.Anything).Return("wamid.admin", nil).Once()
	sender.On("SendImage", mock.Anything, "919876543210", mock.Anything, mock.Anything).Return("", errors.New("media rejected")).Once()
	sender.On("SendText", mock.Anything, "919876543210", mock.MatchedBy(func(body string) bool {
		return strings.HasSuffix(body, "\n\nhttps://cdn/user.png")
	})).Return("wamid.text", nil).Once()
	rec := &memRecorder{}

	out := NewDispatcher(sender, rec, testConfig(), discard()).BookingCreated(context.Background(), testBooking())

	assert.True(t, out.AdminNotified)
	assert.True(t, out.UserNotified)
	assert.True(t, out.FallbackUsed)
	require.Len(t, out.Attempts, 3)
	assert.False(t, out.Attempts[1].Success)
	assert.JSONEq(t, `{"error":"media rejected"}`, string(out.Attempts[1].Error))
	assert.Equal(t, KindText, out.Attempts[2].Kind)
	sender.AssertExpectations(t)
}

func TestBookingCreatedAdminHasNoFallback(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendImage", mock.Anything, "919000000001", mock.Anything, mock.Anything).Return("", errors.New("down")).Once()
	sender.On("SendImage", mock.Anything, "919876543210", mock.Anything, mock.Anything).Return("wamid.user", nil).Once()

	out := NewDispatcher(sender, nil, testConfig(), discard()).BookingCreated(context.Background(), testBooking())

	assert.False(t, out.AdminNotified)
	assert.True(t, out.UserNotified)
	sender.AssertNumberOfCalls(t, "SendText", 0)
}

func TestBookingCreatedProviderUnreachable(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused"))
	sender.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused"))
	rec := &memRecorder{err: errors.New("db down")}

	out := NewDispatcher(sender, rec, testConfig(), discard()).BookingCreated(context.Background(), testBooking())

	assert.False(t, out.AdminNotified)
	assert.False(t, out.UserNotified)
	assert.Len(t, rec.attempts, 3)
}

func TestBookingCreatedWithoutAdminNumber(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendImage", mock.Anything, "919876543210", mock.Anything, mock.Anything).Return("wamid.user", nil).Once()
	cfg := testConfig()
	cfg.AdminNumber = ""

	out := NewDispatcher(sender, nil, cfg, discard()).BookingCreated(context.Background(), testBooking())

	assert.False(t, out.AdminNotified)
	assert.True(t, out.UserNotified)
	assert.Contains(t, string(out.Attempts[0].Error), "no destination number")
	sender.AssertExpectations(t)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"+91 98765-43210", "919876543210"},
		{"9876543210", "919876543210"},
		{"09876543210", "919876543210"},
		{"(987) 654-3210", "919876543210"},
		{"919876543210", "919876543210"},
		{"+1 415 555 0100", "14155550100"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.raw, "91"), tc.raw)
	}
}

package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
	"github.com/learnhub/seminarbook/services/booking-service/internal/booking/bookingtest"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/notify"
	"github.com/learnhub/seminarbook/services/booking-service/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingCreated(ctx context.Context, b model.Booking) notify.Outcome {
	return m.Called(ctx, b).Get(0).(notify.Outcome)
}

var ist = time.FixedZone("IST", 5*3600+1800)

func newValidator() *validation.Validator {
	return validation.New(ist).WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 15, 0, 0, 0, ist)
	})
}

func newService(store booking.Store, n booking.Notifier, mode booking.Mode) *booking.Service {
	return booking.NewService(store, newValidator(), n, mode, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func submission() validation.Submission {
	return validation.Submission{
		FullName:    "Asha Rao",
		Email:       "  Asha@Example.com ",
		PhoneNumber: "+91 98765-43210",
		City:        "Pune",
		Country:     "India",
		Date:        "2026-10-19",
		Time:        "10:00 AM",
	}
}

func TestCreateSyncNotifiesAndRecordsFlags(t *testing.T) {
	store := bookingtest.NewStore()
	n := new(mockNotifier)
	n.On("BookingCreated", mock.Anything, mock.MatchedBy(func(b model.Booking) bool {
		return b.Email == "asha@example.com" && b.Status == model.StatusPending
	})).Return(notify.Outcome{AdminNotified: true, UserNotified: false}).Once()

	res, err := newService(store, n, booking.ModeSync).Create(context.Background(), submission())

	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.True(t, res.Booking.AdminNotified)
	assert.False(t, res.Booking.UserNotified)
	_, err = uuid.Parse(res.Booking.ID)
	assert.NoError(t, err)
	assert.True(t, time.Date(2026, 10, 19, 0, 0, 0, 0, ist).Equal(res.Booking.Date))

	stored, err := store.Get(context.Background(), res.Booking.ID)
	require.NoError(t, err)
	assert.True(t, stored.AdminNotified)
	n.AssertExpectations(t)
}

func TestCreateDuplicateCaseInsensitive(t *testing.T) {
	store := bookingtest.NewStore()
	n := new(mockNotifier)
	n.On("BookingCreated", mock.Anything, mock.Anything).Return(notify.Outcome{})
	svc := newService(store, n, booking.ModeSync)

	_, err := svc.Create(context.Background(), submission())
	require.NoError(t, err)

	dup := submission()
	dup.Email = "ASHA@EXAMPLE.COM"
	_, err = svc.Create(context.Background(), dup)

	assert.ErrorIs(t, err, booking.ErrDuplicate)
	assert.Equal(t, 1, store.Len())
	n.AssertNumberOfCalls(t, "BookingCreated", 1)
}

func TestCreateDuplicateFromUniqueKey(t *testing.T) {
	store := bookingtest.NewStore()
	svc := newService(store, nil, booking.ModeSync)
	_, err := svc.Create(context.Background(), submission())
	require.NoError(t, err)

	store.SkipPrecheck = true
	_, err = svc.Create(context.Background(), submission())

	assert.ErrorIs(t, err, booking.ErrDuplicate)
}

func TestCreateDifferentDateAllowed(t *testing.T) {
	svc := newService(bookingtest.NewStore(), nil, booking.ModeSync)
	_, err := svc.Create(context.Background(), submission())
	require.NoError(t, err)

	next := submission()
	next.Date = "2026-10-20"
	_, err = svc.Create(context.Background(), next)
	assert.NoError(t, err)
}

func TestCreateValidationErrorStoresNothing(t *testing.T) {
	store := bookingtest.NewStore()
	sub := submission()
	sub.Date = "2026-10-17"

	_, err := newService(store, nil, booking.ModeSync).Create(context.Background(), sub)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, validation.KindPastDate, verr.Kind)
	assert.Equal(t, 0, store.Len())
}

func TestCreateAsyncSkipsNotifier(t *testing.T) {
	n := new(mockNotifier)
	res, err := newService(bookingtest.NewStore(), n, booking.ModeAsync).Create(context.Background(), submission())

	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.False(t, res.Booking.AdminNotified)
	n.AssertNotCalled(t, "BookingCreated", mock.Anything, mock.Anything)
}

func TestCreateSurvivesFlagUpdateFailure(t *testing.T) {
	store := bookingtest.NewStore()
	store.FlagErr = errors.New("db down")
	n := new(mockNotifier)
	n.On("BookingCreated", mock.Anything, mock.Anything).Return(notify.Outcome{AdminNotified: true, UserNotified: true})

	res, err := newService(store, n, booking.ModeSync).Create(context.Background(), submission())

	require.NoError(t, err)
	assert.True(t, res.Booking.UserNotified)
}

func TestCreateStoreError(t *testing.T) {
	store := bookingtest.NewStore()
	store.Err = errors.New("connection reset")

	_, err := newService(store, nil, booking.ModeSync).Create(context.Background(), submission())

	require.Error(t, err)
	assert.NotErrorIs(t, err, booking.ErrDuplicate)
}

func TestDispatchNotifications(t *testing.T) {
	store := bookingtest.NewStore()
	n := new(mockNotifier)
	n.On("BookingCreated", mock.Anything, mock.Anything).Return(notify.Outcome{AdminNotified: true, UserNotified: true}).Once()
	async := newService(store, nil, booking.ModeAsync)
	res, err := async.Create(context.Background(), submission())
	require.NoError(t, err)

	worker := newService(store, n, booking.ModeAsync)
	b, err := worker.DispatchNotifications(context.Background(), res.Booking.ID)

	require.NoError(t, err)
	assert.True(t, b.AdminNotified && b.UserNotified)
	stored, _ := store.Get(context.Background(), res.Booking.ID)
	assert.True(t, stored.UserNotified)

	_, err = worker.DispatchNotifications(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestGetMalformedIDIsNotFound(t *testing.T) {
	_, err := newService(bookingtest.NewStore(), nil, booking.ModeSync).Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestListPaginationAndFilters(t *testing.T) {
	store := bookingtest.NewStore()
	svc := newService(store, nil, booking.ModeSync)
	for i := 0; i < 12; i++ {
		sub := submission()
		sub.Email = uuid.NewString()[:8] + "@example.com"
		if i%3 == 0 {
			sub.Date = "2026-10-25"
		}
		_, err := svc.Create(context.Background(), sub)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), booking.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	page, err = svc.List(context.Background(), booking.ListQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	page, err = svc.List(context.Background(), booking.ListQuery{Date: "2026-10-25"})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)

	page, err = svc.List(context.Background(), booking.ListQuery{Status: "confirmed", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, booking.MaxPageSize, page.Limit)

	_, err = svc.List(context.Background(), booking.ListQuery{Status: "archived"})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, validation.KindInvalidStatus, verr.Kind)
}

func TestUpdateStatus(t *testing.T) {
	store := bookingtest.NewStore()
	svc := newService(store, nil, booking.ModeSync)
	res, err := svc.Create(context.Background(), submission())
	require.NoError(t, err)

	b, err := svc.UpdateStatus(context.Background(), res.Booking.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)

	b, err = svc.UpdateStatus(context.Background(), res.Booking.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, b.Status)

	_, err = svc.UpdateStatus(context.Background(), res.Booking.ID, "done")
	var verr *validation.Error
	assert.True(t, errors.As(err, &verr))

	_, err = svc.UpdateStatus(context.Background(), uuid.NewString(), "cancelled")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestParseMode(t *testing.T) {
	m, err := booking.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, booking.ModeSync, m)

	m, err = booking.ParseMode(" ASYNC ")
	require.NoError(t, err)
	assert.Equal(t, booking.ModeAsync, m)

	_, err = booking.ParseMode("later")
	assert.Error(t, err)
}

type flagCtxStore struct {
	*bookingtest.Store
	flagCtxErr error
}

func (s *flagCtxStore) SetNotificationFlags(ctx context.Context, id string, admin, user bool) error {
	s.flagCtxErr = ctx.Err()
	return s.Store.SetNotificationFlags(ctx, id, admin, user)
}

func TestCreateSyncDispatchSurvivesCallerCancel(t *testing.T) {
	store := &flagCtxStore{Store: bookingtest.NewStore()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sendDeadline time.Time
	var sendErr error
	n := new(mockNotifier)
	n.On("BookingCreated", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cancel()
			sendCtx := args.Get(0).(context.Context)
			sendDeadline, _ = sendCtx.Deadline()
			sendErr = sendCtx.Err()
		}).
		Return(notify.Outcome{AdminNotified: true, UserNotified: true}).Once()

	svc := newService(store, n, booking.ModeSync).WithNotifyBudget(time.Minute)
	start := time.Now()
	res, err := svc.Create(ctx, submission())

	require.NoError(t, err)
	assert.NoError(t, sendErr)
	assert.False(t, sendDeadline.IsZero())
	assert.WithinDuration(t, start.Add(time.Minute), sendDeadline, 5*time.Second)
	assert.NoError(t, store.flagCtxErr)

	stored, err := store.Get(context.Background(), res.Booking.ID)
	require.NoError(t, err)
	assert.True(t, stored.AdminNotified)
	assert.True(t, stored.UserNotified)
}

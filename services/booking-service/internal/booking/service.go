package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	otelx "github.com/learnhub/seminarbook/libs/otel"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/notify"
	"github.com/learnhub/seminarbook/services/booking-service/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNotFound  = errors.New("booking not found")
	ErrDuplicate = errors.New("booking already exists for this email and date")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// DefaultNotifyBudget bounds all provider calls for one booking.
	DefaultNotifyBudget = 20 * time.Second
	// FlagUpdateTimeout bounds the write of the notification outcome.
	FlagUpdateTimeout = 5 * time.Second
)

// Store persists bookings. Create must return ErrDuplicate when the (email, date)
// pair is taken and every lookup must return ErrNotFound for unknown ids.
type Store interface {
	ExistsForDay(ctx context.Context, email string, day time.Time) (bool, error)
	Create(ctx context.Context, b model.Booking) (model.Booking, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	List(ctx context.Context, f ListFilter) ([]model.Booking, int, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Booking, error)
	SetNotificationFlags(ctx context.Context, id string, admin, user bool) error
}

type Notifier interface {
	BookingCreated(ctx context.Context, b model.Booking) notify.Outcome
}

type ListFilter struct {
	Status model.Status
	Date   *time.Time
	Limit  int
	Offset int
}

// ListQuery is the raw listing request. Zero Page and Limit select defaults.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
	Date   string
}

type Page struct {
	Items      []model.Booking
	Page       int
	Limit      int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

type Mode string

const (
	// ModeSync dispatches notifications before the create call returns.
	ModeSync Mode = "sync"
	// ModeAsync leaves dispatch to the booking.created.v1 consumer.
	ModeAsync Mode = "async"
)

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "", ModeSync:
		return ModeSync, nil
	case ModeAsync:
		return ModeAsync, nil
	default:
		return "", fmt.Errorf("unknown notify mode %q", raw)
	}
}

type CreateResult struct {
	Booking model.Booking
	Queued  bool
}

type Service struct {
	store     Store
	validator *validation.Validator
	notifier  Notifier
	mode      Mode
	logger    *slog.Logger
	newID     func() string
	budget    time.Duration
}

func NewService(store Store, validator *validation.Validator, notifier Notifier, mode Mode, logger *slog.Logger) *Service {
	if mode == "" {
		mode = ModeSync
	}
	return &Service{
		store:     store,
		validator: validator,
		notifier:  notifier,
		mode:      mode,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
		budget:    DefaultNotifyBudget,
	}
}

// WithNotifyBudget sets the total time allowed for one booking's notifications.
// Keep it below the HTTP request timeout so sync dispatch cannot outlive the response.
func (s *Service) WithNotifyBudget(d time.Duration) *Service {
	if d > 0 {
		s.budget = d
	}
	return s
}

// Create validates, rejects duplicates, stores the booking as pending and, in sync
// mode, dispatches notifications. Notification failures never fail the call.
func (s *Service) Create(ctx context.Context, sub validation.Submission) (CreateResult, error) {
	ctx, span := otelx.Tracer("booking").Start(ctx, "booking.create")
	defer span.End()

	b, err := s.validator.Booking(sub)
	if err != nil {
		span.SetStatus(codes.Error, "validation")
		return CreateResult{}, err
	}

	exists, err := s.store.ExistsForDay(ctx, b.Email, b.Date)
	if err != nil {
		span.RecordError(err)
		return CreateResult{}, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		span.SetStatus(codes.Error, "duplicate")
		return CreateResult{}, ErrDuplicate
	}

	b.ID = s.newID()
	created, err := s.store.Create(ctx, b)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			span.SetStatus(codes.Error, "duplicate")
			return CreateResult{}, ErrDuplicate
		}
		span.RecordError(err)
		return CreateResult{}, fmt.Errorf("create booking: %w", err)
	}
	span.SetAttributes(attribute.String("booking.id", created.ID))
	s.logger.Info("booking created", "booking_id", created.ID, "date", created.DateString())

	if s.mode == ModeAsync || s.notifier == nil {
		return CreateResult{Booking: created, Queued: s.mode == ModeAsync}, nil
	}
	return CreateResult{Booking: s.notify(ctx, created)}, nil
}

// DispatchNotifications runs the notifier for a stored booking. The async consumer
// calls it for each booking.created.v1 event.
func (s *Service) DispatchNotifications(ctx context.Context, id string) (model.Booking, error) {
	if s.notifier == nil {
		return model.Booking{}, errors.New("no notifier configured")
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	return s.notify(ctx, b), nil
}

// notify is detached from the caller's cancellation: the booking is already stored,
// so a client disconnect must not abort delivery or the flag write.
func (s *Service) notify(ctx context.Context, b model.Booking) model.Booking {
	base := context.WithoutCancel(ctx)

	sendCtx, cancel := context.WithTimeout(base, s.budget)
	out := s.notifier.BookingCreated(sendCtx, b)
	cancel()
	b.AdminNotified = out.AdminNotified
	b.UserNotified = out.UserNotified

	flagCtx, cancel := context.WithTimeout(base, FlagUpdateTimeout)
	defer cancel()
	if err := s.store.SetNotificationFlags(flagCtx, b.ID, out.AdminNotified, out.UserNotified); err != nil {
		s.logger.Error("update notification flags failed", "err", err, "booking_id", b.ID)
	}
	return b
}

// Get treats malformed ids as unknown.
func (s *Service) Get(ctx context.Context, id string) (model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Booking{}, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	f := ListFilter{Limit: limit, Offset: (page - 1) * limit}
	if strings.TrimSpace(q.Status) != "" {
		st, err := s.validator.Status(q.Status)
		if err != nil {
			return Page{}, err
		}
		f.Status = st
	}
	if strings.TrimSpace(q.Date) != "" {
		day, err := s.validator.ParseDay(q.Date)
		if err != nil {
			return Page{}, err
		}
		f.Date = &day
	}

	items, total, err := s.store.List(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list bookings: %w", err)
	}
	totalPages := (total + limit - 1) / limit
	return Page{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string) (model.Booking, error) {
	st, err := s.validator.Status(rawStatus)
	if err != nil {
		return model.Booking{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.Booking{}, ErrNotFound
	}
	b, err := s.store.UpdateStatus(ctx, id, st)
	if err != nil {
		return model.Booking{}, err
	}
	s.logger.Info("booking status updated", "booking_id", id, "status", st)
	return b, nil
}

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	otelx "github.com/learnhub/seminarbook/libs/otel"
	"github.com/learnhub/seminarbook/services/booking-service/internal/model"
	"github.com/learnhub/seminarbook/services/booking-service/internal/whatsapp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Channel string

const (
	ChannelAdmin Channel = "admin"
	ChannelUser  Channel = "user"
)

const (
	KindImage = "image"
	KindText  = "text"
)

// Sender is the messaging provider.
type Sender interface {
	SendImage(ctx context.Context, to, link, caption string) (string, error)
	SendText(ctx context.Context, to, body string) (string, error)
}

// Recorder persists attempts. Recording failures are logged and ignored.
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

// Attempt is one provider call for one channel.
type Attempt struct {
	BookingID string
	Channel   Channel
	Recipient string
	Kind      string
	Success   bool
	MessageID string
	Error     json.RawMessage
}

// Outcome summarizes the delivery for a booking.
type Outcome struct {
	AdminNotified bool
	UserNotified  bool
	FallbackUsed  bool
	Attempts      []Attempt
}

type Config struct {
	AdminNumber   string
	AdminImageURL string
	UserImageURL  string
	CountryPrefix string
	Brand         string
}

type Dispatcher struct {
	sender   Sender
	recorder Recorder
	cfg      Config
	logger   *slog.Logger
}

func NewDispatcher(sender Sender, recorder Recorder, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Brand == "" {
		cfg.Brand = "LearnHub"
	}
	return &Dispatcher{sender: sender, recorder: recorder, cfg: cfg, logger: logger}
}

// BookingCreated alerts the administrator, then confirms to the user. Only the user
// channel falls back to plain text. It never fails; results are in the Outcome.
func (d *Dispatcher) BookingCreated(ctx context.Context, b model.Booking) Outcome {
	ctx, span := otelx.Tracer("notify").Start(ctx, "notify.booking_created")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", b.ID))

	var out Outcome

	admin := d.attempt(ctx, b.ID, ChannelAdmin, d.cfg.AdminNumber, KindImage, func(ctx context.Context, to string) (string, error) {
		return d.sender.SendImage(ctx, to, d.cfg.AdminImageURL, adminCaption(b))
	})
	out.Attempts = append(out.Attempts, admin)
	out.AdminNotified = admin.Success

	caption := userCaption(d.cfg.Brand, b)
	user := d.attempt(ctx, b.ID, ChannelUser, b.PhoneNumber, KindImage, func(ctx context.Context, to string) (string, error) {
		return d.sender.SendImage(ctx, to, d.cfg.UserImageURL, caption)
	})
	out.Attempts = append(out.Attempts, user)
	if !user.Success && user.Recipient != "" {
		out.FallbackUsed = true
		user = d.attempt(ctx, b.ID, ChannelUser, b.PhoneNumber, KindText, func(ctx context.Context, to string) (string, error) {
			return d.sender.SendText(ctx, to, fallbackText(caption, d.cfg.UserImageURL))
		})
		out.Attempts = append(out.Attempts, user)
	}
	out.UserNotified = user.Success

	if !out.AdminNotified || !out.UserNotified {
		span.SetStatus(codes.Error, "notification not delivered")
	}
	span.SetAttributes(
		attribute.Bool("notify.admin", out.AdminNotified),
		attribute.Bool("notify.user", out.UserNotified),
		attribute.Bool("notify.fallback", out.FallbackUsed),
	)
	return out
}

type sendFunc func(ctx context.Context, to string) (string, error)

func (d *Dispatcher) attempt(ctx context.Context, bookingID string, ch Channel, rawNumber, kind string, send sendFunc) Attempt {
	a := Attempt{BookingID: bookingID, Channel: ch, Kind: kind}
	a.Recipient = NormalizePhone(rawNumber, d.cfg.CountryPrefix)

	switch {
	case strings.TrimSpace(rawNumber) == "" || a.Recipient == "":
		a.Error, _ = json.Marshal(map[string]string{"error": "no destination number for " + string(ch) + " channel"})
	default:
		id, err := send(ctx, a.Recipient)
		if err != nil {
			a.Error = whatsapp.Raw(err)
		} else {
			a.Success = true
			a.MessageID = id
		}
	}

	if a.Success {
		d.logger.Info("whatsapp message sent", "booking_id", bookingID, "channel", ch, "kind", kind, "message_id", a.MessageID)
	} else {
		d.logger.Warn("whatsapp message failed", "booking_id", bookingID, "channel", ch, "kind", kind, "provider_error", string(a.Error))
	}

	if d.recorder != nil {
		if err := d.recorder.RecordAttempt(ctx, a); err != nil {
			d.logger.Error("record notification attempt failed", "err", err, "booking_id", bookingID)
		}
	}
	return a
}

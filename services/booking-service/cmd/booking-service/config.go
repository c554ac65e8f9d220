package main

import (
	"fmt"
	"time"

	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
)

type serviceConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	ApplySchema bool   `envconfig:"APPLY_SCHEMA" default:"true"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"booking-notifier"`

	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
	RateLimitFailOpen  bool   `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`

	CORSAllowedOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS"`
	AdminJWTSecret     string        `envconfig:"ADMIN_JWT_SECRET"`
	BodyLimitBytes     int64         `envconfig:"BODY_LIMIT_BYTES" default:"65536"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	NotifyBudget       time.Duration `envconfig:"NOTIFY_BUDGET" default:"20s"`

	Timezone           string `envconfig:"BOOKING_TIMEZONE" default:"Asia/Kolkata"`
	PhoneCountryPrefix string `envconfig:"PHONE_COUNTRY_PREFIX" default:"91"`
	NotifyMode         string `envconfig:"NOTIFY_MODE" default:"sync"`
	Brand              string `envconfig:"BRAND_NAME" default:"LearnHub"`

	WhatsAppConfig
}

// WhatsAppConfig is embedded so its keys are read without a prefix.
type WhatsAppConfig struct {
	BaseURL        string `envconfig:"WHATSAPP_API_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion     string `envconfig:"WHATSAPP_API_VERSION" default:"v18.0"`
	PhoneNumberID  string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	AccessToken    string `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	AdminNumber    string `envconfig:"WHATSAPP_ADMIN_NUMBER"`
	AdminImageURL  string `envconfig:"WHATSAPP_ADMIN_IMAGE_URL"`
	UserImageURL   string `envconfig:"WHATSAPP_USER_IMAGE_URL"`
	TimeoutSeconds int    `envconfig:"WHATSAPP_TIMEOUT_SECONDS" default:"10"`
}

// validate rejects a notify budget that leaves no room for the flag write
// inside the request timeout. Sync dispatch runs within the request.
func (c serviceConfig) validate() error {
	if c.NotifyBudget <= 0 {
		return fmt.Errorf("NOTIFY_BUDGET must be positive, got %s", c.NotifyBudget)
	}
	if c.NotifyBudget+booking.FlagUpdateTimeout >= c.RequestTimeout {
		return fmt.Errorf("NOTIFY_BUDGET (%s) plus %s must stay below REQUEST_TIMEOUT (%s)",
			c.NotifyBudget, booking.FlagUpdateTimeout, c.RequestTimeout)
	}
	return nil
}

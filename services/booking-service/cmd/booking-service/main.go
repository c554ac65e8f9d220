package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/learnhub/seminarbook/libs/auth"
	"github.com/learnhub/seminarbook/libs/config"
	"github.com/learnhub/seminarbook/libs/db"
	"github.com/learnhub/seminarbook/libs/httpx"
	"github.com/learnhub/seminarbook/libs/kafkax"
	otelx "github.com/learnhub/seminarbook/libs/otel"
	"github.com/learnhub/seminarbook/libs/runtime"
	"github.com/learnhub/seminarbook/services/booking-service/internal/booking"
	"github.com/learnhub/seminarbook/services/booking-service/internal/consumer"
	"github.com/learnhub/seminarbook/services/booking-service/internal/events"
	"github.com/learnhub/seminarbook/services/booking-service/internal/handlers"
	"github.com/learnhub/seminarbook/services/booking-service/internal/inbox"
	"github.com/learnhub/seminarbook/services/booking-service/internal/notify"
	"github.com/learnhub/seminarbook/services/booking-service/internal/outbox"
	"github.com/learnhub/seminarbook/services/booking-service/internal/storage"
	"github.com/learnhub/seminarbook/services/booking-service/internal/validation"
	"github.com/learnhub/seminarbook/services/booking-service/internal/whatsapp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	var cfg serviceConfig
	if err := config.Load("", &cfg); err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}
	if err := cfg.validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid BOOKING_TIMEZONE", "err", err, "value", cfg.Timezone)
		panic(err)
	}
	mode, err := booking.ParseMode(cfg.NotifyMode)
	if err != nil {
		panic(err)
	}
	if mode == booking.ModeAsync && len(kafkax.SplitBrokers(cfg.KafkaBrokers)) == 0 {
		logger.Warn("NOTIFY_MODE=async requires KAFKA_BROKERS; falling back to sync")
		mode = booking.ModeSync
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.ApplySchema {
		if err := storage.Migrate(ctx, pool); err != nil {
			logger.Error("schema migration failed", "err", err)
			panic(err)
		}
	}

	outboxRepo := outbox.NewRepository()
	repo := storage.NewBookingRepository(pool, outboxRepo, loc)

	wa := whatsapp.NewClient(whatsapp.Config{
		BaseURL:       cfg.BaseURL,
		APIVersion:    cfg.APIVersion,
		PhoneNumberID: cfg.PhoneNumberID,
		AccessToken:   cfg.AccessToken,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if !wa.Configured() {
		logger.Warn("whatsapp credentials missing; notifications will be recorded as failed")
	}
	dispatcher := notify.NewDispatcher(wa, storage.NewAttemptRepository(pool), notify.Config{
		AdminNumber:   cfg.AdminNumber,
		AdminImageURL: cfg.AdminImageURL,
		UserImageURL:  cfg.UserImageURL,
		CountryPrefix: cfg.PhoneCountryPrefix,
		Brand:         cfg.Brand,
	}, logger)

	svc := booking.NewService(repo, validation.New(loc), dispatcher, mode, logger).WithNotifyBudget(cfg.NotifyBudget)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if mode == booking.ModeAsync {
		notifier := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   events.TypeBookingCreated,
		}, func(ctx context.Context, msg kafka.Message) error {
			evt, err := events.DecodeBookingCreated(msg.Value)
			if err != nil || evt.BookingID == "" {
				logger.Error("invalid booking.created payload", "err", err, "offset", msg.Offset)
				return nil
			}
			_, err = svc.DispatchNotifications(ctx, evt.BookingID)
			return err
		})
		go notifier.Run(ctx)
	}

	var rateLimit httpx.Middleware
	var redisCheck func(context.Context) error
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		rateLimit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, service+":book").
			Middleware(logger, cfg.RateLimitFailOpen)
		redisCheck = httpx.RedisReadyCheck(rdb)
	} else {
		rateLimit = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	}

	var admin httpx.Middleware
	if cfg.AdminJWTSecret != "" {
		admin = auth.RequireRole(cfg.AdminJWTSecret, auth.RoleAdmin)
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set; booking reports are unauthenticated")
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
		runtime.ReadyCheck{Name: "redis", Check: redisCheck},
	)
	mux.Handle("/", handlers.NewRouter(handlers.NewBookingHandler(svc, logger), admin))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.ParseList(cfg.CORSAllowedOrigins),
			MaxAge:         10 * time.Minute,
		}),
		httpx.When(httpx.MethodPath(http.MethodPost, "/book", "/api/v1/book"), rateLimit),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "notify_mode", mode, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

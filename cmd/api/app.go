package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/campus-triage-bot/internal/api/router"
	"github.com/wolfman30/campus-triage-bot/internal/bookings"
	"github.com/wolfman30/campus-triage-bot/internal/catalog"
	appconfig "github.com/wolfman30/campus-triage-bot/internal/config"
	"github.com/wolfman30/campus-triage-bot/internal/conversation"
	httpmiddleware "github.com/wolfman30/campus-triage-bot/internal/http/middleware"
	"github.com/wolfman30/campus-triage-bot/internal/notify"
	"github.com/wolfman30/campus-triage-bot/internal/observability/metrics"
	"github.com/wolfman30/campus-triage-bot/internal/triage"
	"github.com/wolfman30/campus-triage-bot/internal/webchat"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

// app is the fully wired server plus whatever it must release on exit.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	symptoms, err := catalog.LoadSymptomsCSV(cfg.SymptomsCSV)
	if err != nil {
		return nil, err
	}
	treatments, err := catalog.LoadTreatmentsCSV(cfg.TreatmentsCSV)
	if err != nil {
		return nil, err
	}
	doctors, err := loadDoctors(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, catalog.ErrNoDoctors
	}
	logger.Info("reference data loaded", "symptoms", symptoms.Len(), "treatments", treatments.Len(), "doctors", len(doctors))

	sessions, err := newSessionStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	appointments, err := newAppointmentLog(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	triageMetrics := metrics.NewTriageMetrics(registry)

	bookingService := bookings.NewService(bookings.Config{
		Sessions: sessions,
		Log:      appointments,
		Doctors:  doctors,
		Notifier: notify.NewAppointmentNotifier(newEmailSender(cfg, logger), cfg.ClinicName, logger.WithComponent("notify")),
		Metrics:  triageMetrics,
		Logger:   logger.WithComponent("bookings"),
		Clinic:   bookings.Clinic{Name: cfg.ClinicName, Location: cfg.ClinicLocation},
		Location: cfg.Location(),
	})

	engine := conversation.NewEngine(
		sessions,
		triage.NewMatcher(symptoms, nil),
		triage.NewResolver(symptoms),
		treatments,
		conversation.WithReplies(conversation.NewTemplateReplies(cfg.CampusName, nil)),
		conversation.WithSlotConfirmer(bookingService),
		conversation.WithMetrics(triageMetrics),
		conversation.WithLogger(logger.WithComponent("conversation")),
		conversation.WithLongIllnessDays(cfg.LongIllnessDays),
	)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		a.closers = append(a.closers, limiter.Close)
	}

	a.handler = router.New(&router.Config{
		Logger: logger,
		Webchat: webchat.NewHandler(engine, bookingService,
			webchat.WithMetrics(triageMetrics),
			webchat.WithGatherer(registry),
			webchat.WithLogger(logger.WithComponent("webchat")),
		),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return a, nil
}

func loadDoctors(ctx context.Context, cfg *appconfig.Config) (catalog.Roster, error) {
	switch cfg.DoctorSource {
	case "", "csv":
		return catalog.LoadDoctorsCSV(cfg.DoctorsCSV)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DOCTOR_SOURCE=postgres requires DATABASE_URL")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open doctors db: %w", err)
		}
		defer db.Close()
		return catalog.LoadDoctorsFromDB(ctx, db)
	default:
		return nil, fmt.Errorf("unknown DOCTOR_SOURCE %q", cfg.DoctorSource)
	}
}

func newSessionStore(ctx context.Context, cfg *appconfig.Config, a *app) (conversation.Store, error) {
	switch cfg.SessionStore {
	case "", "memory":
		return conversation.NewMemoryStore(), nil
	case "redis":
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = client.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return conversation.NewRedisStore(client, conversation.RedisStoreOptions{TTL: cfg.SessionTTL}), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}

func newAppointmentLog(ctx context.Context, cfg *appconfig.Config, a *app) (bookings.AppointmentLog, error) {
	switch cfg.AppointmentStore {
	case "", "csv":
		return bookings.NewCSVLog(cfg.AppointmentsCSV), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("APPOINTMENT_STORE=postgres requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect appointments db: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping appointments db: %w", err)
		}
		return bookings.NewPostgresLog(pool), nil
	default:
		return nil, fmt.Errorf("unknown APPOINTMENT_STORE %q", cfg.AppointmentStore)
	}
}

func newEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger.WithComponent("sendgrid"))
	if sender == nil {
		return notify.NewLogSender(logger.WithComponent("email"))
	}
	return sender
}

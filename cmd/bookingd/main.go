package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mumairryk/BookingApp/internal/booking"
	"github.com/mumairryk/BookingApp/internal/joblog"
	"github.com/mumairryk/BookingApp/internal/matching"
	"github.com/mumairryk/BookingApp/internal/notify"
	"github.com/mumairryk/BookingApp/pkg/clock"
	"github.com/mumairryk/BookingApp/pkg/config"
	"github.com/mumairryk/BookingApp/pkg/db"
	"github.com/mumairryk/BookingApp/pkg/mail"
	"github.com/mumairryk/BookingApp/pkg/onesignal"
	"github.com/mumairryk/BookingApp/pkg/sms"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg); err != nil {
			logger.Fatal("migrate failed", zap.Error(err))
		}
	}

	clk := clock.Real{
		NightStartHour:    cfg.NightStartHour,
		NightEndHour:      cfg.NightEndHour,
		BusinessStartHour: cfg.BusinessStartHour,
	}

	push := onesignal.Client{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		BaseURL:    cfg.Push.BaseURL,
		AppID:      cfg.Push.AppID,
		APIKey:     cfg.Push.APIKey,
	}
	smsClient := sms.Client{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		BaseURL:    cfg.SMS.BaseURL,
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
	}
	mailer := mail.SMTPMailer{
		Host:        cfg.Mail.SMTPHost,
		Port:        cfg.Mail.SMTPPort,
		Username:    cfg.Mail.Username,
		Password:    cfg.Mail.Password,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
	}

	bookings := booking.NewRepository(conn)
	profiles := matching.NewRepository(conn)
	matcher := matching.NewService(profiles)
	langs := notify.NewLanguageCache(bookings)
	dispatcher := notify.NewDispatcher(push, smsClient, matcher, profiles, langs, clk, logger, cfg.Push.Title, cfg.SMS.FromNumber)
	logs := joblog.NewRepository(conn)

	svc := booking.NewService(conn, bookings, clk, mailer, dispatcher, matcher, logs, logger)

	logger.Info("expiry sweeper running", zap.Duration("interval", cfg.SweepInterval))
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			n, err := svc.ExpireOverdue(ctx)
			if err != nil {
				logger.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expiry sweep done", zap.Int("expired", n))
			}
		}
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

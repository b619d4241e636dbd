package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agencykit/portal/internal/api"
	"github.com/agencykit/portal/internal/api/handler"
	"github.com/agencykit/portal/internal/audit"
	"github.com/agencykit/portal/internal/clientcode"
	"github.com/agencykit/portal/internal/config"
	"github.com/agencykit/portal/internal/database"
	"github.com/agencykit/portal/internal/identity"
	"github.com/agencykit/portal/internal/join"
	"github.com/agencykit/portal/internal/member"
	"github.com/agencykit/portal/internal/onboarding"
	"github.com/agencykit/portal/internal/project"
	"github.com/agencykit/portal/internal/ticket"
	"github.com/agencykit/portal/internal/token"
	"github.com/agencykit/portal/internal/upload"
	"github.com/agencykit/portal/internal/website"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(ctx)
	cancel()
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool := db.Pool()

	auditor := audit.NewRecorder(pool)
	tokens := token.NewManager(cfg.SessionSecret)

	codeRepo := clientcode.NewRepository(pool)
	codes := clientcode.NewService(codeRepo, clientcode.NewHasher(cfg.CodeHashSecret), auditor)

	members := member.NewRepository(pool)
	milestones := onboarding.NewRepository(pool)
	projects := project.NewService(project.NewRepository(pool), codes, members, milestones, auditor, cfg.BootstrapSecret)

	var mailer identity.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = identity.NewSendGridMailer(cfg.SendgridAPIKey, cfg.MailFrom)
	} else {
		slog.Warn("SENDGRID_API_KEY not set; login links will be logged instead of sent")
		mailer = identity.LogMailer{}
	}
	identities := identity.NewService(
		identity.NewProfileRepository(pool),
		identity.NewLoginTokenRepository(pool),
		mailer,
		cfg.SiteURL,
		cfg.BcryptCost,
	)

	binder := join.NewBinder(codes, members, tokens, auditor, cfg.AdminEmails)

	signer, err := upload.NewS3Signer(upload.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Bucket:          cfg.S3Bucket,
	}, time.Duration(cfg.PresignExpiryMin)*time.Minute)
	if err != nil {
		slog.Error("failed to initialize blob-store signer", "error", err)
		os.Exit(1)
	}
	uploads := upload.NewService(upload.NewRepository(pool), signer)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:   db,
		Version:    cfg.Version,
		Identities: identities,
		Binder:     binder,
		Tokens:     tokens,
		Cookies:    handler.CookieWriter{Secure: strings.HasPrefix(cfg.SiteURL, "https://")},
		Codes:      codes,
		Projects:   projects,
		Members:    members,
		Milestones: milestones,
		Tickets:    ticket.NewRepository(pool),
		Uploads:    uploads,
		Websites:   website.NewRepository(pool),
		Auditor:    auditor,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting portal server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	emailPkg "barreltech/internal/adapters/email"
	web "barreltech/internal/adapters/http"
	"barreltech/internal/adapters/storage"
	enrollmentStore "barreltech/internal/adapters/storage/enrollment"
	"barreltech/internal/application/orchestrators"
	"barreltech/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// shutdownTimeout bounds how long in-flight requests get on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	// Relational store: connect before accepting requests. A failure leaves the
	// handle disconnected and /api/enroll-sqlite answers 500 until restart.
	handle := storage.NewHandle(cfg.SQLitePath())
	if err := handle.Connect(ctx); err != nil {
		slog.Error("sqlite_connect_failed", "path", cfg.SQLitePath(), "error", err.Error())
	}
	defer handle.Close()

	// Spreadsheet store: create the workbook with its header if absent.
	if err := enrollmentStore.InitWorkbook(cfg.WorkbookPath()); err != nil {
		slog.Error("workbook_init_failed", "path", cfg.WorkbookPath(), "error", err.Error())
	}

	// Document store: optional.
	mongoClient, err := storage.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if mongoClient == nil {
		slog.Warn("mongo_not_configured", "hint", "set MONGODB_URI to enable /api/enroll")
	}

	mail := orchestrators.NotifyEnrollmentDeps{
		EmailSender: newEmailSender(cfg),
		From:        cfg.FromEmail,
		To:          cfg.CompanyEmail,
	}
	notifier := orchestrators.NewBestEffortNotifier(mail)

	handler := web.NewMux(web.Config{
		Port:          cfg.Port,
		StaticDir:     cfg.StaticDir,
		Courses:       cfg.Courses,
		FormEndpoint:  cfg.FormEndpoint,
		CSRFKey:       cfg.CSRFKey,
		SecureCookies: cfg.Production,
		CORSOrigins:   cfg.CORSOrigins,
	}, web.Deps{
		Backends: web.Backends{
			Mongo:  enrollmentStore.NewMongoStore(mongoClient, cfg.MongoDatabase),
			SQLite: enrollmentStore.NewSQLiteStore(handle),
			Excel:  enrollmentStore.NewXLSXStore(cfg.WorkbookPath()),
		},
		Notifier: notifier,
		Mail:     mail,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Barrel Tech %s running on http://localhost:%d", version, cfg.Port)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown_started")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_failed", "error", err.Error())
	}
	notifier.Wait()
	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			slog.Error("mongo_disconnect_failed", "error", err.Error())
		}
	}
	slog.Info("shutdown_complete")
}

// newEmailSender picks SMTP, then Resend, then the logging noop sender.
func newEmailSender(cfg config.Config) emailPkg.Sender {
	switch {
	case cfg.SMTPHost != "":
		slog.Info("email_sender_configured", "sender", "smtp", "host", cfg.SMTPHost)
		return emailPkg.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
	case cfg.ResendAPIKey != "":
		slog.Info("email_sender_configured", "sender", "resend")
		return emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.FromEmail)
	default:
		if cfg.Production {
			slog.Warn("email_sender_configured", "sender", "noop", "hint", "email delivery is DISABLED in production")
		} else {
			slog.Info("email_sender_configured", "sender", "noop")
		}
		return emailPkg.NewNoopSender()
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/campusworks/winter-registry/internal/catalog"
	"github.com/campusworks/winter-registry/internal/domain"
	"github.com/campusworks/winter-registry/internal/handler"
	"github.com/campusworks/winter-registry/internal/identity"
	"github.com/campusworks/winter-registry/internal/relay"
	"github.com/campusworks/winter-registry/internal/repository/sqlite"
	"github.com/campusworks/winter-registry/internal/service"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "winter-registry.db")
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		slog.Error("SESSION_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(sessionSecret) < 32 {
		slog.Error("SESSION_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("ADMIN_KEY not set; admin endpoints are disabled")
	}

	relayURL := os.Getenv("RELAY_URL")

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	idConfig := identity.DefaultConfig()
	if v := os.Getenv("EMAIL_DOMAINS"); v != "" {
		idConfig.EmailDomains = splitAndTrim(v)
	}

	bcryptCost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid BCRYPT_COST", "error", err)
			os.Exit(1)
		}
		if parsed < 4 || parsed > 14 {
			slog.Error("BCRYPT_COST must be between 4 and 14", "value", parsed)
			os.Exit(1)
		}
		bcryptCost = parsed
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	cat, err := catalog.Load()
	if err != nil {
		slog.Error("failed to load project catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("project catalog loaded", "projects", len(cat.Projects()))

	var notifier domain.RelayNotifier
	if relayURL != "" {
		client := relay.New(relayURL)
		defer client.Close()
		notifier = client
		slog.Info("spreadsheet relay enabled", "url", relayURL)
	}

	registrationService := service.NewRegistrationService(db.Registrations(), notifier, idConfig, bcryptCost)
	sessionService := service.NewSessionService(db.Registrations(), sessionSecret)
	reportService := service.NewReportService(db.Registrations())

	registrationHandler := handler.NewRegistrationHandler(registrationService, sessionService, cookieSecure)
	adminHandler := handler.NewAdminHandler(reportService, cat)
	catalogHandler := handler.NewCatalogHandler(cat)
	healthHandler := handler.NewHealthHandler(reportService)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, registrationHandler, adminHandler, catalogHandler, healthHandler, adminKey)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

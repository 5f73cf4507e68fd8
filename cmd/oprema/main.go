package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/oprema/internal/api"
	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/config"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/media"
	"github.com/erazemk/oprema/internal/metrics"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/ratelimit"
	"github.com/erazemk/oprema/internal/store"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout
// and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging at the given level. If logPath
// is non-empty, all records are also written to that file. Returns a cleanup
// function that closes the log file (if opened).
func setupLogger(logPath, levelName string) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		level:  level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stdout, config.Usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath, "env", cfg.Environment)

	if err := bootstrapAdmin(ctx, database, cfg.DBPath); err != nil {
		return err
	}
	if cfg.SuperAdminPIN == "" {
		slog.Warn("SUPER_ADMIN_PIN not set, super-admin login disabled")
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	mediaStore, err := media.NewLocalStore(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		return err
	}

	loginLimiter := ratelimit.New(ratelimit.PerMinute(cfg.LoginRate), cfg.LoginBurst)
	defer loginLimiter.Stop()

	router := api.NewRouter(api.Options{
		DB:            database,
		JWTSecret:     jwtSecret,
		SuperAdminPIN: cfg.SuperAdminPIN,
		TokenTTL:      cfg.TokenTTL,
		Media:         mediaStore,
		MediaPrefix:   mediaStore.URLPrefix,
		MediaHandler:  mediaStore.Handler(),
		Metrics:       metrics.New(),
		LoginLimiter:  loginLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		ExposeErrors:  cfg.IsDevelopment(),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeRevokedTokens(purgeCtx, database, time.Hour)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "media", cfg.MediaDir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// bootstrapAdmin creates the first admin account when the database has no
// users and prints its PIN once.
func bootstrapAdmin(ctx context.Context, database *sql.DB, dbPath string) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	pin, err := generatePIN()
	if err != nil {
		return fmt.Errorf("generating PIN: %w", err)
	}
	hash, err := auth.HashPIN(pin)
	if err != nil {
		return fmt.Errorf("hashing PIN: %w", err)
	}
	if _, err := store.CreateUser(ctx, database, "Admin", hash, model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	printInitResult(dbPath, "Admin", pin)
	return nil
}

// printInitResult prints the first-run admin account to stdout.
func printInitResult(dbPath, name, pin string) {
	fmt.Printf("Database initialized: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Name: %s\n", name)
	fmt.Printf("  PIN:  %s\n", pin)
	fmt.Println()
	fmt.Println("Save this PIN, it cannot be recovered.")
	fmt.Println("It can be changed after logging in.")
	fmt.Println()
}

// generatePIN returns a random 4-digit PIN.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// purgeRevokedTokens drops expired revocations until ctx is done.
func purgeRevokedTokens(ctx context.Context, database *sql.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpiredTokens(ctx, database)
			if err != nil {
				slog.Warn("purging revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}

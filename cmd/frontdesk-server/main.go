package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinichq/frontdesk/internal/config"
	"github.com/clinichq/frontdesk/internal/domain/appointment"
	"github.com/clinichq/frontdesk/internal/domain/clinicservice"
	"github.com/clinichq/frontdesk/internal/domain/examination"
	"github.com/clinichq/frontdesk/internal/domain/medication"
	"github.com/clinichq/frontdesk/internal/domain/patient"
	"github.com/clinichq/frontdesk/internal/domain/staff"
	"github.com/clinichq/frontdesk/internal/domain/task"
	"github.com/clinichq/frontdesk/internal/domain/treatment"
	"github.com/clinichq/frontdesk/internal/platform/auth"
	"github.com/clinichq/frontdesk/internal/platform/db"
	"github.com/clinichq/frontdesk/internal/platform/middleware"
	"github.com/clinichq/frontdesk/internal/platform/notification"
	"github.com/clinichq/frontdesk/internal/platform/reminder"
	"github.com/clinichq/frontdesk/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "frontdesk-server",
		Short: "Clinic front-desk and patient-portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// tokenCmd mints an access token for standalone deployments with no
// external identity provider.
func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			name, _ := cmd.Flags().GetString("name")
			roles, _ := cmd.Flags().GetString("roles")
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthSigningKey == "" {
				return fmt.Errorf("AUTH_SIGNING_KEY is not configured")
			}

			token, err := auth.MintToken(auth.Config{
				SigningKey: []byte(cfg.AuthSigningKey),
				Issuer:     "frontdesk",
				TokenTTL:   cfg.TokenTTL(),
			}, subject, name, strings.Split(roles, ","))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "User ID the token identifies")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("roles", "receptionist", "Comma-separated roles")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevMiddleware())
	} else {
		e.Use(auth.Middleware(auth.Config{
			SigningKey: []byte(cfg.AuthSigningKey),
			Issuer:     "frontdesk",
			TokenTTL:   cfg.TokenTTL(),
		}))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Catalogs
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	staffSvc := staff.NewService(staff.NewRepoPG(pool))
	staff.NewHandler(staffSvc).RegisterRoutes(apiV1)

	medicationSvc := medication.NewService(medication.NewRepoPG(pool))
	medication.NewHandler(medicationSvc).RegisterRoutes(apiV1)

	serviceCatalog := clinicservice.NewCatalog(clinicservice.NewRepoPG(pool))
	clinicservice.NewHandler(serviceCatalog).RegisterRoutes(apiV1)

	// Booking and intake
	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool))
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)

	examSvc := examination.NewService(examination.NewRepoPG(pool))
	examination.NewHandler(examSvc).RegisterRoutes(apiV1)

	// Tasks
	taskSvc := task.NewService(
		task.NewTaskRepoPG(pool),
		task.NewHistoryRepoPG(pool),
		task.NewReminderRepoPG(pool),
	)
	task.NewHandler(taskSvc).RegisterRoutes(apiV1)

	// Treatment plans
	treatmentSvc := treatment.NewService(
		treatment.NewPlanRepoPG(pool),
		treatment.NewMedicationRepoPG(pool),
		treatment.NewReminderRepoPG(pool),
		treatment.NewResponseRepoPG(pool),
		treatment.NewProgressRepoPG(pool),
		treatment.NewPGTxRunner(pool),
	)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(apiV1)

	// Notifications. No SMTP/SMS gateway is wired yet, so deliveries land in
	// the in-memory senders and are inspectable via the notification routes.
	// TODO: wire a real EmailSender once the clinic's SMTP relay is decided.
	notifyMgr := notification.NewManager(
		&notification.MockEmailSender{},
		&notification.MockSMSSender{},
		notification.NewTemplateEngine(),
	)
	notification.NewHandler(notifyMgr).RegisterRoutes(apiV1)

	// WebSocket hub
	hub := ws.NewHub()
	ws.NewHandler(hub).RegisterRoutes(apiV1)

	// Reminder scanner
	scanCtx, stopScanner := context.WithCancel(ctx)
	defer stopScanner()
	scanner := reminder.NewScanner(taskSvc, hub, notifyMgr, cfg.ReminderScanInterval(), logger)
	go scanner.Run(scanCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopScanner()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaisagh-mp/clinic-project/internal/config"
	"github.com/vaisagh-mp/clinic-project/internal/domain/accounts"
	"github.com/vaisagh-mp/clinic-project/internal/domain/admin"
	"github.com/vaisagh-mp/clinic-project/internal/domain/billing"
	"github.com/vaisagh-mp/clinic-project/internal/domain/clinic"
	"github.com/vaisagh-mp/clinic-project/internal/domain/consultation"
	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/internal/platform/db"
	"github.com/vaisagh-mp/clinic-project/internal/platform/mail"
	"github.com/vaisagh-mp/clinic-project/internal/platform/middleware"
	"github.com/vaisagh-mp/clinic-project/internal/platform/scope"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

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

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a superadmin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("--username, --email and --password are required")
			}

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

			logger := zerolog.Nop()
			issuer := auth.NewTokenIssuer(cfg.JWTSecret,
				time.Duration(cfg.AccessTokenTTLMin)*time.Minute,
				time.Duration(cfg.RefreshTokenTTLHrs)*time.Hour)
			revocations := auth.NewTokenRevocationStore()
			defer revocations.Close()
			svc := accounts.NewService(accounts.NewUserRepoPG(pool), issuer, revocations,
				&mail.LogSender{}, mail.NewRegistry(), logger,
				time.Duration(cfg.ResetTokenTTLMin)*time.Minute, cfg.FrontendBaseURL)

			u, err := svc.Register(ctx, accounts.RegisterInput{
				Username:        username,
				Email:           email,
				Password:        password,
				ConfirmPassword: password,
				Role:            auth.RoleSuperAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Superadmin created: %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login username")
	createCmd.Flags().String("email", "", "Account email")
	createCmd.Flags().String("password", "", "Initial password")
	cmd.AddCommand(createCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
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

	// Shared infrastructure
	issuer := auth.NewTokenIssuer(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLHrs)*time.Hour)
	revocations := auth.NewTokenRevocationStore()
	defer revocations.Close()

	var mailer mail.EmailSender
	if cfg.SMTPHost != "" {
		mailer = &mail.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	} else {
		logger.Warn().Msg("SMTP_HOST not set; outbound email is logged instead of sent")
		mailer = &mail.LogSender{}
	}
	templates := mail.NewRegistry()
	txRunner := db.NewTxRunner(pool)

	// Repositories
	userRepo := accounts.NewUserRepoPG(pool)
	clinicRepo := clinic.NewClinicRepoPG(pool)
	doctorRepo := clinic.NewDoctorRepoPG(pool)
	patientRepo := clinic.NewPatientRepoPG(pool)
	appointmentRepo := clinic.NewAppointmentRepoPG(pool)
	consultationRepo := consultation.NewConsultationRepoPG(pool)
	prescriptionRepo := consultation.NewPrescriptionRepoPG(pool)
	medicineRepo := billing.NewMedicineRepoPG(pool)
	procedureRepo := billing.NewProcedureRepoPG(pool)
	materialBillRepo := billing.NewMaterialBillRepoPG(pool)
	clinicBillRepo := billing.NewClinicBillRepoPG(pool)
	labBillRepo := billing.NewLabBillRepoPG(pool)
	pharmacyBillRepo := billing.NewPharmacyBillRepoPG(pool)
	paymentRepo := billing.NewPaymentRepoPG(pool)

	resolver := scope.NewResolver(clinic.NewDirectory(clinicRepo, doctorRepo))

	// Services
	accountsSvc := accounts.NewService(userRepo, issuer, revocations, mailer, templates, logger,
		time.Duration(cfg.ResetTokenTTLMin)*time.Minute, cfg.FrontendBaseURL)
	clinicSvc := clinic.NewService(clinicRepo, doctorRepo, patientRepo, appointmentRepo,
		userRepo, txRunner, mailer, templates, logger)
	adminSvc := admin.NewService(userRepo, clinicRepo, doctorRepo, issuer)
	consultationSvc := consultation.NewService(consultationRepo, prescriptionRepo,
		appointmentRepo, patientRepo, txRunner, logger)
	billingSvc := billing.NewService(medicineRepo, procedureRepo, materialBillRepo,
		clinicBillRepo, labBillRepo, pharmacyBillRepo, paymentRepo, patientRepo, txRunner, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool))

	authMW := auth.JWTMiddleware(issuer, revocations)

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// API groups
	accountsG := e.Group("/api/accounts", middleware.RateLimit(rateLimitCfg))
	adminG := e.Group("/api/admin-panel", middleware.RateLimit(rateLimitCfg), authMW)
	clinicG := e.Group("/api/clinic", middleware.RateLimit(rateLimitCfg), authMW)
	doctorG := e.Group("/api/doctor", middleware.RateLimit(rateLimitCfg), authMW)
	billingG := e.Group("/api/billing", middleware.RateLimit(rateLimitCfg), authMW)

	accounts.NewHandler(accountsSvc).RegisterRoutes(accountsG, authMW)
	admin.NewHandler(adminSvc).RegisterRoutes(adminG)
	clinic.NewHandler(clinicSvc, resolver).RegisterRoutes(adminG, clinicG)
	consultation.NewHandler(consultationSvc, resolver).RegisterRoutes(doctorG, clinicG)
	billing.NewHandler(billingSvc, resolver).RegisterRoutes(billingG)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

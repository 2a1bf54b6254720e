package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repertoire/internal/config"
	"repertoire/internal/database"
	"repertoire/internal/explorer"
	"repertoire/internal/handlers"
	"repertoire/internal/repository"
	"repertoire/internal/security"
	"repertoire/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	studyRepo := repository.NewStudyRepository(db)
	mistakeRepo := repository.NewMistakeRepository(db)
	drillRepo := repository.NewDrillRepository(db)
	puzzleRepo := repository.NewPuzzleRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	studyService := service.NewStudyService(studyRepo, mistakeRepo)
	reviewService := service.NewReviewService(mistakeRepo, studyRepo)
	drillService := service.NewDrillService(drillRepo)
	puzzleService := service.NewPuzzleService(puzzleRepo)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.ReminderFromEmail, cfg.ReminderFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	reminderService := service.NewReminderService(reviewService, emailService, userRepo, cfg.ReminderInterval)

	// Seed the builtin puzzle set
	puzzleService.SeedBuiltinPuzzles()

	// Initialize handlers
	csrf := security.NewCSRFStore()
	loginLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, studyService, emailService, csrf, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectBase)
	studyHandler := handlers.NewStudyHandler(studyService)
	practiceHandler := handlers.NewPracticeHandler(studyService, reviewService)
	reviewHandler := handlers.NewReviewHandler(studyService, reviewService)
	drillHandler := handlers.NewDrillHandler(studyService, drillService)
	puzzleHandler := handlers.NewPuzzleHandler(puzzleService)
	explorerHandler := handlers.NewExplorerHandler(explorer.NewClient(cfg.ExplorerBaseURL))

	// Setup routes
	mux := http.NewServeMux()

	// Static files (the board frontend)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("POST /api/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/csrf", authHandler.CSRFToken)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))

	// Studies
	mux.HandleFunc("GET /api/studies", middleware.RequireAuth(studyHandler.List))
	mux.HandleFunc("POST /api/studies", middleware.RequireAuth(middleware.CSRFProtect(studyHandler.Create)))
	mux.HandleFunc("GET /api/studies/{id}", middleware.RequireAuth(studyHandler.Get))
	mux.HandleFunc("PUT /api/studies/{id}", middleware.RequireAuth(middleware.CSRFProtect(studyHandler.Update)))
	mux.HandleFunc("DELETE /api/studies/{id}", middleware.RequireAuth(middleware.CSRFProtect(studyHandler.Delete)))
	mux.HandleFunc("GET /api/studies/{id}/progress", middleware.RequireAuth(studyHandler.Progress))

	// Practice
	mux.HandleFunc("POST /api/studies/{id}/practice/start", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.Start)))
	mux.HandleFunc("POST /api/practice/move", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.Move)))
	mux.HandleFunc("POST /api/practice/promotion", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.ChoosePromotion)))
	mux.HandleFunc("POST /api/practice/promotion/cancel", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.CancelPromotion)))
	mux.HandleFunc("POST /api/practice/restart", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.Restart)))
	mux.HandleFunc("POST /api/practice/jump-to-end", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.JumpToEnd)))
	mux.HandleFunc("POST /api/practice/switch-line", middleware.RequireAuth(middleware.CSRFProtect(practiceHandler.SwitchLine)))
	mux.HandleFunc("GET /api/practice/state", middleware.RequireAuth(practiceHandler.State))

	// Review
	mux.HandleFunc("GET /api/review/overview", middleware.RequireAuth(reviewHandler.Overview))
	mux.HandleFunc("POST /api/studies/{id}/review/start", middleware.RequireAuth(middleware.CSRFProtect(reviewHandler.Start)))
	mux.HandleFunc("POST /api/review/move", middleware.RequireAuth(middleware.CSRFProtect(reviewHandler.Move)))
	mux.HandleFunc("POST /api/review/skip", middleware.RequireAuth(middleware.CSRFProtect(reviewHandler.Skip)))
	mux.HandleFunc("GET /api/review/state", middleware.RequireAuth(reviewHandler.State))

	// Speed drills
	mux.HandleFunc("POST /api/studies/{id}/drill/start", middleware.RequireAuth(middleware.CSRFProtect(drillHandler.Start)))
	mux.HandleFunc("POST /api/drill/move", middleware.RequireAuth(middleware.CSRFProtect(drillHandler.Move)))
	mux.HandleFunc("GET /api/drill/state", middleware.RequireAuth(drillHandler.State))
	mux.HandleFunc("GET /api/studies/{id}/drill/history", middleware.RequireAuth(drillHandler.History))

	// Puzzles
	mux.HandleFunc("POST /api/puzzles/next", middleware.RequireAuth(middleware.CSRFProtect(puzzleHandler.Next)))
	mux.HandleFunc("POST /api/puzzles/move", middleware.RequireAuth(middleware.CSRFProtect(puzzleHandler.Move)))
	mux.HandleFunc("POST /api/puzzles/step", middleware.RequireAuth(middleware.CSRFProtect(puzzleHandler.Step)))
	mux.HandleFunc("POST /api/puzzles/premove/cancel", middleware.RequireAuth(middleware.CSRFProtect(puzzleHandler.CancelPremove)))
	mux.HandleFunc("GET /api/puzzles/state", middleware.RequireAuth(puzzleHandler.State))
	mux.HandleFunc("GET /api/puzzles/history", middleware.RequireAuth(puzzleHandler.History))

	// Opening explorer
	mux.HandleFunc("GET /api/explorer", middleware.RequireAuth(explorerHandler.Position))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background maintenance
	maintCtx, stopMaint := context.WithCancel(context.Background())
	defer stopMaint()
	go runMaintenance(maintCtx, authService, reminderService, csrf, loginLimiter)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopMaint()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// runMaintenance periodically removes expired sessions and stale
// tokens, and sends due-review reminder emails.
func runMaintenance(ctx context.Context, authService *service.AuthService, reminderService *service.ReminderService, csrf *security.CSRFStore, limiter *security.RateLimiter) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
			csrf.Cleanup()
			limiter.Cleanup()
			reminderService.SendDueReminders(ctx)
		}
	}
}

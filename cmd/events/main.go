package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/app"
	"github.com/skillacademy/events-service/internal/cache"
	"github.com/skillacademy/events-service/internal/config"
	"github.com/skillacademy/events-service/internal/controller"
	"github.com/skillacademy/events-service/internal/integrations/identity"
	"github.com/skillacademy/events-service/internal/integrations/skills"
	"github.com/skillacademy/events-service/internal/integrations/wallet"
	"github.com/skillacademy/events-service/internal/mail"
	"github.com/skillacademy/events-service/internal/repository"
	"github.com/skillacademy/events-service/internal/service"
)

const clientTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting events service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.Info("Migrations applied", zap.Int64("version", version))
	}
	migrator.Close()

	// Хранилища
	slotRepo := repository.NewSlotRepository(pool)
	weeklySlotRepo := repository.NewWeeklySlotRepository(pool)
	emergencyRepo := repository.NewEmergencyCancelRepository(pool)
	coachingRepo := repository.NewCoachingRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	webinarRepo := repository.NewWebinarRepository(pool)
	ratingRepo := repository.NewLecturerRatingRepository(pool)

	// Внешние сервисы
	walletClient := wallet.NewClient(cfg.WalletURL, clientTimeout, logger)
	skillsClient := skills.NewClient(cfg.SkillsURL, clientTimeout, logger)
	identityClient := identity.NewClient(cfg.IdentityURL, clientTimeout, logger)
	mailer := mail.NewMailer(cfg.AMQPURL, logger)
	defer mailer.Close()

	redisClient := cache.NewClient(cfg.RedisURL)
	if redisClient == nil {
		logger.Warn("Redis unavailable, calendar caching disabled")
	}
	calendarCache := cache.New(redisClient, cfg.CacheTTL, logger)

	// Бизнес-логика
	providerService := service.NewProviderService(
		slotRepo, weeklySlotRepo, coachingRepo, examRepo,
		skillsClient, calendarCache, logger,
		cfg.CoachingSkill, cfg.ExaminerSkill)
	bookingService := service.NewBookingService(
		slotRepo, coachingRepo, examRepo, emergencyRepo,
		walletClient, skillsClient, identityClient, mailer, calendarCache, logger,
		cfg.EventFee, cfg.ExamPrice, cfg.ExaminerSkill)
	ratingService := service.NewRatingService(
		ratingRepo, calendarCache, logger,
		cfg.RatingHalfLifeDays, cfg.RatingMaxKeepDays)
	webinarService := service.NewWebinarService(
		webinarRepo, emergencyRepo,
		walletClient, skillsClient, identityClient, ratingService, mailer, calendarCache, logger,
		cfg.EventFee, cfg.WebinarSkill)
	calendarService := service.NewCalendarService(
		slotRepo, webinarRepo, identityClient, calendarCache, logger)
	cleanupService := service.NewCleanupService(
		slotRepo, webinarRepo, ratingRepo,
		walletClient, skillsClient, providerService, calendarCache, logger,
		cfg.EventFee, service.XPAwards{
			CoachingLecturer:    cfg.CoachingLecturerXP,
			CoachingParticipant: cfg.CoachingParticipantXP,
			WebinarLecturer:     cfg.WebinarLecturerXP,
			WebinarParticipant:  cfg.WebinarParticipantXP,
		})

	// Фоновая уборка
	scheduler := app.NewScheduler(cleanupService, cfg.SweepInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// HTTP
	ct := controller.New(providerService, bookingService, webinarService, calendarService, ratingService, logger)
	e := controller.NewRouter(ct, cfg.JWTSecret)

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
}

package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/service"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cleanupService *service.CleanupService
	interval       time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(cleanupService *service.CleanupService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cleanupService: cleanupService,
		interval:       interval,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("interval", s.interval))

	go s.runCleanupTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runCleanupTask периодически запускает уборку: расчёт прошедших событий
// и догенерацию слотов из еженедельных правил
func (s *Scheduler) runCleanupTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.runCleanup(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCleanup(ctx)
		case <-s.stopChan:
			s.logger.Info("Cleanup task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Cleanup task cancelled")
			return
		}
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Cleanup task panicked", zap.Any("panic", r))
		}
	}()

	s.logger.Info("Starting cleanup pass")
	s.cleanupService.Run(ctx)
	s.logger.Info("Cleanup pass completed")
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/metrics"
	"github.com/skillacademy/events-service/internal/model"
)

// XPAwards — размеры начислений опыта за состоявшиеся события
type XPAwards struct {
	CoachingLecturer    int64
	CoachingParticipant int64
	WebinarLecturer     int64
	WebinarParticipant  int64
}

// CleanupService — фоновая уборка: расчёт и удаление прошедших событий,
// догенерация слотов из еженедельных правил
type CleanupService struct {
	slots    SlotStore
	webinars WebinarStore
	ratings  RatingStore
	wallet   Wallet
	skills   Skills
	provider *ProviderService
	cache    CacheInvalidator
	logger   *zap.Logger

	eventFee float64
	xp       XPAwards

	now func() time.Time
}

func NewCleanupService(
	slots SlotStore,
	webinars WebinarStore,
	ratings RatingStore,
	wallet Wallet,
	skillsClient Skills,
	provider *ProviderService,
	cache CacheInvalidator,
	logger *zap.Logger,
	eventFee float64,
	xp XPAwards,
) *CleanupService {
	return &CleanupService{
		slots:    slots,
		webinars: webinars,
		ratings:  ratings,
		wallet:   wallet,
		skills:   skillsClient,
		provider: provider,
		cache:    cache,
		logger:   logger,
		eventFee: eventFee,
		xp:       xp,
		now:      time.Now,
	}
}

// Run выполняет один проход уборки. Ошибка одного события не
// останавливает остальные: проблемные события остаются до следующего
// прохода.
func (s *CleanupService) Run(ctx context.Context) {
	now := s.now()

	s.sweepSlots(ctx, now)
	s.sweepWebinars(ctx, now)

	if err := s.provider.GenerateAll(ctx); err != nil {
		s.logger.Error("Не удалось догенерировать слоты", zap.Error(err))
	}

	metrics.SweepRunsTotal.Inc()
	s.cache.Clear(ctx, calendarNamespace)
}

func (s *CleanupService) sweepSlots(ctx context.Context, now time.Time) {
	expired, err := s.slots.GetExpired(ctx, now)
	if err != nil {
		s.logger.Error("Не удалось получить прошедшие слоты", zap.Error(err))
		return
	}

	for _, slot := range expired {
		if slot.Booked() {
			if err := s.settleSlot(ctx, slot); err != nil {
				s.logger.Error("Не удалось рассчитать прошедшее событие",
					zap.String("slot_id", slot.ID),
					zap.Error(err))
				continue
			}
			metrics.SweepSettledTotal.Inc()
		}

		if _, err := s.slots.Delete(ctx, slot.ID); err != nil {
			s.logger.Error("Не удалось удалить прошедший слот",
				zap.String("slot_id", slot.ID),
				zap.Error(err))
		}
	}
}

// settleSlot выплачивает инструктору его долю кредит-нотой и начисляет
// опыт обеим сторонам состоявшегося события
func (s *CleanupService) settleSlot(ctx context.Context, slot *model.Slot) error {
	reason := walletCoaching
	if *slot.EventType == model.EventTypeExam {
		reason = walletExam
	}

	if *slot.InstructorCoins > 0 {
		if err := s.wallet.AddCoins(ctx, slot.UserID, *slot.InstructorCoins, reason, true); err != nil {
			return fmt.Errorf("pay instructor: %w", err)
		}
	}

	if err := s.skills.AddXP(ctx, slot.UserID, *slot.SkillID, s.xp.CoachingLecturer); err != nil {
		s.logger.Error("Не удалось начислить опыт инструктору",
			zap.String("user_id", slot.UserID),
			zap.Error(err))
	}
	if err := s.skills.AddXP(ctx, *slot.BookedBy, *slot.SkillID, s.xp.CoachingParticipant); err != nil {
		s.logger.Error("Не удалось начислить опыт участнику",
			zap.String("user_id", *slot.BookedBy),
			zap.Error(err))
	}

	s.logger.Info("Рассчитано прошедшее событие",
		zap.String("slot_id", slot.ID),
		zap.String("event_type", string(*slot.EventType)),
		zap.Int64("payout", *slot.InstructorCoins))

	return nil
}

// sweepWebinars выплачивает создателям прошедших вебинаров их долю
// за каждого участника и удаляет вебинары
func (s *CleanupService) sweepWebinars(ctx context.Context, now time.Time) {
	expired, err := s.webinars.GetExpired(ctx, now)
	if err != nil {
		s.logger.Error("Не удалось получить прошедшие вебинары", zap.Error(err))
		return
	}

	for _, w := range expired {
		var payout int64
		for _, p := range w.Participants {
			payout += int64(float64(p.Paid) * (1 - s.eventFee))
		}
		if payout > 0 {
			if err := s.wallet.AddCoins(ctx, w.Creator, payout, walletWebinar, true); err != nil {
				s.logger.Error("Не удалось выплатить долю создателю вебинара",
					zap.String("webinar_id", w.ID),
					zap.Error(err))
				continue
			}
		}

		if err := s.skills.AddXP(ctx, w.Creator, w.SkillID, s.xp.WebinarLecturer); err != nil {
			s.logger.Error("Не удалось начислить опыт создателю вебинара",
				zap.String("user_id", w.Creator),
				zap.Error(err))
		}
		for _, p := range w.Participants {
			if err := s.skills.AddXP(ctx, p.UserID, w.SkillID, s.xp.WebinarParticipant); err != nil {
				s.logger.Error("Не удалось начислить опыт участнику вебинара",
					zap.String("user_id", p.UserID),
					zap.Error(err))
			}
			s.inviteRating(ctx, w, p.UserID)
		}

		if _, err := s.webinars.Delete(ctx, w.ID); err != nil {
			s.logger.Error("Не удалось удалить прошедший вебинар",
				zap.String("webinar_id", w.ID),
				zap.Error(err))
		}

		metrics.SweepSettledTotal.Inc()
	}
}

// inviteRating создаёт участнику неоценённую строку для оценки
// инструктора, best-effort
func (s *CleanupService) inviteRating(ctx context.Context, w *model.Webinar, participantID string) {
	name := w.Name
	rating := &model.LecturerRating{
		ID:               uuid.NewString(),
		LecturerID:       w.Creator,
		ParticipantID:    &participantID,
		SkillID:          w.SkillID,
		WebinarTimestamp: w.Start,
		WebinarName:      &name,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		s.logger.Error("Не удалось создать приглашение оценить вебинар",
			zap.String("webinar_id", w.ID),
			zap.String("participant_id", participantID),
			zap.Error(err))
	}
}

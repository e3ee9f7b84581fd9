package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/integrations/skills"
	"github.com/skillacademy/events-service/internal/metrics"
	"github.com/skillacademy/events-service/internal/model"
)

const (
	// Горизонт генерации слотов из еженедельных правил
	slotHorizon = 30 * 24 * time.Hour

	// Минимальное время до начала слота при бронировании и отмене
	bookingLeadTime = 24 * time.Hour
)

// ProviderService управляет слотами, еженедельными правилами
// и предложениями инструкторов
type ProviderService struct {
	slots       SlotStore
	weeklySlots WeeklySlotStore
	coachings   CoachingStore
	exams       ExamStore
	skills      Skills
	cache       CacheInvalidator
	logger      *zap.Logger

	coachingSkill string
	examinerSkill string

	now func() time.Time
}

func NewProviderService(
	slots SlotStore,
	weeklySlots WeeklySlotStore,
	coachings CoachingStore,
	exams ExamStore,
	skillsClient Skills,
	cache CacheInvalidator,
	logger *zap.Logger,
	coachingSkill, examinerSkill string,
) *ProviderService {
	return &ProviderService{
		slots:         slots,
		weeklySlots:   weeklySlots,
		coachings:     coachings,
		exams:         exams,
		skills:        skillsClient,
		cache:         cache,
		logger:        logger,
		coachingSkill: coachingSkill,
		examinerSkill: examinerSkill,
		now:           time.Now,
	}
}

// CreateSlot создаёт разовый свободный слот
func (s *ProviderService) CreateSlot(ctx context.Context, userID string, start, end time.Time) (*model.Slot, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}
	if start.Before(s.now()) {
		return nil, ErrCannotStartInPast
	}

	slot := model.NewSlot(userID, start, end)
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Создан слот",
		zap.String("slot_id", slot.ID),
		zap.String("user_id", userID),
		zap.Time("start", slot.Start))

	return slot, nil
}

// GetSlots возвращает слоты инструктора
func (s *ProviderService) GetSlots(ctx context.Context, userID string) ([]*model.Slot, error) {
	return s.slots.GetByOwner(ctx, userID)
}

// DeleteSlot удаляет свободный слот. Занятый слот удалить нельзя —
// его нужно отменять, чтобы сработали возвраты.
func (s *ProviderService) DeleteSlot(ctx context.Context, userID, slotID string) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if slot.UserID != userID {
		return ErrPermissionDenied
	}
	if slot.Booked() {
		return ErrSlotConflict
	}

	if _, err := s.slots.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	s.cache.Clear(ctx, calendarNamespace)

	return nil
}

// CreateWeeklySlot создаёт еженедельное правило и сразу генерирует
// слоты в пределах горизонта
func (s *ProviderService) CreateWeeklySlot(ctx context.Context, userID string, weekday, startHour, startMinute, endHour, endMinute int) (*model.WeeklySlot, error) {
	if weekday < 0 || weekday > 6 {
		return nil, fmt.Errorf("%w: weekday must be in [0, 6]", ErrInvalidInput)
	}
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 ||
		startMinute < 0 || startMinute > 59 || endMinute < 0 || endMinute > 59 {
		return nil, fmt.Errorf("%w: invalid time of day", ErrInvalidInput)
	}

	ws := model.NewWeeklySlot(userID, weekday, startHour, startMinute, endHour, endMinute, s.now())
	if ws.DurationMinutes() == 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidInput)
	}

	if err := s.weeklySlots.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("create weekly slot: %w", err)
	}

	if err := s.GenerateForRule(ctx, ws); err != nil {
		// Правило сохранено, догенерируем при следующем проходе уборки
		s.logger.Error("Не удалось сгенерировать слоты для нового правила",
			zap.String("weekly_slot_id", ws.ID),
			zap.Error(err))
	}

	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Создано еженедельное правило",
		zap.String("weekly_slot_id", ws.ID),
		zap.String("user_id", userID),
		zap.Int("weekday", weekday))

	return ws, nil
}

// GetWeeklySlots возвращает правила инструктора
func (s *ProviderService) GetWeeklySlots(ctx context.Context, userID string) ([]*model.WeeklySlot, error) {
	return s.weeklySlots.GetByOwner(ctx, userID)
}

// DeleteWeeklySlot удаляет правило. Свободные сгенерированные слоты
// удаляются, занятые отвязываются и живут дальше сами по себе.
func (s *ProviderService) DeleteWeeklySlot(ctx context.Context, userID, weeklySlotID string) error {
	ws, err := s.weeklySlots.GetByID(ctx, weeklySlotID)
	if err != nil {
		return fmt.Errorf("get weekly slot: %w", err)
	}
	if ws == nil {
		return ErrSlotNotFound
	}
	if ws.UserID != userID {
		return ErrPermissionDenied
	}

	deleted, err := s.slots.DeleteUnbookedByWeeklySlot(ctx, weeklySlotID)
	if err != nil {
		return fmt.Errorf("delete generated slots: %w", err)
	}

	if _, err := s.slots.DetachBookedByWeeklySlot(ctx, weeklySlotID); err != nil {
		return fmt.Errorf("detach booked slots: %w", err)
	}

	if _, err := s.weeklySlots.Delete(ctx, weeklySlotID); err != nil {
		return fmt.Errorf("delete weekly slot: %w", err)
	}

	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Удалено еженедельное правило",
		zap.String("weekly_slot_id", weeklySlotID),
		zap.Int64("slots_deleted", deleted))

	return nil
}

// GenerateForRule догенерирует слоты правила, пока watermark не уйдёт
// за горизонт: первый слот за горизонтом тоже создаётся. Watermark
// двигается монотонно, поэтому повторный вызов не создаёт дублей.
func (s *ProviderService) GenerateForRule(ctx context.Context, ws *model.WeeklySlot) error {
	horizon := s.now().Add(slotHorizon)
	duration := time.Duration(ws.DurationMinutes()) * time.Minute

	cursor := ws.LastSlot
	for !cursor.After(horizon) {
		next := model.NextSlot(cursor, ws.Weekday, ws.StartHour, ws.StartMinute)

		slot := model.NewSlot(ws.UserID, next, next.Add(duration))
		slot.WeeklySlotID = &ws.ID
		if err := s.slots.Create(ctx, slot); err != nil {
			return fmt.Errorf("create generated slot: %w", err)
		}

		if err := s.weeklySlots.UpdateLastSlot(ctx, ws.ID, next); err != nil {
			return fmt.Errorf("advance watermark: %w", err)
		}

		metrics.SlotsGeneratedTotal.Inc()
		cursor = next
	}

	ws.LastSlot = cursor
	return nil
}

// GenerateAll догенерирует слоты всех правил. Ошибка одного правила
// не останавливает остальные.
func (s *ProviderService) GenerateAll(ctx context.Context) error {
	rules, err := s.weeklySlots.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("get weekly slots: %w", err)
	}

	for _, ws := range rules {
		if err := s.GenerateForRule(ctx, ws); err != nil {
			s.logger.Error("Не удалось сгенерировать слоты правила",
				zap.String("weekly_slot_id", ws.ID),
				zap.Error(err))
		}
	}

	return nil
}

// checkOfferingGate проверяет, что пользователь освоил служебный навык
// (инструктора или экзаменатора) и сам навык, который собирается вести
func (s *ProviderService) checkOfferingGate(ctx context.Context, userID, skillID, gateSkill string) error {
	// Навык должен существовать
	if _, err := s.skills.GetSkillDependencies(ctx, skillID); err != nil {
		if errors.Is(err, skills.ErrSkillNotFound) {
			return ErrSkillNotFound
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	completed, err := s.skills.GetCompletedSkills(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !skills.HasAll(completed, []string{gateSkill, skillID}) {
		return ErrSkillRequirementsNotMet
	}

	return nil
}

// UpsertCoaching создаёт или обновляет предложение коучинга
func (s *ProviderService) UpsertCoaching(ctx context.Context, userID, skillID string, price int64) (*model.Coaching, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	if err := s.checkOfferingGate(ctx, userID, skillID, s.coachingSkill); err != nil {
		return nil, err
	}

	coaching := &model.Coaching{UserID: userID, SkillID: skillID, Price: price}
	if err := s.coachings.Upsert(ctx, coaching); err != nil {
		return nil, fmt.Errorf("upsert coaching: %w", err)
	}

	return coaching, nil
}

// GetCoachings возвращает предложения коучинга инструктора
func (s *ProviderService) GetCoachings(ctx context.Context, userID string) ([]*model.Coaching, error) {
	return s.coachings.GetByUser(ctx, userID)
}

// DeleteCoaching удаляет предложение коучинга
func (s *ProviderService) DeleteCoaching(ctx context.Context, userID, skillID string) error {
	deleted, err := s.coachings.Delete(ctx, userID, skillID)
	if err != nil {
		return fmt.Errorf("delete coaching: %w", err)
	}
	if !deleted {
		return ErrCoachingNotFound
	}
	return nil
}

// UpsertExam регистрирует экзаменатора по навыку
func (s *ProviderService) UpsertExam(ctx context.Context, userID, skillID string) (*model.Exam, error) {
	if err := s.checkOfferingGate(ctx, userID, skillID, s.examinerSkill); err != nil {
		return nil, err
	}

	exam := &model.Exam{UserID: userID, SkillID: skillID}
	if err := s.exams.Upsert(ctx, exam); err != nil {
		return nil, fmt.Errorf("upsert exam: %w", err)
	}

	return exam, nil
}

// GetExams возвращает навыки, которые принимает экзаменатор
func (s *ProviderService) GetExams(ctx context.Context, userID string) ([]*model.Exam, error) {
	return s.exams.GetByUser(ctx, userID)
}

// DeleteExam снимает регистрацию экзаменатора
func (s *ProviderService) DeleteExam(ctx context.Context, userID, skillID string) error {
	deleted, err := s.exams.Delete(ctx, userID, skillID)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if !deleted {
		return ErrExamNotFound
	}
	return nil
}

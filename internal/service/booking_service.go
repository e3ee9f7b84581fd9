package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/integrations/skills"
	"github.com/skillacademy/events-service/internal/metrics"
	"github.com/skillacademy/events-service/internal/model"
	"github.com/skillacademy/events-service/internal/timeutil"
)

// Окно полного возврата: при отмене за неделю и раньше студент
// получает всё обратно
const fullRefundWindow = 7 * 24 * time.Hour

// BookingService бронирует и отменяет события
type BookingService struct {
	slots     SlotStore
	coachings CoachingStore
	exams     ExamStore
	emergency EmergencyCancelStore
	wallet    Wallet
	skills    Skills
	identity  Identity
	mailer    Mailer
	cache     CacheInvalidator
	logger    *zap.Logger

	eventFee      float64
	examPrice     int64
	examinerSkill string

	now  func() time.Time
	pick func(n int) int
}

func NewBookingService(
	slots SlotStore,
	coachings CoachingStore,
	exams ExamStore,
	emergency EmergencyCancelStore,
	wallet Wallet,
	skillsClient Skills,
	identity Identity,
	mailer Mailer,
	cache CacheInvalidator,
	logger *zap.Logger,
	eventFee float64,
	examPrice int64,
	examinerSkill string,
) *BookingService {
	return &BookingService{
		slots:         slots,
		coachings:     coachings,
		exams:         exams,
		emergency:     emergency,
		wallet:        wallet,
		skills:        skillsClient,
		identity:      identity,
		mailer:        mailer,
		cache:         cache,
		logger:        logger,
		eventFee:      eventFee,
		examPrice:     examPrice,
		examinerSkill: examinerSkill,
		now:           time.Now,
		pick:          rand.Intn,
	}
}

// instructorShare возвращает долю инструктора после удержания комиссии
// платформы, с округлением вниз
func (s *BookingService) instructorShare(price int64) int64 {
	return int64(float64(price) * (1 - s.eventFee))
}

// charge списывает оплату со студента, учитывая отметку вынужденной
// отмены инструктора. Возвращает суммы, закреплённые за бронью:
// при действующей отметке обе равны нулю.
func (s *BookingService) charge(ctx context.Context, studentID, instructorID string, price int64, reason string) (studentCoins, instructorCoins int64, waived bool, err error) {
	waived, err = s.emergency.Exists(ctx, instructorID)
	if err != nil {
		return 0, 0, false, fmt.Errorf("check emergency cancel mark: %w", err)
	}
	if waived {
		return 0, 0, true, nil
	}

	ok, err := s.wallet.SpendCoins(ctx, studentID, price, reason)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !ok {
		return 0, 0, false, ErrNotEnoughCoins
	}

	return price, s.instructorShare(price), false, nil
}

// refundCharge возвращает студенту списанное при неудавшейся брони
func (s *BookingService) refundCharge(ctx context.Context, studentID string, amount int64, reason string) {
	if amount == 0 {
		return
	}
	if err := s.wallet.AddCoins(ctx, studentID, amount, reason, false); err != nil {
		// Деньги списаны, бронь не состоялась, вернуть не удалось —
		// это худший исход, фиксируем максимально заметно
		s.logger.Error("Не удалось вернуть оплату после неудавшейся брони",
			zap.String("user_id", studentID),
			zap.Int64("amount", amount),
			zap.Error(err))
	}
	metrics.CompensationsTotal.Inc()
}

// claim атомарно занимает слот. При проигранной гонке возвращает
// списанное и отдаёт ErrSlotConflict.
func (s *BookingService) claim(ctx context.Context, booked *model.Slot, studentID string, paid int64, reason string) error {
	claimed, err := s.slots.ClaimAndBook(ctx, booked)
	if err != nil {
		s.refundCharge(ctx, studentID, paid, reason)
		return fmt.Errorf("claim slot: %w", err)
	}
	if !claimed {
		s.refundCharge(ctx, studentID, paid, reason)
		metrics.BookingConflictsTotal.Inc()
		return ErrSlotConflict
	}
	return nil
}

// consumeWaiver расходует отметку вынужденной отмены после успешной брони
func (s *BookingService) consumeWaiver(ctx context.Context, instructorID string) {
	if _, err := s.emergency.Delete(ctx, instructorID); err != nil {
		s.logger.Error("Не удалось погасить отметку вынужденной отмены",
			zap.String("user_id", instructorID),
			zap.Error(err))
	}
}

// notify отправляет письмо пользователю, best-effort
func (s *BookingService) notify(ctx context.Context, userID, template string, vars map[string]string) {
	profile, err := s.identity.GetPublicProfile(ctx, userID)
	if err != nil || profile == nil {
		s.logger.Warn("Не удалось получить профиль для письма",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	s.mailer.Send(ctx, template, profile.Email, vars)
}

// BookCoaching бронирует коучинг-слот инструктора по навыку
func (s *BookingService) BookCoaching(ctx context.Context, studentID, slotID, skillID string) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if slot.Booked() {
		return nil, ErrSlotConflict
	}
	if slot.UserID == studentID {
		return nil, ErrSelfBooking
	}

	now := s.now()
	if slot.Start.Before(now.Add(bookingLeadTime)) {
		return nil, ErrSlotTooSoon
	}

	coaching, err := s.coachings.Get(ctx, slot.UserID, skillID)
	if err != nil {
		return nil, fmt.Errorf("get coaching: %w", err)
	}
	if coaching == nil {
		return nil, ErrCoachingNotFound
	}

	studentCoins, instructorCoins, waived, err := s.charge(ctx, studentID, slot.UserID, coaching.Price, walletCoaching)
	if err != nil {
		return nil, err
	}

	booked := *slot
	booked.Book(studentID, model.EventTypeCoaching, studentCoins, instructorCoins, skillID)

	if err := s.claim(ctx, &booked, studentID, studentCoins, walletCoaching); err != nil {
		return nil, err
	}

	if waived {
		s.consumeWaiver(ctx, slot.UserID)
	}

	metrics.BookingsTotal.WithLabelValues(string(model.EventTypeCoaching)).Inc()
	s.cache.Clear(ctx, calendarNamespace)

	vars := map[string]string{
		"skill":    skillID,
		"start":    timeutil.DatetimeLink(booked.Start),
		"link":     *booked.Link,
		"duration": booked.End.Sub(booked.Start).String(),
	}
	s.notify(ctx, studentID, "coaching_booked_student", vars)
	s.notify(ctx, slot.UserID, "coaching_booked_instructor", vars)

	s.logger.Info("Забронирован коучинг",
		zap.String("slot_id", booked.ID),
		zap.String("student_id", studentID),
		zap.String("instructor_id", booked.UserID),
		zap.Bool("waived", waived))

	return &booked, nil
}

// BookExam записывает студента на экзамен по навыку. Экзаменатор и слот
// выбираются случайно среди подходящих; окно поиска можно сузить.
func (s *BookingService) BookExam(ctx context.Context, studentID, skillID string, from, to *time.Time) (*model.Slot, error) {
	deps, err := s.skills.GetSkillDependencies(ctx, skillID)
	if err != nil {
		if errors.Is(err, skills.ErrSkillNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	completed, err := s.skills.GetCompletedSkills(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if skills.HasAll(completed, []string{skillID}) {
		return nil, ErrExamAlreadyPassed
	}
	if !skills.HasAll(completed, deps) {
		return nil, ErrSkillRequirementsNotMet
	}

	pending, err := s.exams.ExistsBooked(ctx, studentID, skillID)
	if err != nil {
		return nil, fmt.Errorf("check pending exam: %w", err)
	}
	if pending {
		return nil, ErrExamAlreadyBooked
	}

	examiners, err := s.qualifiedExaminers(ctx, studentID, skillID)
	if err != nil {
		return nil, err
	}
	if len(examiners) == 0 {
		return nil, ErrSlotNotFound
	}

	now := s.now()
	searchFrom := now.Add(bookingLeadTime)
	if from != nil && from.After(searchFrom) {
		searchFrom = *from
	}
	searchTo := now.Add(slotHorizon)
	if to != nil && to.Before(searchTo) {
		searchTo = *to
	}

	candidates, err := s.slots.GetFreeByOwners(ctx, examiners, searchFrom, searchTo)
	if err != nil {
		return nil, fmt.Errorf("get free slots: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrSlotNotFound
	}

	slot := candidates[s.pick(len(candidates))]

	studentCoins, instructorCoins, waived, err := s.charge(ctx, studentID, slot.UserID, s.examPrice, walletExam)
	if err != nil {
		return nil, err
	}

	booked := *slot
	booked.Book(studentID, model.EventTypeExam, studentCoins, instructorCoins, skillID)

	if err := s.claim(ctx, &booked, studentID, studentCoins, walletExam); err != nil {
		return nil, err
	}

	bookedExam := &model.BookedExam{
		UserID:     studentID,
		SkillID:    skillID,
		ExaminerID: booked.UserID,
		SlotID:     booked.ID,
		CreatedAt:  now,
	}
	if err := s.exams.CreateBooked(ctx, bookedExam); err != nil {
		// Откатываем бронь и возвращаем оплату
		booked.Cancel()
		if uerr := s.slots.Update(ctx, &booked); uerr != nil {
			s.logger.Error("Не удалось освободить слот после сбоя записи на экзамен",
				zap.String("slot_id", booked.ID),
				zap.Error(uerr))
		}
		s.refundCharge(ctx, studentID, studentCoins, walletExam)
		return nil, fmt.Errorf("create booked exam: %w", err)
	}

	if waived {
		s.consumeWaiver(ctx, booked.UserID)
	}

	metrics.BookingsTotal.WithLabelValues(string(model.EventTypeExam)).Inc()
	s.cache.Clear(ctx, calendarNamespace)

	vars := map[string]string{
		"skill": skillID,
		"start": timeutil.DatetimeLink(booked.Start),
		"link":  *booked.Link,
	}
	s.notify(ctx, studentID, "exam_booked_student", vars)
	s.notify(ctx, booked.UserID, "exam_booked_examiner", vars)

	s.logger.Info("Забронирован экзамен",
		zap.String("slot_id", booked.ID),
		zap.String("student_id", studentID),
		zap.String("examiner_id", booked.UserID),
		zap.String("skill_id", skillID))

	return &booked, nil
}

// qualifiedExaminers возвращает экзаменаторов, освоивших навык, имеющих
// служебный навык экзаменатора и зарегистрировавших приём этого навыка
func (s *BookingService) qualifiedExaminers(ctx context.Context, studentID, skillID string) ([]string, error) {
	lecturers, err := s.skills.GetLecturers(ctx, []string{skillID, s.examinerSkill})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var out []string
	for _, userID := range lecturers {
		if userID == studentID {
			continue
		}
		offering, err := s.exams.Get(ctx, userID, skillID)
		if err != nil {
			return nil, fmt.Errorf("get exam offering: %w", err)
		}
		if offering != nil {
			out = append(out, userID)
		}
	}

	return out, nil
}

// refundPlan — суммы возврата при отмене занятого слота
type refundPlan struct {
	studentRefund   int64
	instructorShare int64
	emergencyMark   bool
	level           string
}

// cancellationRefund решает, кому и сколько вернуть при отмене.
// Администратор отменяет что угодно с полным возвратом студенту.
// Начавшееся событие никто другой отменить не может: его расчётом
// занимается регулярная уборка. До начала инструктор возвращает
// студенту всё и получает отметку вынужденной отмены; студент при
// отмене за неделю получает всё, менее чем за сутки — отмена
// запрещена, между ними обе стороны получают половину закреплённых сумм.
func (s *BookingService) cancellationRefund(slot *model.Slot, requesterID string, admin bool, now time.Time) (refundPlan, error) {
	byOwner := requesterID == slot.UserID
	byBooker := requesterID == *slot.BookedBy

	if !byOwner && !byBooker && !admin {
		return refundPlan{}, ErrPermissionDenied
	}

	if admin {
		return refundPlan{
			studentRefund: *slot.StudentCoins,
			level:         metrics.RefundFull,
		}, nil
	}

	if !now.Before(slot.Start) {
		return refundPlan{}, ErrPermissionDenied
	}

	if byOwner {
		return refundPlan{
			studentRefund: *slot.StudentCoins,
			emergencyMark: true,
			level:         metrics.RefundFull,
		}, nil
	}

	delta := slot.Start.Sub(now)
	switch {
	case delta < bookingLeadTime:
		return refundPlan{}, ErrCancelTooLate
	case delta >= fullRefundWindow:
		return refundPlan{
			studentRefund: *slot.StudentCoins,
			level:         metrics.RefundFull,
		}, nil
	default:
		return refundPlan{
			studentRefund:   *slot.StudentCoins / 2,
			instructorShare: *slot.InstructorCoins / 2,
			level:           metrics.RefundHalf,
		}, nil
	}
}

// CancelEvent отменяет занятый слот с возвратами по политике отмены
func (s *BookingService) CancelEvent(ctx context.Context, requesterID, slotID string) error {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil || !slot.Booked() {
		return ErrSlotNotFound
	}

	// Администратор обходит и запрет после начала, и срок отмены,
	// даже когда отменяет собственную бронь
	admin, err := s.identity.IsAdmin(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	plan, err := s.cancellationRefund(slot, requesterID, admin, s.now())
	if err != nil {
		return err
	}

	bookerID := *slot.BookedBy
	ownerID := slot.UserID
	eventType := *slot.EventType

	reason := walletCoaching
	if eventType == model.EventTypeExam {
		reason = walletExam
	}

	if plan.studentRefund > 0 {
		if err := s.wallet.AddCoins(ctx, bookerID, plan.studentRefund, reason, false); err != nil {
			return fmt.Errorf("%w: refund student: %v", ErrUpstream, err)
		}
	}
	if plan.instructorShare > 0 {
		if err := s.wallet.AddCoins(ctx, ownerID, plan.instructorShare, reason, false); err != nil {
			s.logger.Error("Не удалось выплатить долю инструктора при отмене",
				zap.String("slot_id", slotID),
				zap.Int64("amount", plan.instructorShare),
				zap.Error(err))
		}
	}

	slot.Cancel()
	if err := s.slots.Update(ctx, slot); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if eventType == model.EventTypeExam {
		if err := s.exams.DeleteBookedBySlot(ctx, slotID); err != nil {
			s.logger.Error("Не удалось удалить запись на экзамен при отмене",
				zap.String("slot_id", slotID),
				zap.Error(err))
		}
	}

	if plan.emergencyMark {
		if err := s.emergency.Create(ctx, ownerID); err != nil {
			s.logger.Error("Не удалось создать отметку вынужденной отмены",
				zap.String("user_id", ownerID),
				zap.Error(err))
		}
	}

	metrics.CancellationsTotal.WithLabelValues(plan.level).Inc()
	s.cache.Clear(ctx, calendarNamespace)

	vars := map[string]string{
		"start": timeutil.DatetimeLink(slot.Start),
	}
	s.notify(ctx, bookerID, "event_cancelled", vars)
	s.notify(ctx, ownerID, "event_cancelled", vars)

	s.logger.Info("Отменено событие",
		zap.String("slot_id", slotID),
		zap.String("requester_id", requesterID),
		zap.String("refund", plan.level),
		zap.Bool("emergency_mark", plan.emergencyMark))

	return nil
}

// GetPendingExams возвращает непроверенные экзамены экзаменатора
func (s *BookingService) GetPendingExams(ctx context.Context, examinerID string) ([]*model.BookedExam, error) {
	return s.exams.GetPendingByExaminer(ctx, examinerID)
}

// GradeExam выставляет оценку за сданный экзамен. При успехе навык
// отмечается освоенным в сервисе навыков.
func (s *BookingService) GradeExam(ctx context.Context, examinerID, studentID, skillID string, passed bool) error {
	booked, err := s.exams.GetBooked(ctx, studentID, skillID, examinerID)
	if err != nil {
		return fmt.Errorf("get booked exam: %w", err)
	}
	if booked == nil {
		return ErrExamNotFound
	}

	if passed {
		if err := s.skills.CompleteSkill(ctx, studentID, skillID); err != nil {
			return fmt.Errorf("%w: complete skill: %v", ErrUpstream, err)
		}
	}

	if _, err := s.exams.DeleteBooked(ctx, studentID, skillID, examinerID); err != nil {
		return fmt.Errorf("delete booked exam: %w", err)
	}

	template := "exam_failed"
	if passed {
		template = "exam_passed"
	}
	s.notify(ctx, studentID, template, map[string]string{"skill": skillID})

	s.logger.Info("Выставлена оценка за экзамен",
		zap.String("student_id", studentID),
		zap.String("examiner_id", examinerID),
		zap.String("skill_id", skillID),
		zap.Bool("passed", passed))

	return nil
}

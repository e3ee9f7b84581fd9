package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/integrations/skills"
	"github.com/skillacademy/events-service/internal/metrics"
	"github.com/skillacademy/events-service/internal/model"
	"github.com/skillacademy/events-service/internal/repository"
	"github.com/skillacademy/events-service/internal/timeutil"
)

// WebinarService управляет вебинарами и регистрацией участников.
// Создатель получает свою долю при расчёте после окончания вебинара,
// поэтому регистрация только списывает оплату со студента.
type WebinarService struct {
	webinars  WebinarStore
	emergency EmergencyCancelStore
	wallet    Wallet
	skills    Skills
	identity  Identity
	ratings   RatingProvider
	mailer    Mailer
	cache     CacheInvalidator
	logger    *zap.Logger

	eventFee     float64
	webinarSkill string

	now func() time.Time
}

func NewWebinarService(
	webinars WebinarStore,
	emergency EmergencyCancelStore,
	wallet Wallet,
	skillsClient Skills,
	identity Identity,
	ratings RatingProvider,
	mailer Mailer,
	cache CacheInvalidator,
	logger *zap.Logger,
	eventFee float64,
	webinarSkill string,
) *WebinarService {
	return &WebinarService{
		webinars:     webinars,
		emergency:    emergency,
		wallet:       wallet,
		skills:       skillsClient,
		identity:     identity,
		ratings:      ratings,
		mailer:       mailer,
		cache:        cache,
		logger:       logger,
		eventFee:     eventFee,
		webinarSkill: webinarSkill,
		now:          time.Now,
	}
}

func (s *WebinarService) notify(ctx context.Context, userID, template string, vars map[string]string) {
	profile, err := s.identity.GetPublicProfile(ctx, userID)
	if err != nil || profile == nil {
		s.logger.Warn("Не удалось получить профиль для письма",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	s.mailer.Send(ctx, template, profile.Email, vars)
}

// CreateWebinar создаёт вебинар. Создатель должен освоить служебный
// навык инструктора и сам навык вебинара.
func (s *WebinarService) CreateWebinar(ctx context.Context, creatorID, skillID, name, description string, start, end time.Time, maxParticipants int, price int64) (*model.Webinar, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}
	if maxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max participants must be positive", ErrInvalidInput)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	now := s.now()
	if start.Before(now) {
		return nil, ErrCannotStartInPast
	}

	completed, err := s.skills.GetCompletedSkills(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !skills.HasAll(completed, []string{s.webinarSkill, skillID}) {
		return nil, ErrSkillRequirementsNotMet
	}

	_, link := model.GenerateMeetingLink()
	webinar := &model.Webinar{
		ID:              uuid.NewString(),
		SkillID:         skillID,
		Creator:         creatorID,
		CreationDate:    now,
		Name:            name,
		Description:     description,
		Link:            link,
		Start:           start.UTC(),
		End:             end.UTC(),
		MaxParticipants: maxParticipants,
		Price:           price,
	}

	if err := s.webinars.Create(ctx, webinar); err != nil {
		return nil, fmt.Errorf("create webinar: %w", err)
	}

	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Создан вебинар",
		zap.String("webinar_id", webinar.ID),
		zap.String("creator", creatorID),
		zap.String("skill_id", skillID))

	return webinar, nil
}

// GetWebinar возвращает вебинар. Ссылку на встречу и список
// участников видят только создатель, участники и администратор.
func (s *WebinarService) GetWebinar(ctx context.Context, viewerID string, viewerAdmin bool, webinarID string) (*model.Webinar, error) {
	webinar, err := s.webinars.GetByID(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("get webinar: %w", err)
	}
	if webinar == nil {
		return nil, ErrWebinarNotFound
	}

	if !viewerAdmin && viewerID != webinar.Creator && !webinar.IsParticipant(viewerID) {
		webinar.Link = ""
		webinar.Participants = nil
	}

	s.attachRating(ctx, webinar)

	return webinar, nil
}

// attachRating подставляет рейтинг создателя по навыку вебинара,
// best-effort
func (s *WebinarService) attachRating(ctx context.Context, w *model.Webinar) {
	rating, err := s.ratings.GetRating(ctx, w.Creator, w.SkillID)
	if err != nil {
		s.logger.Warn("Не удалось получить рейтинг инструктора",
			zap.String("creator", w.Creator),
			zap.Error(err))
		return
	}
	w.InstructorRating = rating
}

// ListWebinars возвращает вебинары по фильтру. Ссылку на встречу
// видят только создатель, зарегистрированные и администратор.
func (s *WebinarService) ListWebinars(ctx context.Context, viewerID string, viewerAdmin bool, filter repository.WebinarFilter) ([]*model.Webinar, error) {
	webinars, err := s.webinars.List(ctx, viewerID, filter)
	if err != nil {
		return nil, err
	}

	for _, w := range webinars {
		if !viewerAdmin && viewerID != w.Creator && !w.Registered {
			w.Link = ""
		}
		s.attachRating(ctx, w)
	}

	return webinars, nil
}

// WebinarUpdate — изменяемые поля вебинара. Цена и навык после
// создания не меняются.
type WebinarUpdate struct {
	Name            string
	Description     string
	Start           time.Time
	End             time.Time
	MaxParticipants int
}

// UpdateWebinar правит вебинар от имени создателя или администратора.
// Начавшийся вебинар не редактируется, лимит участников нельзя
// опустить ниже числа уже записавшихся.
func (s *WebinarService) UpdateWebinar(ctx context.Context, requesterID, webinarID string, upd WebinarUpdate) (*model.Webinar, error) {
	webinar, err := s.webinars.GetByID(ctx, webinarID)
	if err != nil {
		return nil, fmt.Errorf("get webinar: %w", err)
	}
	if webinar == nil {
		return nil, ErrWebinarNotFound
	}

	if requesterID != webinar.Creator {
		admin, err := s.identity.IsAdmin(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if !admin {
			return nil, ErrPermissionDenied
		}
	}

	now := s.now()
	if !webinar.Start.After(now) {
		return nil, ErrWebinarStarted
	}

	if upd.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !upd.End.After(upd.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}
	if upd.Start.Before(now) {
		return nil, ErrCannotStartInPast
	}
	if upd.MaxParticipants < len(webinar.Participants) {
		return nil, fmt.Errorf("%w: max participants below current registrations", ErrInvalidInput)
	}

	webinar.Name = upd.Name
	webinar.Description = upd.Description
	webinar.Start = upd.Start.UTC()
	webinar.End = upd.End.UTC()
	webinar.MaxParticipants = upd.MaxParticipants

	if err := s.webinars.Update(ctx, webinar); err != nil {
		return nil, fmt.Errorf("update webinar: %w", err)
	}

	s.cache.Clear(ctx, calendarNamespace)

	for _, p := range webinar.Participants {
		s.notify(ctx, p.UserID, "webinar_updated", map[string]string{
			"name":  webinar.Name,
			"start": timeutil.DatetimeLink(webinar.Start),
			"link":  webinar.Link,
		})
	}

	s.logger.Info("Изменён вебинар",
		zap.String("webinar_id", webinarID),
		zap.String("requester_id", requesterID))

	return webinar, nil
}

// Register записывает студента на вебинар, списывая оплату.
// Действующая отметка вынужденной отмены создателя делает
// регистрацию бесплатной и расходуется.
func (s *WebinarService) Register(ctx context.Context, userID, webinarID string) error {
	webinar, err := s.webinars.GetByID(ctx, webinarID)
	if err != nil {
		return fmt.Errorf("get webinar: %w", err)
	}
	if webinar == nil {
		return ErrWebinarNotFound
	}
	if webinar.Creator == userID {
		return ErrSelfBooking
	}
	if webinar.IsParticipant(userID) {
		return ErrAlreadyRegistered
	}
	if webinar.IsFull() {
		return ErrWebinarFull
	}
	if !webinar.Start.After(s.now()) {
		return ErrWebinarStarted
	}

	waived, err := s.emergency.Exists(ctx, webinar.Creator)
	if err != nil {
		return fmt.Errorf("check emergency cancel mark: %w", err)
	}

	paid := webinar.Price
	if waived {
		paid = 0
	}
	if paid > 0 {
		ok, err := s.wallet.SpendCoins(ctx, userID, paid, walletWebinar)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if !ok {
			return ErrNotEnoughCoins
		}
	}

	added, err := s.webinars.AddParticipant(ctx, &model.WebinarParticipant{
		WebinarID:    webinarID,
		UserID:       userID,
		RegisteredAt: s.now(),
		Paid:         paid,
	})
	if err != nil || !added {
		if paid > 0 {
			if rerr := s.wallet.AddCoins(ctx, userID, paid, walletWebinar, false); rerr != nil {
				s.logger.Error("Не удалось вернуть оплату после неудавшейся регистрации",
					zap.String("user_id", userID),
					zap.Int64("amount", paid),
					zap.Error(rerr))
			}
			metrics.CompensationsTotal.Inc()
		}
		if err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		return ErrAlreadyRegistered
	}

	if waived {
		if _, err := s.emergency.Delete(ctx, webinar.Creator); err != nil {
			s.logger.Error("Не удалось погасить отметку вынужденной отмены",
				zap.String("user_id", webinar.Creator),
				zap.Error(err))
		}
	}

	metrics.BookingsTotal.WithLabelValues("webinar").Inc()
	s.cache.Clear(ctx, calendarNamespace)

	s.notify(ctx, userID, "webinar_registered", map[string]string{
		"name":  webinar.Name,
		"start": timeutil.DatetimeLink(webinar.Start),
		"link":  webinar.Link,
	})

	s.logger.Info("Регистрация на вебинар",
		zap.String("webinar_id", webinarID),
		zap.String("user_id", userID),
		zap.Bool("waived", waived))

	return nil
}

// Unregister снимает регистрацию с возвратом по политике отмены:
// за неделю и раньше — полный, менее чем за сутки — отмена запрещена,
// между ними — половина
func (s *WebinarService) Unregister(ctx context.Context, userID, webinarID string) error {
	webinar, err := s.webinars.GetByID(ctx, webinarID)
	if err != nil {
		return fmt.Errorf("get webinar: %w", err)
	}
	if webinar == nil {
		return ErrWebinarNotFound
	}
	participant := webinar.Participant(userID)
	if participant == nil {
		return ErrWebinarNotFound
	}

	delta := webinar.Start.Sub(s.now())
	var refund int64
	level := metrics.RefundFull
	switch {
	case delta < bookingLeadTime:
		return ErrCancelTooLate
	case delta >= fullRefundWindow:
		refund = participant.Paid
	default:
		refund = participant.Paid / 2
		level = metrics.RefundHalf
	}

	if refund > 0 {
		if err := s.wallet.AddCoins(ctx, userID, refund, walletWebinar, false); err != nil {
			return fmt.Errorf("%w: refund participant: %v", ErrUpstream, err)
		}
	}

	if _, err := s.webinars.RemoveParticipant(ctx, webinarID, userID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	metrics.CancellationsTotal.WithLabelValues(level).Inc()
	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Снята регистрация на вебинар",
		zap.String("webinar_id", webinarID),
		zap.String("user_id", userID),
		zap.String("refund", level))

	return nil
}

// DeleteWebinar отменяет вебинар с полным возвратом всем участникам.
// Отмена создателем оставляет отметку вынужденной отмены.
func (s *WebinarService) DeleteWebinar(ctx context.Context, requesterID, webinarID string) error {
	webinar, err := s.webinars.GetByID(ctx, webinarID)
	if err != nil {
		return fmt.Errorf("get webinar: %w", err)
	}
	if webinar == nil {
		return ErrWebinarNotFound
	}

	byCreator := requesterID == webinar.Creator
	if !byCreator {
		admin, err := s.identity.IsAdmin(ctx, requesterID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if !admin {
			return ErrPermissionDenied
		}
	}

	for _, p := range webinar.Participants {
		if p.Paid > 0 {
			if err := s.wallet.AddCoins(ctx, p.UserID, p.Paid, walletWebinar, false); err != nil {
				s.logger.Error("Не удалось вернуть оплату участнику отменённого вебинара",
					zap.String("webinar_id", webinarID),
					zap.String("user_id", p.UserID),
					zap.Error(err))
			}
		}
		s.notify(ctx, p.UserID, "webinar_cancelled", map[string]string{
			"name":  webinar.Name,
			"start": timeutil.DatetimeLink(webinar.Start),
		})
	}

	if _, err := s.webinars.Delete(ctx, webinarID); err != nil {
		return fmt.Errorf("delete webinar: %w", err)
	}

	if byCreator && len(webinar.Participants) > 0 {
		if err := s.emergency.Create(ctx, webinar.Creator); err != nil {
			s.logger.Error("Не удалось создать отметку вынужденной отмены",
				zap.String("user_id", webinar.Creator),
				zap.Error(err))
		}
	}

	metrics.CancellationsTotal.WithLabelValues(metrics.RefundFull).Inc()
	s.cache.Clear(ctx, calendarNamespace)

	s.logger.Info("Отменён вебинар",
		zap.String("webinar_id", webinarID),
		zap.String("requester_id", requesterID),
		zap.Int("participants", len(webinar.Participants)))

	return nil
}

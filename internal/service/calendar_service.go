package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/cache"
	"github.com/skillacademy/events-service/internal/model"
)

// Пространство имён кэша календарей
const calendarNamespace = "calendar"

// CalendarService собирает единый календарь пользователя: его слоты,
// события которые он забронировал, вебинары которые он ведёт или посещает
type CalendarService struct {
	slots    SlotStore
	webinars WebinarStore
	identity Identity
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewCalendarService(
	slots SlotStore,
	webinars WebinarStore,
	identity Identity,
	c *cache.Cache,
	logger *zap.Logger,
) *CalendarService {
	return &CalendarService{
		slots:    slots,
		webinars: webinars,
		identity: identity,
		cache:    c,
		logger:   logger,
	}
}

// GetCalendar возвращает события пользователя, отсортированные по началу
func (s *CalendarService) GetCalendar(ctx context.Context, userID string) ([]*model.Event, error) {
	key := fmt.Sprintf("%s:%s", calendarNamespace, userID)

	var cached []*model.Event
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	slots, err := s.slots.GetForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get slots: %w", err)
	}

	webinars, err := s.webinars.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get webinars: %w", err)
	}

	events := make([]*model.Event, 0, len(slots)+len(webinars))
	for _, slot := range slots {
		events = append(events, s.slotEvent(ctx, userID, slot))
	}
	for _, w := range webinars {
		events = append(events, s.webinarEvent(w))
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	s.cache.SetJSON(ctx, key, events)

	return events, nil
}

// profile получает публичный профиль, best-effort
func (s *CalendarService) profile(ctx context.Context, userID string) *model.PublicProfile {
	profile, err := s.identity.GetPublicProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("Не удалось получить профиль для календаря",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	return profile
}

func (s *CalendarService) slotEvent(ctx context.Context, viewerID string, slot *model.Slot) *model.Event {
	event := &model.Event{
		ID:     slot.ID,
		Start:  slot.Start,
		End:    slot.End,
		Booked: slot.Booked(),
	}

	if !slot.Booked() {
		return event
	}

	switch *slot.EventType {
	case model.EventTypeCoaching:
		t := model.CalendarEventCoaching
		event.Type = &t
	case model.EventTypeExam:
		t := model.CalendarEventExam
		event.Type = &t
	}

	event.SkillID = slot.SkillID
	event.Instructor = s.profile(ctx, slot.UserID)
	event.Student = s.profile(ctx, *slot.BookedBy)

	// Организатор видит ссылку организатора, участник — обычную
	if viewerID == slot.UserID {
		event.Location = slot.AdminLink
	} else {
		event.Location = slot.Link
	}

	return event
}

func (s *CalendarService) webinarEvent(w *model.Webinar) *model.Event {
	t := model.CalendarEventWebinar
	return &model.Event{
		ID:          w.ID,
		Title:       &w.Name,
		Description: &w.Description,
		Start:       w.Start,
		End:         w.End,
		Location:    &w.Link,
		Type:        &t,
		SkillID:     &w.SkillID,
		Booked:      true,
	}
}

package model

import "time"

// CalendarEventType — дискриминант варианта события календаря
type CalendarEventType string

const (
	CalendarEventWebinar  CalendarEventType = "webinar"
	CalendarEventCoaching CalendarEventType = "coaching"
	CalendarEventExam     CalendarEventType = "exam"
)

// PublicProfile — публичный профиль пользователя из identity-сервиса
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// Event — событие календаря (read-model). Тип события задаётся
// дискриминантом Type, а не иерархией типов: вебинар, коучинг и экзамен
// различаются только набором заполненных полей.
type Event struct {
	ID          string             `json:"id"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	Location    *string            `json:"location"`
	Type        *CalendarEventType `json:"type"`
	Instructor  *PublicProfile     `json:"instructor"`
	Student     *PublicProfile     `json:"student"`
	SkillID     *string            `json:"skill_id"`
	Booked      bool               `json:"booked"`
}

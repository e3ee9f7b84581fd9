package model

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeCoaching EventType = "coaching"
	EventTypeExam     EventType = "exam"
)

// Slot представляет бронируемый интервал времени инструктора.
// Поля брони (BookedBy, EventType, StudentCoins, InstructorCoins, SkillID,
// AdminLink, Link) заполнены либо все вместе, либо ни одно.
type Slot struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	BookedBy        *string    `json:"booked_by"`
	EventType       *EventType `json:"event_type"`
	StudentCoins    *int64     `json:"student_coins"`
	InstructorCoins *int64     `json:"instructor_coins"`
	SkillID         *string    `json:"skill_id"`
	AdminLink       *string    `json:"admin_link"`
	Link            *string    `json:"link"`
	WeeklySlotID    *string    `json:"weekly_slot_id"` // указатель - может быть nil
}

// NewSlot создаёт новый свободный слот
func NewSlot(userID string, start, end time.Time) *Slot {
	return &Slot{
		ID:     uuid.NewString(),
		UserID: userID,
		Start:  start.UTC(),
		End:    end.UTC(),
	}
}

// Booked проверяет занят ли слот
func (s *Slot) Booked() bool {
	return s.BookedBy != nil
}

// Book занимает слот и генерирует пару ссылок на встречу.
// Не идемпотентен: вызывающий обязан гарантировать свободный слот
// через атомарный claim в хранилище.
func (s *Slot) Book(userID string, eventType EventType, studentCoins, instructorCoins int64, skillID string) {
	adminLink, link := GenerateMeetingLink()
	s.BookedBy = &userID
	s.EventType = &eventType
	s.StudentCoins = &studentCoins
	s.InstructorCoins = &instructorCoins
	s.SkillID = &skillID
	s.AdminLink = &adminLink
	s.Link = &link
}

// Cancel возвращает слот в свободное состояние, очищая все поля брони.
// Идемпотентен.
func (s *Slot) Cancel() {
	s.BookedBy = nil
	s.EventType = nil
	s.StudentCoins = nil
	s.InstructorCoins = nil
	s.SkillID = nil
	s.AdminLink = nil
	s.Link = nil
}

const linkAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateMeetingLink генерирует пару ссылок на jitsi-комнату
// (ссылка организатора и участника совпадают)
func GenerateMeetingLink() (adminLink, participantLink string) {
	parts := make([]string, 4)
	for i := range parts {
		var b [4]byte
		for j := range b {
			b[j] = linkAlphabet[rand.Intn(len(linkAlphabet))]
		}
		parts[i] = string(b[:])
	}
	link := "https://meet.jit.si/" + strings.Join(parts, "-")
	return link, link
}

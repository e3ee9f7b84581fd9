package model

import "time"

// Webinar — групповое событие с платной регистрацией
type Webinar struct {
	ID              string    `json:"id"`
	SkillID         string    `json:"skill_id"`
	Creator         string    `json:"creator"`
	CreationDate    time.Time `json:"creation_date"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Link            string    `json:"link"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	MaxParticipants int       `json:"max_participants"`
	Price           int64     `json:"price"`

	// Заполняется репозиторием, не колонка
	Participants []*WebinarParticipant `json:"participants,omitempty"`

	// Заполняется списочным запросом для смотрящего, не колонка
	Registered bool `json:"registered,omitempty"`

	// Рейтинг создателя по навыку вебинара, заполняется сервисом
	InstructorRating *float64 `json:"instructor_rating,omitempty"`
}

// WebinarParticipant — зарегистрированный участник вебинара.
// Paid — фактически списанная при регистрации сумма: ноль при
// погашенной отметке вынужденной отмены, от неё считаются возвраты
// и доля создателя.
type WebinarParticipant struct {
	WebinarID    string    `json:"webinar_id"`
	UserID       string    `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
	Paid         int64     `json:"paid"`
}

// Participant возвращает запись участника или nil
func (w *Webinar) Participant(userID string) *WebinarParticipant {
	for _, p := range w.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// IsParticipant проверяет зарегистрирован ли пользователь
func (w *Webinar) IsParticipant(userID string) bool {
	return w.Participant(userID) != nil
}

// IsFull проверяет заполнен ли вебинар
func (w *Webinar) IsFull() bool {
	return len(w.Participants) >= w.MaxParticipants
}

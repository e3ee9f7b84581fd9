package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillacademy/events-service/internal/timeutil"
)

// WeeklySlot представляет правило еженедельной генерации слотов
type WeeklySlot struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Weekday     int       `json:"weekday"` // 0 = понедельник, 6 = воскресенье
	StartHour   int       `json:"start_hour"`
	StartMinute int       `json:"start_minute"`
	EndHour     int       `json:"end_hour"`
	EndMinute   int       `json:"end_minute"`
	LastSlot    time.Time `json:"last_slot"` // верхняя граница уже сгенерированных слотов, только растёт
}

// NewWeeklySlot создаёт новое правило с watermark на текущий момент
func NewWeeklySlot(userID string, weekday, startHour, startMinute, endHour, endMinute int, now time.Time) *WeeklySlot {
	return &WeeklySlot{
		ID:          uuid.NewString(),
		UserID:      userID,
		Weekday:     weekday,
		StartHour:   startHour,
		StartMinute: startMinute,
		EndHour:     endHour,
		EndMinute:   endMinute,
		LastSlot:    now.UTC(),
	}
}

// DurationMinutes возвращает длительность слота: (end - start) mod 24h.
// Конец может переходить через полночь.
func (w *WeeklySlot) DurationMinutes() int {
	const day = 24 * 60
	return (((w.EndHour-w.StartHour)*60+(w.EndMinute-w.StartMinute))%day + day) % day
}

// NextSlot возвращает следующее наступление weekday/времени строго после from.
// Если в день from это время уже прошло (или ровно наступило), переносит на
// неделю вперёд. Секунды и доли секунды обнуляются, результат в UTC.
func NextSlot(from time.Time, weekday, hour, minute int) time.Time {
	from = from.UTC()
	target := hour*60 + minute
	if target <= timeutil.MinutesOfDay(from) && timeutil.ISOWeekday(from) == weekday {
		from = from.AddDate(0, 0, 7)
	} else {
		from = from.AddDate(0, 0, ((weekday-timeutil.ISOWeekday(from))%7+7)%7)
	}
	return time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, time.UTC)
}

package model

import "time"

// LecturerRating — оценка инструктора участником прошедшего вебинара.
// Строка создаётся уборкой без оценки; после выставления оценки имя
// вебинара и участник затираются, остаётся анонимная оценка навыка.
type LecturerRating struct {
	ID               string    `json:"id"`
	LecturerID       string    `json:"lecturer_id"`
	ParticipantID    *string   `json:"participant_id,omitempty"`
	SkillID          string    `json:"skill_id"`
	WebinarTimestamp time.Time `json:"webinar_timestamp"`
	WebinarName      *string   `json:"webinar_name,omitempty"`
	Rating           *int      `json:"rating,omitempty"`
}

package model

import "time"

// Exam — предложение экзамена экзаменатора по навыку.
// Цена экзамена фиксирована на уровне платформы и не хранится здесь.
type Exam struct {
	UserID  string `json:"user_id"`
	SkillID string `json:"skill_id"`
}

// BookedExam — ожидающий оценки экзамен студента
type BookedExam struct {
	UserID     string    `json:"user_id"`
	SkillID    string    `json:"skill_id"`
	ExaminerID string    `json:"examiner_id"`
	SlotID     string    `json:"slot_id"`
	CreatedAt  time.Time `json:"created_at"`
}

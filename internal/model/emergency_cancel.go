package model

import "time"

// EmergencyCancel — отметка о вынужденной отмене со стороны инструктора.
// Пока отметка существует, следующая оплата в адрес этого инструктора
// не списывается с ученика; расходуется ровно один раз.
type EmergencyCancel struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

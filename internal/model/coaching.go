package model

// Coaching — предложение коучинга инструктора по навыку с ценой в коинах
type Coaching struct {
	UserID  string `json:"user_id"`
	SkillID string `json:"skill_id"`
	Price   int64  `json:"price"`
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

// CoachingRepository управляет предложениями коучинга
type CoachingRepository struct {
	pool *pgxpool.Pool
}

func NewCoachingRepository(pool *pgxpool.Pool) *CoachingRepository {
	return &CoachingRepository{pool: pool}
}

// Upsert создаёт предложение или обновляет цену существующего
func (r *CoachingRepository) Upsert(ctx context.Context, coaching *model.Coaching) error {
	query := `
		INSERT INTO events_coachings (user_id, skill_id, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, skill_id) DO UPDATE SET price = EXCLUDED.price
	`

	if _, err := r.pool.Exec(ctx, query, coaching.UserID, coaching.SkillID, coaching.Price); err != nil {
		return fmt.Errorf("upsert coaching: %w", err)
	}

	return nil
}

// Get получает предложение инструктора по навыку
func (r *CoachingRepository) Get(ctx context.Context, userID, skillID string) (*model.Coaching, error) {
	query := `SELECT user_id, skill_id, price FROM events_coachings WHERE user_id = $1 AND skill_id = $2`

	var coaching model.Coaching
	err := r.pool.QueryRow(ctx, query, userID, skillID).Scan(&coaching.UserID, &coaching.SkillID, &coaching.Price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get coaching: %w", err)
	}

	return &coaching, nil
}

// GetByUser получает все предложения инструктора
func (r *CoachingRepository) GetByUser(ctx context.Context, userID string) ([]*model.Coaching, error) {
	query := `SELECT user_id, skill_id, price FROM events_coachings WHERE user_id = $1 ORDER BY skill_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get coachings by user: %w", err)
	}
	defer rows.Close()

	var out []*model.Coaching
	for rows.Next() {
		var coaching model.Coaching
		if err := rows.Scan(&coaching.UserID, &coaching.SkillID, &coaching.Price); err != nil {
			return nil, fmt.Errorf("scan coaching: %w", err)
		}
		out = append(out, &coaching)
	}

	return out, rows.Err()
}

// Delete удаляет предложение, возвращает false если его не было
func (r *CoachingRepository) Delete(ctx context.Context, userID, skillID string) (bool, error) {
	result, err := r.pool.Exec(
		ctx,
		`DELETE FROM events_coachings WHERE user_id = $1 AND skill_id = $2`,
		userID, skillID,
	)
	if err != nil {
		return false, fmt.Errorf("delete coaching: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

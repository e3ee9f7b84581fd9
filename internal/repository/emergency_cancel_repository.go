package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmergencyCancelRepository управляет отметками вынужденных отмен
type EmergencyCancelRepository struct {
	pool *pgxpool.Pool
}

func NewEmergencyCancelRepository(pool *pgxpool.Pool) *EmergencyCancelRepository {
	return &EmergencyCancelRepository{pool: pool}
}

// Exists проверяет наличие отметки у инструктора
func (r *EmergencyCancelRepository) Exists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events_emergency_cancel WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check emergency cancel exists: %w", err)
	}

	return exists, nil
}

// Create создаёт отметку; повторное создание - no-op
func (r *EmergencyCancelRepository) Create(ctx context.Context, userID string) error {
	query := `
		INSERT INTO events_emergency_cancel (user_id, created_at)
		VALUES ($1, now())
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("create emergency cancel: %w", err)
	}

	return nil
}

// Delete расходует отметку, возвращает false если отметки не было
func (r *EmergencyCancelRepository) Delete(ctx context.Context, userID string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM events_emergency_cancel WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete emergency cancel: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

// WeeklySlotRepository управляет правилами еженедельной генерации
type WeeklySlotRepository struct {
	pool *pgxpool.Pool
}

func NewWeeklySlotRepository(pool *pgxpool.Pool) *WeeklySlotRepository {
	return &WeeklySlotRepository{pool: pool}
}

const weeklySlotColumns = `id, user_id, weekday, start_hour, start_minute, end_hour, end_minute, last_slot`

func scanWeeklySlot(row pgx.Row) (*model.WeeklySlot, error) {
	var ws model.WeeklySlot
	err := row.Scan(
		&ws.ID,
		&ws.UserID,
		&ws.Weekday,
		&ws.StartHour,
		&ws.StartMinute,
		&ws.EndHour,
		&ws.EndMinute,
		&ws.LastSlot,
	)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// Create создаёт новое правило
func (r *WeeklySlotRepository) Create(ctx context.Context, ws *model.WeeklySlot) error {
	query := `
		INSERT INTO events_weekly_slots (` + weeklySlotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(
		ctx, query,
		ws.ID,
		ws.UserID,
		ws.Weekday,
		ws.StartHour,
		ws.StartMinute,
		ws.EndHour,
		ws.EndMinute,
		ws.LastSlot,
	)
	if err != nil {
		return fmt.Errorf("create weekly slot: %w", err)
	}

	return nil
}

// GetByID получает правило по ID
func (r *WeeklySlotRepository) GetByID(ctx context.Context, id string) (*model.WeeklySlot, error) {
	query := `SELECT ` + weeklySlotColumns + ` FROM events_weekly_slots WHERE id = $1`

	ws, err := scanWeeklySlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get weekly slot by id: %w", err)
	}

	return ws, nil
}

// GetByOwner получает все правила инструктора
func (r *WeeklySlotRepository) GetByOwner(ctx context.Context, userID string) ([]*model.WeeklySlot, error) {
	query := `
		SELECT ` + weeklySlotColumns + `
		FROM events_weekly_slots
		WHERE user_id = $1
		ORDER BY weekday, start_hour, start_minute
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get weekly slots by owner: %w", err)
	}

	return r.collect(rows)
}

// GetAll получает все правила (для фоновой генерации)
func (r *WeeklySlotRepository) GetAll(ctx context.Context) ([]*model.WeeklySlot, error) {
	query := `SELECT ` + weeklySlotColumns + ` FROM events_weekly_slots ORDER BY user_id, weekday`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all weekly slots: %w", err)
	}

	return r.collect(rows)
}

// UpdateLastSlot продвигает watermark правила вперёд.
// Условие last_slot < $2 сохраняет монотонность при конкурентных запусках.
func (r *WeeklySlotRepository) UpdateLastSlot(ctx context.Context, id string, lastSlot time.Time) error {
	query := `UPDATE events_weekly_slots SET last_slot = $2 WHERE id = $1 AND last_slot < $2`

	_, err := r.pool.Exec(ctx, query, id, lastSlot)
	if err != nil {
		return fmt.Errorf("update weekly slot watermark: %w", err)
	}

	return nil
}

// Delete удаляет правило, возвращает false если правило не найдено
func (r *WeeklySlotRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM events_weekly_slots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete weekly slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *WeeklySlotRepository) collect(rows pgx.Rows) ([]*model.WeeklySlot, error) {
	defer rows.Close()

	var out []*model.WeeklySlot
	for rows.Next() {
		ws, err := scanWeeklySlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weekly slot: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

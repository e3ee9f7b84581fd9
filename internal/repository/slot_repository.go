package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, user_id, start_time, end_time, booked_by, event_type, student_coins, instructor_coins, skill_id, admin_link, link, weekly_slot_id`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.UserID,
		&slot.Start,
		&slot.End,
		&slot.BookedBy,
		&slot.EventType,
		&slot.StudentCoins,
		&slot.InstructorCoins,
		&slot.SkillID,
		&slot.AdminLink,
		&slot.Link,
		&slot.WeeklySlotID,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO events_slots (` + slotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(
		ctx, query,
		slot.ID,
		slot.UserID,
		slot.Start,
		slot.End,
		slot.BookedBy,
		slot.EventType,
		slot.StudentCoins,
		slot.InstructorCoins,
		slot.SkillID,
		slot.AdminLink,
		slot.Link,
		slot.WeeklySlotID,
	)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM events_slots WHERE id = $1`

	slot, err := scanSlot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByOwner получает все слоты инструктора
func (r *SlotRepository) GetByOwner(ctx context.Context, userID string) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM events_slots WHERE user_id = $1 ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get slots by owner: %w", err)
	}

	return collectSlots(rows)
}

// GetForUser получает слоты, в которых пользователь владелец или участник
func (r *SlotRepository) GetForUser(ctx context.Context, userID string) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM events_slots
		WHERE user_id = $1 OR booked_by = $1
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get slots for user: %w", err)
	}

	return collectSlots(rows)
}

// GetFreeByOwners получает свободные слоты набора владельцев в диапазоне времени
func (r *SlotRepository) GetFreeByOwners(ctx context.Context, ownerIDs []string, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM events_slots
		WHERE user_id = ANY($1)
		  AND booked_by IS NULL
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, ownerIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("get free slots by owners: %w", err)
	}

	return collectSlots(rows)
}

// GetExpired получает слоты, закончившиеся до указанного момента
func (r *SlotRepository) GetExpired(ctx context.Context, before time.Time) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM events_slots WHERE end_time < $1 ORDER BY end_time`

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("get expired slots: %w", err)
	}

	return collectSlots(rows)
}

// ClaimAndBook атомарно занимает свободный слот, записывая все поля брони
// одним условным UPDATE. Возвращает false, если слот уже занят или не найден.
func (r *SlotRepository) ClaimAndBook(ctx context.Context, slot *model.Slot) (bool, error) {
	query := `
		UPDATE events_slots
		SET booked_by = $2,
		    event_type = $3,
		    student_coins = $4,
		    instructor_coins = $5,
		    skill_id = $6,
		    admin_link = $7,
		    link = $8
		WHERE id = $1 AND booked_by IS NULL
	`

	result, err := r.pool.Exec(
		ctx, query,
		slot.ID,
		slot.BookedBy,
		slot.EventType,
		slot.StudentCoins,
		slot.InstructorCoins,
		slot.SkillID,
		slot.AdminLink,
		slot.Link,
	)
	if err != nil {
		return false, fmt.Errorf("claim slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Update перезаписывает поля брони слота (используется при отмене)
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE events_slots
		SET booked_by = $2,
		    event_type = $3,
		    student_coins = $4,
		    instructor_coins = $5,
		    skill_id = $6,
		    admin_link = $7,
		    link = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(
		ctx, query,
		slot.ID,
		slot.BookedBy,
		slot.EventType,
		slot.StudentCoins,
		slot.InstructorCoins,
		slot.SkillID,
		slot.AdminLink,
		slot.Link,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// Delete удаляет слот, возвращает false если слот уже удалён
func (r *SlotRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM events_slots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete slot: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteUnbookedByWeeklySlot удаляет свободные слоты, сгенерированные правилом
func (r *SlotRepository) DeleteUnbookedByWeeklySlot(ctx context.Context, weeklySlotID string) (int64, error) {
	result, err := r.pool.Exec(
		ctx,
		`DELETE FROM events_slots WHERE weekly_slot_id = $1 AND booked_by IS NULL`,
		weeklySlotID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete unbooked slots by weekly slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// DetachBookedByWeeklySlot отвязывает занятые слоты от удаляемого правила
func (r *SlotRepository) DetachBookedByWeeklySlot(ctx context.Context, weeklySlotID string) (int64, error) {
	result, err := r.pool.Exec(
		ctx,
		`UPDATE events_slots SET weekly_slot_id = NULL WHERE weekly_slot_id = $1 AND booked_by IS NOT NULL`,
		weeklySlotID,
	)
	if err != nil {
		return 0, fmt.Errorf("detach booked slots by weekly slot: %w", err)
	}

	return result.RowsAffected(), nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

// ExamRepository управляет предложениями приёма экзаменов и записями на них
type ExamRepository struct {
	pool *pgxpool.Pool
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Upsert регистрирует экзаменатора по навыку
func (r *ExamRepository) Upsert(ctx context.Context, exam *model.Exam) error {
	query := `
		INSERT INTO events_exams (user_id, skill_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, skill_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, exam.UserID, exam.SkillID); err != nil {
		return fmt.Errorf("upsert exam: %w", err)
	}

	return nil
}

// Get проверяет, принимает ли экзаменатор данный навык
func (r *ExamRepository) Get(ctx context.Context, userID, skillID string) (*model.Exam, error) {
	query := `SELECT user_id, skill_id FROM events_exams WHERE user_id = $1 AND skill_id = $2`

	var exam model.Exam
	err := r.pool.QueryRow(ctx, query, userID, skillID).Scan(&exam.UserID, &exam.SkillID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	return &exam, nil
}

// GetByUser получает все навыки, которые принимает экзаменатор
func (r *ExamRepository) GetByUser(ctx context.Context, userID string) ([]*model.Exam, error) {
	query := `SELECT user_id, skill_id FROM events_exams WHERE user_id = $1 ORDER BY skill_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get exams by user: %w", err)
	}
	defer rows.Close()

	var out []*model.Exam
	for rows.Next() {
		var exam model.Exam
		if err := rows.Scan(&exam.UserID, &exam.SkillID); err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, &exam)
	}

	return out, rows.Err()
}

// Delete снимает регистрацию экзаменатора, возвращает false если её не было
func (r *ExamRepository) Delete(ctx context.Context, userID, skillID string) (bool, error) {
	result, err := r.pool.Exec(
		ctx,
		`DELETE FROM events_exams WHERE user_id = $1 AND skill_id = $2`,
		userID, skillID,
	)
	if err != nil {
		return false, fmt.Errorf("delete exam: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// CreateBooked фиксирует запись студента на экзамен
func (r *ExamRepository) CreateBooked(ctx context.Context, booked *model.BookedExam) error {
	query := `
		INSERT INTO events_booked_exams (user_id, skill_id, examiner_id, slot_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		booked.UserID, booked.SkillID, booked.ExaminerID, booked.SlotID, booked.CreatedAt)
	if err != nil {
		return fmt.Errorf("create booked exam: %w", err)
	}

	return nil
}

// ExistsBooked проверяет, есть ли у студента активная запись на экзамен по навыку
func (r *ExamRepository) ExistsBooked(ctx context.Context, userID, skillID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events_booked_exams WHERE user_id = $1 AND skill_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, skillID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check booked exam: %w", err)
	}

	return exists, nil
}

// GetBooked получает запись студента на экзамен у конкретного экзаменатора
func (r *ExamRepository) GetBooked(ctx context.Context, userID, skillID, examinerID string) (*model.BookedExam, error) {
	query := `
		SELECT user_id, skill_id, examiner_id, slot_id, created_at
		FROM events_booked_exams
		WHERE user_id = $1 AND skill_id = $2 AND examiner_id = $3
	`

	var booked model.BookedExam
	err := r.pool.QueryRow(ctx, query, userID, skillID, examinerID).
		Scan(&booked.UserID, &booked.SkillID, &booked.ExaminerID, &booked.SlotID, &booked.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booked exam: %w", err)
	}

	return &booked, nil
}

// GetPendingByExaminer получает все непроверенные записи экзаменатора
func (r *ExamRepository) GetPendingByExaminer(ctx context.Context, examinerID string) ([]*model.BookedExam, error) {
	query := `
		SELECT user_id, skill_id, examiner_id, slot_id, created_at
		FROM events_booked_exams
		WHERE examiner_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, examinerID)
	if err != nil {
		return nil, fmt.Errorf("get pending exams: %w", err)
	}
	defer rows.Close()

	var out []*model.BookedExam
	for rows.Next() {
		var booked model.BookedExam
		err := rows.Scan(&booked.UserID, &booked.SkillID, &booked.ExaminerID, &booked.SlotID, &booked.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan booked exam: %w", err)
		}
		out = append(out, &booked)
	}

	return out, rows.Err()
}

// DeleteBooked удаляет запись после выставления оценки
func (r *ExamRepository) DeleteBooked(ctx context.Context, userID, skillID, examinerID string) (bool, error) {
	result, err := r.pool.Exec(
		ctx,
		`DELETE FROM events_booked_exams WHERE user_id = $1 AND skill_id = $2 AND examiner_id = $3`,
		userID, skillID, examinerID,
	)
	if err != nil {
		return false, fmt.Errorf("delete booked exam: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// DeleteBookedBySlot удаляет запись при отмене слота
func (r *ExamRepository) DeleteBookedBySlot(ctx context.Context, slotID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events_booked_exams WHERE slot_id = $1`, slotID)
	if err != nil {
		return fmt.Errorf("delete booked exam by slot: %w", err)
	}

	return nil
}

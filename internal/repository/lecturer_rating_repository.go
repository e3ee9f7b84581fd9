package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

const ratingColumns = `id, lecturer_id, participant_id, skill_id, webinar_timestamp, webinar_name, rating`

// LecturerRatingRepository управляет оценками инструкторов
type LecturerRatingRepository struct {
	pool *pgxpool.Pool
}

func NewLecturerRatingRepository(pool *pgxpool.Pool) *LecturerRatingRepository {
	return &LecturerRatingRepository{pool: pool}
}

func scanRating(row pgx.Row) (*model.LecturerRating, error) {
	var r model.LecturerRating
	err := row.Scan(
		&r.ID, &r.LecturerID, &r.ParticipantID, &r.SkillID,
		&r.WebinarTimestamp, &r.WebinarName, &r.Rating,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRatings(rows pgx.Rows) ([]*model.LecturerRating, error) {
	defer rows.Close()

	var out []*model.LecturerRating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lecturer rating: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// Create сохраняет новую неоценённую строку
func (r *LecturerRatingRepository) Create(ctx context.Context, rating *model.LecturerRating) error {
	query := `
		INSERT INTO events_lecturer_ratings (` + ratingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		rating.ID, rating.LecturerID, rating.ParticipantID, rating.SkillID,
		rating.WebinarTimestamp, rating.WebinarName, rating.Rating)
	if err != nil {
		return fmt.Errorf("create lecturer rating: %w", err)
	}

	return nil
}

// ListUnrated получает неоценённые вебинары участника
func (r *LecturerRatingRepository) ListUnrated(ctx context.Context, participantID string) ([]*model.LecturerRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM events_lecturer_ratings
		WHERE participant_id = $1 AND rating IS NULL
		ORDER BY webinar_timestamp
	`

	rows, err := r.pool.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("list unrated: %w", err)
	}

	return collectRatings(rows)
}

// GetUnrated получает неоценённую строку участника по идентификатору
func (r *LecturerRatingRepository) GetUnrated(ctx context.Context, participantID, ratingID string) (*model.LecturerRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM events_lecturer_ratings
		WHERE id = $1 AND participant_id = $2 AND rating IS NULL
	`

	rating, err := scanRating(r.pool.QueryRow(ctx, query, ratingID, participantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get unrated: %w", err)
	}

	return rating, nil
}

// SetRating выставляет оценку и обезличивает строку
func (r *LecturerRatingRepository) SetRating(ctx context.Context, ratingID string, rating int) error {
	query := `
		UPDATE events_lecturer_ratings
		SET rating = $2, webinar_name = NULL, participant_id = NULL
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, ratingID, rating); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}

	return nil
}

// ListRated получает выставленные оценки инструктора по навыку
func (r *LecturerRatingRepository) ListRated(ctx context.Context, lecturerID, skillID string) ([]*model.LecturerRating, error) {
	query := `
		SELECT ` + ratingColumns + `
		FROM events_lecturer_ratings
		WHERE lecturer_id = $1 AND skill_id = $2 AND rating IS NOT NULL
	`

	rows, err := r.pool.Query(ctx, query, lecturerID, skillID)
	if err != nil {
		return nil, fmt.Errorf("list rated: %w", err)
	}

	return collectRatings(rows)
}

// Delete удаляет строку, возвращает false если её не было
func (r *LecturerRatingRepository) Delete(ctx context.Context, ratingID string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM events_lecturer_ratings WHERE id = $1`, ratingID)
	if err != nil {
		return false, fmt.Errorf("delete lecturer rating: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

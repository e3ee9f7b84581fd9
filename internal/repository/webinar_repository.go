package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillacademy/events-service/internal/model"
)

const webinarColumns = `id, skill_id, creator, creation_date, name, description, link, start_time, end_time, max_participants, price`

// WebinarFilter — необязательные фильтры списка вебинаров
type WebinarFilter struct {
	SkillID   string
	Creator   string
	StartFrom *time.Time
	StartTo   *time.Time
}

// WebinarRepository управляет вебинарами и их участниками
type WebinarRepository struct {
	pool *pgxpool.Pool
}

func NewWebinarRepository(pool *pgxpool.Pool) *WebinarRepository {
	return &WebinarRepository{pool: pool}
}

func scanWebinar(row pgx.Row) (*model.Webinar, error) {
	var w model.Webinar
	err := row.Scan(
		&w.ID, &w.SkillID, &w.Creator, &w.CreationDate,
		&w.Name, &w.Description, &w.Link,
		&w.Start, &w.End, &w.MaxParticipants, &w.Price,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create сохраняет новый вебинар
func (r *WebinarRepository) Create(ctx context.Context, w *model.Webinar) error {
	query := `
		INSERT INTO events_webinars (` + webinarColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.SkillID, w.Creator, w.CreationDate,
		w.Name, w.Description, w.Link,
		w.Start, w.End, w.MaxParticipants, w.Price)
	if err != nil {
		return fmt.Errorf("create webinar: %w", err)
	}

	return nil
}

// GetByID получает вебинар вместе со списком участников
func (r *WebinarRepository) GetByID(ctx context.Context, id string) (*model.Webinar, error) {
	query := `SELECT ` + webinarColumns + ` FROM events_webinars WHERE id = $1`

	w, err := scanWebinar(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get webinar: %w", err)
	}

	if w.Participants, err = r.getParticipants(ctx, w.ID); err != nil {
		return nil, err
	}

	return w, nil
}

// List получает вебинары по фильтру, без участников. Для каждого
// вебинара вычисляется зарегистрирован ли смотрящий.
func (r *WebinarRepository) List(ctx context.Context, viewerID string, filter WebinarFilter) ([]*model.Webinar, error) {
	builder := sq.Select(webinarColumns).
		Column(sq.Expr(
			"EXISTS(SELECT 1 FROM events_webinar_participants p WHERE p.webinar_id = events_webinars.id AND p.user_id = ?)",
			viewerID)).
		From("events_webinars").
		OrderBy("start_time").
		PlaceholderFormat(sq.Dollar)

	if filter.SkillID != "" {
		builder = builder.Where(sq.Eq{"skill_id": filter.SkillID})
	}
	if filter.Creator != "" {
		builder = builder.Where(sq.Eq{"creator": filter.Creator})
	}
	if filter.StartFrom != nil {
		builder = builder.Where(sq.GtOrEq{"start_time": *filter.StartFrom})
	}
	if filter.StartTo != nil {
		builder = builder.Where(sq.Lt{"start_time": *filter.StartTo})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build webinar list query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list webinars: %w", err)
	}
	defer rows.Close()

	var out []*model.Webinar
	for rows.Next() {
		var w model.Webinar
		err := rows.Scan(
			&w.ID, &w.SkillID, &w.Creator, &w.CreationDate,
			&w.Name, &w.Description, &w.Link,
			&w.Start, &w.End, &w.MaxParticipants, &w.Price,
			&w.Registered,
		)
		if err != nil {
			return nil, fmt.Errorf("scan webinar: %w", err)
		}
		out = append(out, &w)
	}

	return out, rows.Err()
}

// GetByUser получает вебинары, созданные пользователем или с его участием
func (r *WebinarRepository) GetByUser(ctx context.Context, userID string) ([]*model.Webinar, error) {
	query := `
		SELECT DISTINCT w.id, w.skill_id, w.creator, w.creation_date, w.name, w.description, w.link,
			w.start_time, w.end_time, w.max_participants, w.price
		FROM events_webinars w
		LEFT JOIN events_webinar_participants p ON p.webinar_id = w.id
		WHERE w.creator = $1 OR p.user_id = $1
		ORDER BY w.start_time
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get webinars by user: %w", err)
	}
	defer rows.Close()

	var out []*model.Webinar
	for rows.Next() {
		w, err := scanWebinar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webinar: %w", err)
		}
		out = append(out, w)
	}

	return out, rows.Err()
}

// GetExpired получает вебинары, закончившиеся до указанного момента
func (r *WebinarRepository) GetExpired(ctx context.Context, before time.Time) ([]*model.Webinar, error) {
	query := `SELECT ` + webinarColumns + ` FROM events_webinars WHERE end_time < $1`

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("get expired webinars: %w", err)
	}
	defer rows.Close()

	var out []*model.Webinar
	for rows.Next() {
		w, err := scanWebinar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webinar: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range out {
		if w.Participants, err = r.getParticipants(ctx, w.ID); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Update перезаписывает изменяемые поля вебинара
func (r *WebinarRepository) Update(ctx context.Context, w *model.Webinar) error {
	query := `
		UPDATE events_webinars
		SET name = $2, description = $3, start_time = $4, end_time = $5, max_participants = $6
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.Name, w.Description, w.Start, w.End, w.MaxParticipants)
	if err != nil {
		return fmt.Errorf("update webinar: %w", err)
	}

	return nil
}

// Delete удаляет вебинар вместе с участниками, возвращает false если его не было
func (r *WebinarRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM events_webinars WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete webinar: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// AddParticipant регистрирует участника, возвращает false если он уже был
func (r *WebinarRepository) AddParticipant(ctx context.Context, p *model.WebinarParticipant) (bool, error) {
	query := `
		INSERT INTO events_webinar_participants (webinar_id, user_id, registered_at, paid)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (webinar_id, user_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, p.WebinarID, p.UserID, p.RegisteredAt, p.Paid)
	if err != nil {
		return false, fmt.Errorf("add webinar participant: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// RemoveParticipant снимает регистрацию, возвращает false если её не было
func (r *WebinarRepository) RemoveParticipant(ctx context.Context, webinarID, userID string) (bool, error) {
	result, err := r.pool.Exec(
		ctx,
		`DELETE FROM events_webinar_participants WHERE webinar_id = $1 AND user_id = $2`,
		webinarID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove webinar participant: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *WebinarRepository) getParticipants(ctx context.Context, webinarID string) ([]*model.WebinarParticipant, error) {
	query := `
		SELECT webinar_id, user_id, registered_at, paid
		FROM events_webinar_participants
		WHERE webinar_id = $1
		ORDER BY registered_at
	`

	rows, err := r.pool.Query(ctx, query, webinarID)
	if err != nil {
		return nil, fmt.Errorf("get webinar participants: %w", err)
	}
	defer rows.Close()

	var out []*model.WebinarParticipant
	for rows.Next() {
		var p model.WebinarParticipant
		if err := rows.Scan(&p.WebinarID, &p.UserID, &p.RegisteredAt, &p.Paid); err != nil {
			return nil, fmt.Errorf("scan webinar participant: %w", err)
		}
		out = append(out, &p)
	}

	return out, rows.Err()
}

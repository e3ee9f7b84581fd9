package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/cache"
	"github.com/skillacademy/events-service/internal/model"
)

const ratingNamespace = "rating"

// RatingService управляет оценками инструкторов за вебинары.
// Агрегированный рейтинг — средневзвешенное с экспоненциальным
// затуханием: оценка теряет половину веса каждые halfLifeDays дней,
// строки старше maxKeepDays удаляются при пересчёте.
type RatingService struct {
	ratings RatingStore
	cache   *cache.Cache
	logger  *zap.Logger

	halfLifeDays float64
	maxKeepDays  float64
}

func NewRatingService(
	ratings RatingStore,
	cacheClient *cache.Cache,
	logger *zap.Logger,
	halfLifeDays, maxKeepDays float64,
) *RatingService {
	return &RatingService{
		ratings:      ratings,
		cache:        cacheClient,
		logger:       logger,
		halfLifeDays: halfLifeDays,
		maxKeepDays:  maxKeepDays,
	}
}

// GetRating возвращает рейтинг инструктора по навыку, nil если оценок
// нет. Возраст считается от самой свежей оценки пары, чтобы рейтинг
// неактивного инструктора не дрейфовал сам по себе.
func (s *RatingService) GetRating(ctx context.Context, lecturerID, skillID string) (*float64, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s", ratingNamespace, lecturerID, skillID)
	var cached float64
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	rated, err := s.ratings.ListRated(ctx, lecturerID, skillID)
	if err != nil {
		return nil, fmt.Errorf("list rated: %w", err)
	}
	if len(rated) == 0 {
		return nil, nil
	}

	newest := rated[0].WebinarTimestamp
	for _, r := range rated[1:] {
		if r.WebinarTimestamp.After(newest) {
			newest = r.WebinarTimestamp
		}
	}

	var total, weights float64
	for _, r := range rated {
		days := newest.Sub(r.WebinarTimestamp).Hours() / 24
		if days > s.maxKeepDays {
			if _, err := s.ratings.Delete(ctx, r.ID); err != nil {
				s.logger.Warn("Не удалось удалить устаревшую оценку",
					zap.String("rating_id", r.ID),
					zap.Error(err))
			}
			continue
		}
		weight := math.Exp2(-days / s.halfLifeDays)
		total += float64(*r.Rating) * weight
		weights += weight
	}
	if weights == 0 {
		return nil, nil
	}

	rating := total / weights
	s.cache.SetJSON(ctx, cacheKey, rating)

	return &rating, nil
}

// ListUnrated возвращает неоценённые вебинары пользователя
func (s *RatingService) ListUnrated(ctx context.Context, userID string) ([]*model.LecturerRating, error) {
	return s.ratings.ListUnrated(ctx, userID)
}

// Rate выставляет оценку инструктору за посещённый вебинар
func (s *RatingService) Rate(ctx context.Context, userID, ratingID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	unrated, err := s.ratings.GetUnrated(ctx, userID, ratingID)
	if err != nil {
		return fmt.Errorf("get unrated: %w", err)
	}
	if unrated == nil {
		return ErrRatingNotFound
	}

	if err := s.ratings.SetRating(ctx, ratingID, rating); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}

	s.cache.Clear(ctx, ratingNamespace)

	s.logger.Info("Выставлена оценка инструктору",
		zap.String("rating_id", ratingID),
		zap.String("lecturer_id", unrated.LecturerID),
		zap.Int("rating", rating))

	return nil
}

// CancelRating удаляет приглашение оценить вебинар без выставления оценки
func (s *RatingService) CancelRating(ctx context.Context, userID, ratingID string) error {
	unrated, err := s.ratings.GetUnrated(ctx, userID, ratingID)
	if err != nil {
		return fmt.Errorf("get unrated: %w", err)
	}
	if unrated == nil {
		return ErrRatingNotFound
	}

	if _, err := s.ratings.Delete(ctx, ratingID); err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	return nil
}

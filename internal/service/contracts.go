package service

import (
	"context"
	"time"

	"github.com/skillacademy/events-service/internal/model"
	"github.com/skillacademy/events-service/internal/repository"
)

// Интерфейсы хранилищ и внешних сервисов, которыми пользуется бизнес-логика.
// Реализации живут в repository и integrations; тесты подставляют свои.

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	GetByOwner(ctx context.Context, userID string) ([]*model.Slot, error)
	GetForUser(ctx context.Context, userID string) ([]*model.Slot, error)
	GetFreeByOwners(ctx context.Context, ownerIDs []string, from, to time.Time) ([]*model.Slot, error)
	GetExpired(ctx context.Context, before time.Time) ([]*model.Slot, error)
	ClaimAndBook(ctx context.Context, slot *model.Slot) (bool, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteUnbookedByWeeklySlot(ctx context.Context, weeklySlotID string) (int64, error)
	DetachBookedByWeeklySlot(ctx context.Context, weeklySlotID string) (int64, error)
}

type WeeklySlotStore interface {
	Create(ctx context.Context, ws *model.WeeklySlot) error
	GetByID(ctx context.Context, id string) (*model.WeeklySlot, error)
	GetByOwner(ctx context.Context, userID string) ([]*model.WeeklySlot, error)
	GetAll(ctx context.Context) ([]*model.WeeklySlot, error)
	UpdateLastSlot(ctx context.Context, id string, lastSlot time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}

type EmergencyCancelStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) (bool, error)
}

type CoachingStore interface {
	Upsert(ctx context.Context, coaching *model.Coaching) error
	Get(ctx context.Context, userID, skillID string) (*model.Coaching, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Coaching, error)
	Delete(ctx context.Context, userID, skillID string) (bool, error)
}

type ExamStore interface {
	Upsert(ctx context.Context, exam *model.Exam) error
	Get(ctx context.Context, userID, skillID string) (*model.Exam, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Exam, error)
	Delete(ctx context.Context, userID, skillID string) (bool, error)
	CreateBooked(ctx context.Context, booked *model.BookedExam) error
	ExistsBooked(ctx context.Context, userID, skillID string) (bool, error)
	GetBooked(ctx context.Context, userID, skillID, examinerID string) (*model.BookedExam, error)
	GetPendingByExaminer(ctx context.Context, examinerID string) ([]*model.BookedExam, error)
	DeleteBooked(ctx context.Context, userID, skillID, examinerID string) (bool, error)
	DeleteBookedBySlot(ctx context.Context, slotID string) error
}

type WebinarStore interface {
	Create(ctx context.Context, w *model.Webinar) error
	GetByID(ctx context.Context, id string) (*model.Webinar, error)
	List(ctx context.Context, viewerID string, filter repository.WebinarFilter) ([]*model.Webinar, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Webinar, error)
	GetExpired(ctx context.Context, before time.Time) ([]*model.Webinar, error)
	Update(ctx context.Context, w *model.Webinar) error
	Delete(ctx context.Context, id string) (bool, error)
	AddParticipant(ctx context.Context, p *model.WebinarParticipant) (bool, error)
	RemoveParticipant(ctx context.Context, webinarID, userID string) (bool, error)
}

// RatingStore — хранилище оценок инструкторов
type RatingStore interface {
	Create(ctx context.Context, rating *model.LecturerRating) error
	ListUnrated(ctx context.Context, participantID string) ([]*model.LecturerRating, error)
	GetUnrated(ctx context.Context, participantID, ratingID string) (*model.LecturerRating, error)
	SetRating(ctx context.Context, ratingID string, rating int) error
	ListRated(ctx context.Context, lecturerID, skillID string) ([]*model.LecturerRating, error)
	Delete(ctx context.Context, ratingID string) (bool, error)
}

// RatingProvider отдаёт агрегированный рейтинг инструктора по навыку
type RatingProvider interface {
	GetRating(ctx context.Context, lecturerID, skillID string) (*float64, error)
}

// Назначения платежей в кошельковом сервисе
const (
	walletCoaching = "Coaching"
	walletExam     = "Exam"
	walletWebinar  = "Webinar"
)

// Wallet — кошельковый сервис платформы
type Wallet interface {
	AddCoins(ctx context.Context, userID string, amount int64, description string, creditNote bool) error
	SpendCoins(ctx context.Context, userID string, amount int64, description string) (bool, error)
}

// Skills — сервис дерева навыков
type Skills interface {
	GetCompletedSkills(ctx context.Context, userID string) ([]string, error)
	GetSkillDependencies(ctx context.Context, skillID string) ([]string, error)
	GetLecturers(ctx context.Context, skillIDs []string) ([]string, error)
	AddXP(ctx context.Context, userID, skillID string, amount int64) error
	CompleteSkill(ctx context.Context, userID, skillID string) error
}

// Identity — сервис идентификации пользователей
type Identity interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GetPublicProfile(ctx context.Context, userID string) (*model.PublicProfile, error)
}

// Mailer — почтовые уведомления, best-effort
type Mailer interface {
	Send(ctx context.Context, template, recipient string, vars map[string]string)
}

// CacheInvalidator — сброс кэша read-model после мутаций
type CacheInvalidator interface {
	Clear(ctx context.Context, namespace string)
}

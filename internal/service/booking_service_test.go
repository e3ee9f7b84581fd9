package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/model"
)

type bookingEnv struct {
	slots     *fakeSlotStore
	coachings *fakeCoachingStore
	exams     *fakeExamStore
	emergency *fakeEmergencyStore
	wallet    *fakeWallet
	skills    *fakeSkills
	identity  *fakeIdentity
	mailer    *fakeMailer
	cache     *fakeCache
	svc       *BookingService
	now       time.Time
}

func newBookingEnv() *bookingEnv {
	env := &bookingEnv{
		slots:     newFakeSlotStore(),
		coachings: newFakeCoachingStore(),
		exams:     newFakeExamStore(),
		emergency: newFakeEmergencyStore(),
		wallet:    newFakeWallet(),
		skills:    newFakeSkills(),
		identity:  newFakeIdentity(),
		mailer:    &fakeMailer{},
		cache:     &fakeCache{},
		now:       time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewBookingService(
		env.slots, env.coachings, env.exams, env.emergency,
		env.wallet, env.skills, env.identity, env.mailer, env.cache,
		zap.NewNop(), 0.3, 15000, "examiner")
	env.svc.now = func() time.Time { return env.now }
	env.svc.pick = func(int) int { return 0 }
	return env
}

// freeSlot добавляет свободный слот инструктора, начинающийся через offset
func (env *bookingEnv) freeSlot(owner string, offset time.Duration) *model.Slot {
	slot := model.NewSlot(owner, env.now.Add(offset), env.now.Add(offset+time.Hour))
	_ = env.slots.Create(context.Background(), slot)
	return slot
}

// bookedSlot добавляет занятый слот с закреплёнными суммами
func (env *bookingEnv) bookedSlot(owner, booker string, offset time.Duration, studentCoins, instructorCoins int64) *model.Slot {
	slot := model.NewSlot(owner, env.now.Add(offset), env.now.Add(offset+time.Hour))
	slot.Book(booker, model.EventTypeCoaching, studentCoins, instructorCoins, "algebra")
	_ = env.slots.Create(context.Background(), slot)
	return slot
}

func TestBookCoaching(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.freeSlot("tutor", 48*time.Hour)
	_ = env.coachings.Upsert(ctx, &model.Coaching{UserID: "tutor", SkillID: "algebra", Price: 1000})
	env.wallet.balances["student"] = 1500

	booked, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
	require.NoError(t, err)

	assert.Equal(t, int64(500), env.wallet.balance("student"))
	require.NotNil(t, booked.BookedBy)
	assert.Equal(t, "student", *booked.BookedBy)
	assert.Equal(t, model.EventTypeCoaching, *booked.EventType)
	assert.Equal(t, int64(1000), *booked.StudentCoins)
	// Доля инструктора за вычетом комиссии 30%, округление вниз
	assert.Equal(t, int64(700), *booked.InstructorCoins)
	assert.NotNil(t, booked.Link)

	// Бронь видна в хранилище
	stored, err := env.slots.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, stored.Booked())

	// Уведомлены обе стороны
	assert.Len(t, env.mailer.sent, 2)
}

func TestBookCoaching_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("slot not found", func(t *testing.T) {
		env := newBookingEnv()
		_, err := env.svc.BookCoaching(ctx, "student", "missing", "algebra")
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("slot already booked", func(t *testing.T) {
		env := newBookingEnv()
		slot := env.bookedSlot("tutor", "other", 48*time.Hour, 1000, 700)
		_, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
		assert.ErrorIs(t, err, ErrSlotConflict)
	})

	t.Run("own slot", func(t *testing.T) {
		env := newBookingEnv()
		slot := env.freeSlot("tutor", 48*time.Hour)
		_, err := env.svc.BookCoaching(ctx, "tutor", slot.ID, "algebra")
		assert.ErrorIs(t, err, ErrSelfBooking)
	})

	t.Run("starts too soon", func(t *testing.T) {
		env := newBookingEnv()
		slot := env.freeSlot("tutor", 12*time.Hour)
		_, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
		assert.ErrorIs(t, err, ErrSlotTooSoon)
	})

	t.Run("no coaching offering", func(t *testing.T) {
		env := newBookingEnv()
		slot := env.freeSlot("tutor", 48*time.Hour)
		_, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
		assert.ErrorIs(t, err, ErrCoachingNotFound)
	})

	t.Run("not enough coins", func(t *testing.T) {
		env := newBookingEnv()
		slot := env.freeSlot("tutor", 48*time.Hour)
		_ = env.coachings.Upsert(ctx, &model.Coaching{UserID: "tutor", SkillID: "algebra", Price: 1000})
		env.wallet.balances["student"] = 999

		_, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
		assert.ErrorIs(t, err, ErrNotEnoughCoins)
		assert.Equal(t, int64(999), env.wallet.balance("student"))
	})
}

func TestBookCoaching_Waiver(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.freeSlot("tutor", 48*time.Hour)
	_ = env.coachings.Upsert(ctx, &model.Coaching{UserID: "tutor", SkillID: "algebra", Price: 1000})
	_ = env.emergency.Create(ctx, "tutor")
	env.wallet.balances["student"] = 100

	booked, err := env.svc.BookCoaching(ctx, "student", slot.ID, "algebra")
	require.NoError(t, err)

	// Оплата не списана, суммы нулевые, отметка погашена
	assert.Equal(t, int64(100), env.wallet.balance("student"))
	assert.Equal(t, int64(0), *booked.StudentCoins)
	assert.Equal(t, int64(0), *booked.InstructorCoins)
	waived, _ := env.emergency.Exists(ctx, "tutor")
	assert.False(t, waived)
}

// staleSlotStore отдаёт слот свободным, хотя в хранилище он уже занят.
// Моделирует гонку между чтением и claim.
type staleSlotStore struct {
	SlotStore
}

func (s staleSlotStore) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	slot, err := s.SlotStore.GetByID(ctx, id)
	if slot != nil {
		cp := *slot
		cp.Cancel()
		return &cp, nil
	}
	return slot, err
}

func TestBookCoaching_LostRace(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.bookedSlot("tutor", "winner", 48*time.Hour, 1000, 700)
	_ = env.coachings.Upsert(ctx, &model.Coaching{UserID: "tutor", SkillID: "algebra", Price: 1000})
	env.wallet.balances["loser"] = 1000
	env.svc.slots = staleSlotStore{env.slots}

	_, err := env.svc.BookCoaching(ctx, "loser", slot.ID, "algebra")
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Списанное возвращено компенсацией
	assert.Equal(t, int64(1000), env.wallet.balance("loser"))

	// Бронь победителя не тронута
	stored, _ := env.slots.GetByID(ctx, slot.ID)
	assert.Equal(t, "winner", *stored.BookedBy)
}

func TestCancelEvent_RefundTiers(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		offset     time.Duration
		student    int64
		instructor int64
	}{
		{"full refund a week ahead", 8 * 24 * time.Hour, 1000, 0},
		{"half refund in between", 3 * 24 * time.Hour, 500, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newBookingEnv()
			slot := env.bookedSlot("tutor", "student", tt.offset, 1000, 700)

			require.NoError(t, env.svc.CancelEvent(ctx, "student", slot.ID))

			assert.Equal(t, tt.student, env.wallet.balance("student"))
			assert.Equal(t, tt.instructor, env.wallet.balance("tutor"))

			stored, _ := env.slots.GetByID(ctx, slot.ID)
			assert.False(t, stored.Booked())

			// Отмена студентом не оставляет отметку
			marked, _ := env.emergency.Exists(ctx, "tutor")
			assert.False(t, marked)
		})
	}
}

func TestCancelEvent_OddAmountsRoundDown(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.bookedSlot("tutor", "student", 3*24*time.Hour, 999, 699)

	require.NoError(t, env.svc.CancelEvent(ctx, "student", slot.ID))

	assert.Equal(t, int64(499), env.wallet.balance("student"))
	assert.Equal(t, int64(349), env.wallet.balance("tutor"))
}

func TestCancelEvent_TooLate(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.bookedSlot("tutor", "student", 12*time.Hour, 1000, 700)

	err := env.svc.CancelEvent(ctx, "student", slot.ID)
	assert.ErrorIs(t, err, ErrCancelTooLate)

	stored, _ := env.slots.GetByID(ctx, slot.ID)
	assert.True(t, stored.Booked())
	assert.Equal(t, int64(0), env.wallet.balance("student"))
}

func TestCancelEvent_ByOwner(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	// Инструктор может отменить даже за час до начала
	slot := env.bookedSlot("tutor", "student", time.Hour, 1000, 700)

	require.NoError(t, env.svc.CancelEvent(ctx, "tutor", slot.ID))

	// Студенту всё, инструктору ничего, отметка вынужденной отмены создана
	assert.Equal(t, int64(1000), env.wallet.balance("student"))
	assert.Equal(t, int64(0), env.wallet.balance("tutor"))
	marked, _ := env.emergency.Exists(ctx, "tutor")
	assert.True(t, marked)
}

func TestCancelEvent_ByAdmin(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	env.identity.admins["admin"] = true
	slot := env.bookedSlot("tutor", "student", time.Hour, 1000, 700)

	require.NoError(t, env.svc.CancelEvent(ctx, "admin", slot.ID))

	assert.Equal(t, int64(1000), env.wallet.balance("student"))
	// Административная отмена не наказывает инструктора отметкой
	marked, _ := env.emergency.Exists(ctx, "tutor")
	assert.False(t, marked)
}

func TestCancelEvent_AfterStart(t *testing.T) {
	ctx := context.Background()

	// Начавшееся событие не отменяет ни одна из сторон
	for _, requester := range []string{"tutor", "student"} {
		t.Run("by "+requester, func(t *testing.T) {
			env := newBookingEnv()
			slot := env.bookedSlot("tutor", "student", -time.Hour, 1000, 700)

			err := env.svc.CancelEvent(ctx, requester, slot.ID)
			assert.ErrorIs(t, err, ErrPermissionDenied)

			stored, _ := env.slots.GetByID(ctx, slot.ID)
			assert.True(t, stored.Booked())
			assert.Equal(t, int64(0), env.wallet.balance("student"))
			marked, _ := env.emergency.Exists(ctx, "tutor")
			assert.False(t, marked)
		})
	}

	t.Run("by admin", func(t *testing.T) {
		env := newBookingEnv()
		env.identity.admins["admin"] = true
		slot := env.bookedSlot("tutor", "student", -time.Hour, 1000, 700)

		require.NoError(t, env.svc.CancelEvent(ctx, "admin", slot.ID))

		assert.Equal(t, int64(1000), env.wallet.balance("student"))
		stored, _ := env.slots.GetByID(ctx, slot.ID)
		assert.False(t, stored.Booked())
	})
}

func TestCancelEvent_AdminBookerSkipsLeadTime(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	env.identity.admins["student"] = true
	slot := env.bookedSlot("tutor", "student", 12*time.Hour, 1000, 700)

	// Администратору возвращается всё даже ближе суток к началу
	require.NoError(t, env.svc.CancelEvent(ctx, "student", slot.ID))

	assert.Equal(t, int64(1000), env.wallet.balance("student"))
	assert.Equal(t, int64(0), env.wallet.balance("tutor"))
	marked, _ := env.emergency.Exists(ctx, "tutor")
	assert.False(t, marked)
}

func TestCancelEvent_Stranger(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()
	slot := env.bookedSlot("tutor", "student", 48*time.Hour, 1000, 700)

	err := env.svc.CancelEvent(ctx, "stranger", slot.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCancelEvent_ExamRemovesBookedRecord(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv()

	slot := model.NewSlot("examiner1", env.now.Add(48*time.Hour), env.now.Add(49*time.Hour))
	slot.Book("student", model.EventTypeExam, 15000, 10500, "algebra")
	_ = env.slots.Create(ctx, slot)
	_ = env.exams.CreateBooked(ctx, &model.BookedExam{
		UserID: "student", SkillID: "algebra", ExaminerID: "examiner1",
		SlotID: slot.ID, CreatedAt: env.now,
	})

	require.NoError(t, env.svc.CancelEvent(ctx, "student", slot.ID))

	pending, _ := env.exams.ExistsBooked(ctx, "student", "algebra")
	assert.False(t, pending)
}

// examEnv настраивает дерево навыков и одного квалифицированного экзаменатора
func examEnv() *bookingEnv {
	env := newBookingEnv()
	env.skills.deps["algebra"] = []string{"arithmetic"}
	env.skills.completed["student"] = []string{"arithmetic"}
	env.skills.completed["examiner1"] = []string{"algebra", "examiner"}
	_ = env.exams.Upsert(context.Background(), &model.Exam{UserID: "examiner1", SkillID: "algebra"})
	env.wallet.balances["student"] = 20000
	return env
}

func TestBookExam(t *testing.T) {
	ctx := context.Background()
	env := examEnv()
	env.freeSlot("examiner1", 48*time.Hour)

	booked, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "examiner1", booked.UserID)
	assert.Equal(t, model.EventTypeExam, *booked.EventType)
	assert.Equal(t, int64(15000), *booked.StudentCoins)
	assert.Equal(t, int64(10500), *booked.InstructorCoins)
	assert.Equal(t, int64(5000), env.wallet.balance("student"))

	pending, _ := env.exams.ExistsBooked(ctx, "student", "algebra")
	assert.True(t, pending)
}

func TestBookExam_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown skill", func(t *testing.T) {
		env := examEnv()
		_, err := env.svc.BookExam(ctx, "student", "geometry", nil, nil)
		assert.ErrorIs(t, err, ErrSkillNotFound)
	})

	t.Run("already passed", func(t *testing.T) {
		env := examEnv()
		env.skills.completed["student"] = []string{"arithmetic", "algebra"}
		_, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		assert.ErrorIs(t, err, ErrExamAlreadyPassed)
	})

	t.Run("requirements not met", func(t *testing.T) {
		env := examEnv()
		env.skills.completed["student"] = nil
		_, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		assert.ErrorIs(t, err, ErrSkillRequirementsNotMet)
	})

	t.Run("already booked", func(t *testing.T) {
		env := examEnv()
		env.freeSlot("examiner1", 48*time.Hour)
		_ = env.exams.CreateBooked(ctx, &model.BookedExam{
			UserID: "student", SkillID: "algebra", ExaminerID: "examiner1",
			SlotID: "someslot", CreatedAt: env.now,
		})
		_, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		assert.ErrorIs(t, err, ErrExamAlreadyBooked)
	})

	t.Run("no free slots", func(t *testing.T) {
		env := examEnv()
		// Единственный слот начинается слишком скоро
		env.freeSlot("examiner1", 12*time.Hour)
		_, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("student qualified as examiner is not offered own slot", func(t *testing.T) {
		env := examEnv()
		env.skills.completed["student"] = []string{"arithmetic", "examiner"}
		env.freeSlot("student", 48*time.Hour)
		_, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestBookExam_PickIsUsed(t *testing.T) {
	ctx := context.Background()
	env := examEnv()
	env.freeSlot("examiner1", 48*time.Hour)
	second := env.freeSlot("examiner1", 72*time.Hour)

	var sawN int
	env.svc.pick = func(n int) int {
		sawN = n
		return 1
	}

	booked, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sawN)
	assert.Equal(t, second.ID, booked.ID)
}

func TestBookExam_SpreadsAcrossExaminers(t *testing.T) {
	ctx := context.Background()
	env := examEnv()
	env.skills.completed["examiner2"] = []string{"algebra", "examiner"}
	env.skills.completed["examiner3"] = []string{"algebra", "examiner"}
	env.freeSlot("examiner1", 8*24*time.Hour)
	env.freeSlot("examiner2", 8*24*time.Hour+time.Hour)
	env.freeSlot("examiner3", 8*24*time.Hour+2*time.Hour)

	rng := rand.New(rand.NewSource(42))
	env.svc.pick = rng.Intn

	// Бронируем и сразу отменяем: отмена за неделю возвращает всё
	// и освобождает слот для следующей итерации
	const rounds = 300
	counts := make(map[string]int)
	for i := 0; i < rounds; i++ {
		booked, err := env.svc.BookExam(ctx, "student", "algebra", nil, nil)
		require.NoError(t, err)
		counts[booked.UserID]++
		require.NoError(t, env.svc.CancelEvent(ctx, "student", booked.ID))
	}

	// Выбор равномерный, перекоса к одному экзаменатору нет
	require.Len(t, counts, 3)
	for examiner, n := range counts {
		assert.Greater(t, n, rounds/6, examiner)
		assert.Less(t, n, rounds/2, examiner)
	}
}

func TestBookExam_Window(t *testing.T) {
	ctx := context.Background()
	env := examEnv()
	env.freeSlot("examiner1", 48*time.Hour)
	late := env.freeSlot("examiner1", 10*24*time.Hour)

	from := env.now.Add(5 * 24 * time.Hour)
	booked, err := env.svc.BookExam(ctx, "student", "algebra", &from, nil)
	require.NoError(t, err)
	assert.Equal(t, late.ID, booked.ID)
}

func TestGradeExam(t *testing.T) {
	ctx := context.Background()

	t.Run("passed", func(t *testing.T) {
		env := newBookingEnv()
		_ = env.exams.CreateBooked(ctx, &model.BookedExam{
			UserID: "student", SkillID: "algebra", ExaminerID: "examiner1",
			SlotID: "slot1", CreatedAt: env.now,
		})

		require.NoError(t, env.svc.GradeExam(ctx, "examiner1", "student", "algebra", true))

		assert.Contains(t, env.skills.completed["student"], "algebra")
		pending, _ := env.exams.ExistsBooked(ctx, "student", "algebra")
		assert.False(t, pending)
	})

	t.Run("failed", func(t *testing.T) {
		env := newBookingEnv()
		_ = env.exams.CreateBooked(ctx, &model.BookedExam{
			UserID: "student", SkillID: "algebra", ExaminerID: "examiner1",
			SlotID: "slot1", CreatedAt: env.now,
		})

		require.NoError(t, env.svc.GradeExam(ctx, "examiner1", "student", "algebra", false))

		assert.NotContains(t, env.skills.completed["student"], "algebra")
		pending, _ := env.exams.ExistsBooked(ctx, "student", "algebra")
		assert.False(t, pending)
	})

	t.Run("not booked with this examiner", func(t *testing.T) {
		env := newBookingEnv()
		err := env.svc.GradeExam(ctx, "examiner1", "student", "algebra", true)
		assert.ErrorIs(t, err, ErrExamNotFound)
	})
}

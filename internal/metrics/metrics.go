package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики бизнес-операций сервиса событий
var (
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_bookings_total",
		Help: "Количество успешных бронирований по типу события",
	}, []string{"event_type"})

	BookingConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_booking_conflicts_total",
		Help: "Количество проигранных гонок за слот",
	})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_cancellations_total",
		Help: "Количество отмен по уровню возврата",
	}, []string{"refund"})

	CompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_compensations_total",
		Help: "Количество компенсирующих возвратов после частичного сбоя",
	})

	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_sweep_runs_total",
		Help: "Количество проходов фоновой уборки",
	})

	SweepSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_sweep_settled_total",
		Help: "Количество рассчитанных прошедших событий",
	})

	SlotsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_slots_generated_total",
		Help: "Количество слотов, созданных из еженедельных правил",
	})
)

// Уровни возврата для метрики отмен
const (
	RefundFull = "full"
	RefundHalf = "half"
	RefundNone = "none"
)

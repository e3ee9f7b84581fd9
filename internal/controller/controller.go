package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/service"
)

// Controller связывает HTTP-маршруты с бизнес-логикой
type Controller struct {
	providers *service.ProviderService
	bookings  *service.BookingService
	webinars  *service.WebinarService
	calendar  *service.CalendarService
	ratings   *service.RatingService
	logger    *zap.Logger
}

func New(
	providers *service.ProviderService,
	bookings *service.BookingService,
	webinars *service.WebinarService,
	calendar *service.CalendarService,
	ratings *service.RatingService,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		providers: providers,
		bookings:  bookings,
		webinars:  webinars,
		calendar:  calendar,
		ratings:   ratings,
		logger:    logger,
	}
}

// respondError отображает ошибку бизнес-логики в HTTP-статус.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func (ct *Controller) respondError(c echo.Context, err error) error {
	var status int
	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		// Слот ближе суток не предлагается, для клиента его нет
		errors.Is(err, service.ErrSlotTooSoon),
		errors.Is(err, service.ErrCoachingNotFound),
		errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrWebinarNotFound),
		errors.Is(err, service.ErrRatingNotFound),
		errors.Is(err, service.ErrSkillNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, service.ErrExamAlreadyBooked),
		errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrWebinarFull),
		errors.Is(err, service.ErrWebinarStarted):
		status = http.StatusConflict
	case errors.Is(err, service.ErrSelfBooking),
		errors.Is(err, service.ErrExamAlreadyPassed),
		errors.Is(err, service.ErrSkillRequirementsNotMet),
		errors.Is(err, service.ErrCannotStartInPast),
		errors.Is(err, service.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotEnoughCoins):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrCancelTooLate):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUpstream):
		status = http.StatusBadGateway
	default:
		ct.logger.Error("Внутренняя ошибка обработчика",
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(status, echo.Map{"error": err.Error()})
}

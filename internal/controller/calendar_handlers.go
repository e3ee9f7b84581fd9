package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetCalendar возвращает календарь пользователя
func (ct *Controller) GetCalendar(c echo.Context) error {
	events, err := ct.calendar.GetCalendar(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetRating возвращает рейтинг пользователя по навыку, null если
// оценок нет. Доступно самому пользователю и администратору.
func (ct *Controller) GetRating(c echo.Context) error {
	lecturerID := c.Param("user_id")
	if lecturerID != userID(c) && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
	}

	rating, err := ct.ratings.GetRating(c.Request().Context(), lecturerID, c.Param("skill_id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, rating)
}

// ListUnrated возвращает неоценённые вебинары пользователя
func (ct *Controller) ListUnrated(c echo.Context) error {
	unrated, err := ct.ratings.ListUnrated(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, unrated)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// RateLecturer выставляет оценку инструктору за посещённый вебинар
func (ct *Controller) RateLecturer(c echo.Context) error {
	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := ct.ratings.Rate(c.Request().Context(), userID(c), c.Param("id"), req.Rating); err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CancelRating отклоняет приглашение оценить вебинар
func (ct *Controller) CancelRating(c echo.Context) error {
	if err := ct.ratings.CancelRating(c.Request().Context(), userID(c), c.Param("id")); err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

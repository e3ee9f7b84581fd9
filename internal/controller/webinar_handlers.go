package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skillacademy/events-service/internal/repository"
	"github.com/skillacademy/events-service/internal/service"
)

type createWebinarRequest struct {
	SkillID         string    `json:"skill_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	MaxParticipants int       `json:"max_participants"`
	Price           int64     `json:"price"`
}

// CreateWebinar создаёт вебинар
func (ct *Controller) CreateWebinar(c echo.Context) error {
	var req createWebinarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	webinar, err := ct.webinars.CreateWebinar(c.Request().Context(), userID(c),
		req.SkillID, req.Name, req.Description, req.Start, req.End, req.MaxParticipants, req.Price)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, webinar)
}

type updateWebinarRequest struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	MaxParticipants int       `json:"max_participants"`
}

// UpdateWebinar правит вебинар создателя
func (ct *Controller) UpdateWebinar(c echo.Context) error {
	var req updateWebinarRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	webinar, err := ct.webinars.UpdateWebinar(c.Request().Context(), userID(c), c.Param("id"), service.WebinarUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Start:           req.Start,
		End:             req.End,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, webinar)
}

// GetWebinar возвращает вебинар
func (ct *Controller) GetWebinar(c echo.Context) error {
	webinar, err := ct.webinars.GetWebinar(c.Request().Context(), userID(c), isAdmin(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, webinar)
}

// ListWebinars возвращает вебинары по фильтру из query-параметров
func (ct *Controller) ListWebinars(c echo.Context) error {
	filter := repository.WebinarFilter{
		SkillID: c.QueryParam("skill_id"),
		Creator: c.QueryParam("creator"),
	}

	if raw := c.QueryParam("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
		}
		filter.StartFrom = &from
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
		}
		filter.StartTo = &to
	}

	webinars, err := ct.webinars.ListWebinars(c.Request().Context(), userID(c), isAdmin(c), filter)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, webinars)
}

// RegisterForWebinar записывает пользователя на вебинар
func (ct *Controller) RegisterForWebinar(c echo.Context) error {
	err := ct.webinars.Register(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// UnregisterFromWebinar снимает регистрацию на вебинар
func (ct *Controller) UnregisterFromWebinar(c echo.Context) error {
	err := ct.webinars.Unregister(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteWebinar отменяет вебинар
func (ct *Controller) DeleteWebinar(c echo.Context) error {
	err := ct.webinars.DeleteWebinar(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type createSlotRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CreateSlot создаёт разовый слот инструктора
func (ct *Controller) CreateSlot(c echo.Context) error {
	var req createSlotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	slot, err := ct.providers.CreateSlot(c.Request().Context(), userID(c), req.Start, req.End)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, slot)
}

// GetSlots возвращает слоты инструктора
func (ct *Controller) GetSlots(c echo.Context) error {
	slots, err := ct.providers.GetSlots(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, slots)
}

// DeleteSlot удаляет свободный слот
func (ct *Controller) DeleteSlot(c echo.Context) error {
	err := ct.providers.DeleteSlot(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type createWeeklySlotRequest struct {
	Weekday     int `json:"weekday"`
	StartHour   int `json:"start_hour"`
	StartMinute int `json:"start_minute"`
	EndHour     int `json:"end_hour"`
	EndMinute   int `json:"end_minute"`
}

// CreateWeeklySlot создаёт еженедельное правило
func (ct *Controller) CreateWeeklySlot(c echo.Context) error {
	var req createWeeklySlotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ws, err := ct.providers.CreateWeeklySlot(c.Request().Context(), userID(c),
		req.Weekday, req.StartHour, req.StartMinute, req.EndHour, req.EndMinute)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, ws)
}

// GetWeeklySlots возвращает правила инструктора
func (ct *Controller) GetWeeklySlots(c echo.Context) error {
	rules, err := ct.providers.GetWeeklySlots(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, rules)
}

// DeleteWeeklySlot удаляет правило
func (ct *Controller) DeleteWeeklySlot(c echo.Context) error {
	err := ct.providers.DeleteWeeklySlot(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type upsertCoachingRequest struct {
	SkillID string `json:"skill_id"`
	Price   int64  `json:"price"`
}

// UpsertCoaching создаёт или обновляет предложение коучинга
func (ct *Controller) UpsertCoaching(c echo.Context) error {
	var req upsertCoachingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	coaching, err := ct.providers.UpsertCoaching(c.Request().Context(), userID(c), req.SkillID, req.Price)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, coaching)
}

// GetCoachings возвращает предложения коучинга инструктора
func (ct *Controller) GetCoachings(c echo.Context) error {
	coachings, err := ct.providers.GetCoachings(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, coachings)
}

// DeleteCoaching удаляет предложение коучинга
func (ct *Controller) DeleteCoaching(c echo.Context) error {
	err := ct.providers.DeleteCoaching(c.Request().Context(), userID(c), c.Param("skill_id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type upsertExamRequest struct {
	SkillID string `json:"skill_id"`
}

// UpsertExam регистрирует экзаменатора по навыку
func (ct *Controller) UpsertExam(c echo.Context) error {
	var req upsertExamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	exam, err := ct.providers.UpsertExam(c.Request().Context(), userID(c), req.SkillID)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, exam)
}

// GetExams возвращает навыки, которые принимает экзаменатор
func (ct *Controller) GetExams(c echo.Context) error {
	exams, err := ct.providers.GetExams(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, exams)
}

// DeleteExam снимает регистрацию экзаменатора
func (ct *Controller) DeleteExam(c echo.Context) error {
	err := ct.providers.DeleteExam(c.Request().Context(), userID(c), c.Param("skill_id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

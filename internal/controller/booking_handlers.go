package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type bookCoachingRequest struct {
	SlotID  string `json:"slot_id"`
	SkillID string `json:"skill_id"`
}

// BookCoaching бронирует коучинг-слот
func (ct *Controller) BookCoaching(c echo.Context) error {
	var req bookCoachingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	slot, err := ct.bookings.BookCoaching(c.Request().Context(), userID(c), req.SlotID, req.SkillID)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, slot)
}

type bookExamRequest struct {
	SkillID string     `json:"skill_id"`
	From    *time.Time `json:"from"`
	To      *time.Time `json:"to"`
}

// BookExam записывает студента на экзамен
func (ct *Controller) BookExam(c echo.Context) error {
	var req bookExamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	slot, err := ct.bookings.BookExam(c.Request().Context(), userID(c), req.SkillID, req.From, req.To)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, slot)
}

// CancelEvent отменяет занятый слот
func (ct *Controller) CancelEvent(c echo.Context) error {
	err := ct.bookings.CancelEvent(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetPendingExams возвращает непроверенные экзамены экзаменатора
func (ct *Controller) GetPendingExams(c echo.Context) error {
	exams, err := ct.bookings.GetPendingExams(c.Request().Context(), userID(c))
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.JSON(http.StatusOK, exams)
}

type gradeExamRequest struct {
	StudentID string `json:"student_id"`
	SkillID   string `json:"skill_id"`
	Passed    bool   `json:"passed"`
}

// GradeExam выставляет оценку за экзамен
func (ct *Controller) GradeExam(c echo.Context) error {
	var req gradeExamRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	err := ct.bookings.GradeExam(c.Request().Context(), userID(c), req.StudentID, req.SkillID, req.Passed)
	if err != nil {
		return ct.respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

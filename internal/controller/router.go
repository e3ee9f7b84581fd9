package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает echo-приложение со всеми маршрутами.
// Все /v1-маршруты требуют валидный токен и подтверждённую почту.
func NewRouter(ct *Controller, jwtSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.Use(JWTAuth(jwtSecret))
	v1.Use(RequireVerifiedEmail())

	// Слоты и еженедельные правила инструктора
	v1.POST("/slots", ct.CreateSlot)
	v1.GET("/slots", ct.GetSlots)
	v1.DELETE("/slots/:id", ct.DeleteSlot)
	v1.POST("/weekly-slots", ct.CreateWeeklySlot)
	v1.GET("/weekly-slots", ct.GetWeeklySlots)
	v1.DELETE("/weekly-slots/:id", ct.DeleteWeeklySlot)

	// Предложения коучинга и приёма экзаменов
	v1.PUT("/coachings", ct.UpsertCoaching)
	v1.GET("/coachings", ct.GetCoachings)
	v1.DELETE("/coachings/:skill_id", ct.DeleteCoaching)
	v1.PUT("/exams", ct.UpsertExam)
	v1.GET("/exams", ct.GetExams)
	v1.DELETE("/exams/:skill_id", ct.DeleteExam)

	// Бронирование и отмена
	v1.POST("/bookings/coaching", ct.BookCoaching)
	v1.POST("/bookings/exam", ct.BookExam)
	v1.DELETE("/events/:id", ct.CancelEvent)

	// Проверка экзаменов
	v1.GET("/exams/pending", ct.GetPendingExams)
	v1.POST("/exams/grade", ct.GradeExam)

	// Вебинары
	v1.POST("/webinars", ct.CreateWebinar)
	v1.GET("/webinars", ct.ListWebinars)
	v1.GET("/webinars/:id", ct.GetWebinar)
	v1.PUT("/webinars/:id", ct.UpdateWebinar)
	v1.POST("/webinars/:id/register", ct.RegisterForWebinar)
	v1.DELETE("/webinars/:id/register", ct.UnregisterFromWebinar)
	v1.DELETE("/webinars/:id", ct.DeleteWebinar)

	// Оценки инструкторов
	v1.GET("/ratings/:user_id/:skill_id", ct.GetRating)
	v1.GET("/unrated", ct.ListUnrated)
	v1.POST("/rate/:id", ct.RateLecturer)
	v1.DELETE("/rate/:id", ct.CancelRating)

	// Календарь
	v1.GET("/calendar", ct.GetCalendar)

	return e
}

package service

import "errors"

// Ошибки бизнес-логики. Контроллеры отображают их в HTTP-статусы,
// всё остальное считается внутренней ошибкой.
var (
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotConflict возвращается при проигранной гонке за слот
	// или попытке занять уже занятый слот
	ErrSlotConflict = errors.New("slot is not available")

	// ErrSelfBooking возвращается при попытке забронировать собственный слот
	ErrSelfBooking = errors.New("cannot book own slot")

	// ErrSlotTooSoon возвращается, когда до начала слота меньше суток
	ErrSlotTooSoon = errors.New("slot starts too soon")

	// ErrCancelTooLate возвращается при отмене менее чем за сутки до начала
	ErrCancelTooLate = errors.New("too late to cancel")

	ErrCoachingNotFound = errors.New("coaching offering not found")
	ErrExamNotFound     = errors.New("exam not found")

	ErrExamAlreadyBooked = errors.New("exam already booked")
	ErrExamAlreadyPassed = errors.New("exam already passed")

	ErrSkillNotFound           = errors.New("skill not found")
	ErrSkillRequirementsNotMet = errors.New("skill requirements not met")

	ErrNotEnoughCoins   = errors.New("not enough coins")
	ErrPermissionDenied = errors.New("permission denied")

	ErrWebinarNotFound   = errors.New("webinar not found")
	ErrRatingNotFound    = errors.New("rating not found")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrWebinarFull       = errors.New("webinar is full")
	ErrWebinarStarted    = errors.New("webinar already started")

	ErrCannotStartInPast = errors.New("event cannot start in the past")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrUpstream возвращается при недоступности внешнего сервиса
	ErrUpstream = errors.New("upstream service error")
)

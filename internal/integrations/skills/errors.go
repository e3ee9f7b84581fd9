package skills

import "errors"

var (
	// ErrSkillNotFound возвращается, когда навык не существует
	ErrSkillNotFound = errors.New("skill not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("skills client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе сервиса
	ErrInvalidResponse = errors.New("skills client: invalid response")

	// ErrUnavailable возвращается, когда сервис навыков недоступен
	ErrUnavailable = errors.New("skills service unavailable")
)

package identity

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь не существует
	ErrUserNotFound = errors.New("user not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("identity client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе сервиса
	ErrInvalidResponse = errors.New("identity client: invalid response")

	// ErrUnavailable возвращается, когда сервис идентификации недоступен
	ErrUnavailable = errors.New("identity service unavailable")
)

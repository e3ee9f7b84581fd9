package wallet

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("wallet client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе сервиса
	ErrInvalidResponse = errors.New("wallet client: invalid response")

	// ErrUnavailable возвращается, когда кошельковый сервис недоступен
	ErrUnavailable = errors.New("wallet service unavailable")
)

package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client клиент кошелькового сервиса
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type changeCoinsRequest struct {
	Coins       int64  `json:"coins"`
	Description string `json:"description,omitempty"`
	CreditNote  bool   `json:"credit_note"`
}

// changeCoins изменяет баланс пользователя на amount (может быть
// отрицательным) с назначением платежа. Возвращает false, если средств
// недостаточно.
func (c *Client) changeCoins(ctx context.Context, userID string, amount int64, description string, creditNote bool) (bool, error) {
	url := fmt.Sprintf("%s/coins/%s", c.baseURL, userID)

	body, err := json.Marshal(changeCoinsRequest{Coins: amount, Description: description, CreditNote: creditNote})
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Кошельковый сервис недоступен",
			zap.String("user_id", userID),
			zap.Error(err))
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusPreconditionFailed:
		// Недостаточно монет
		return false, nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("%w: unexpected status code %d: %s",
			ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}

// AddCoins начисляет пользователю монеты. creditNote помечает выплату
// дохода (доля инструктора), отличая её от возврата оплаты.
func (c *Client) AddCoins(ctx context.Context, userID string, amount int64, description string, creditNote bool) error {
	if amount == 0 {
		return nil
	}

	ok, err := c.changeCoins(ctx, userID, amount, description, creditNote)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: credit rejected for user %s", ErrInvalidResponse, userID)
	}

	return nil
}

// SpendCoins списывает монеты. Возвращает false, если средств недостаточно.
func (c *Client) SpendCoins(ctx context.Context, userID string, amount int64, description string) (bool, error) {
	if amount == 0 {
		return true, nil
	}

	return c.changeCoins(ctx, userID, -amount, description, false)
}

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/skillacademy/events-service/internal/model"
)

// Client клиент сервиса идентификации
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

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Сервис идентификации недоступен", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s",
			ErrInvalidResponse, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}

type userRoles struct {
	Admin bool `json:"admin"`
}

// IsAdmin проверяет, есть ли у пользователя роль администратора
func (c *Client) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var roles userRoles
	err := c.get(ctx, fmt.Sprintf("/users/%s/roles", url.PathEscape(userID)), &roles)
	if err != nil {
		if err == ErrUserNotFound {
			return false, nil
		}
		return false, err
	}

	return roles.Admin, nil
}

// GetPublicProfile получает публичный профиль пользователя.
// Возвращает ErrUserNotFound, если пользователь не существует.
func (c *Client) GetPublicProfile(ctx context.Context, userID string) (*model.PublicProfile, error) {
	var profile model.PublicProfile
	if err := c.get(ctx, fmt.Sprintf("/users/%s/profile", url.PathEscape(userID)), &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client клиент сервиса навыков
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
		c.logger.Error("Сервис навыков недоступен", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrSkillNotFound
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

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Сервис навыков недоступен", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s",
			ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	return nil
}

// GetCompletedSkills получает список освоенных пользователем навыков
func (c *Client) GetCompletedSkills(ctx context.Context, userID string) ([]string, error) {
	var out []string
	if err := c.get(ctx, fmt.Sprintf("/users/%s/skills/completed", url.PathEscape(userID)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSkillDependencies получает навыки, необходимые для изучения данного.
// Возвращает ErrSkillNotFound, если навык не существует.
func (c *Client) GetSkillDependencies(ctx context.Context, skillID string) ([]string, error) {
	var out []string
	if err := c.get(ctx, fmt.Sprintf("/skills/%s/dependencies", url.PathEscape(skillID)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLecturers получает пользователей, освоивших все перечисленные навыки
func (c *Client) GetLecturers(ctx context.Context, skillIDs []string) ([]string, error) {
	query := url.Values{"skill": skillIDs}
	var out []string
	if err := c.get(ctx, "/lecturers?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type addXPRequest struct {
	SkillID string `json:"skill_id"`
	Amount  int64  `json:"amount"`
}

// AddXP начисляет пользователю опыт по навыку состоявшегося события
func (c *Client) AddXP(ctx context.Context, userID, skillID string, amount int64) error {
	if amount == 0 {
		return nil
	}

	return c.post(ctx, fmt.Sprintf("/users/%s/xp", url.PathEscape(userID)), addXPRequest{SkillID: skillID, Amount: amount})
}

type completeSkillRequest struct {
	SkillID string `json:"skill_id"`
}

// CompleteSkill отмечает навык освоенным после сданного экзамена
func (c *Client) CompleteSkill(ctx context.Context, userID, skillID string) error {
	return c.post(
		ctx,
		fmt.Sprintf("/users/%s/skills/completed", url.PathEscape(userID)),
		completeSkillRequest{SkillID: skillID},
	)
}

// HasAll проверяет, покрывает ли completed все требуемые навыки
func HasAll(completed, required []string) bool {
	set := make(map[string]struct{}, len(completed))
	for _, s := range completed {
		set[strings.TrimSpace(s)] = struct{}{}
	}
	for _, s := range required {
		if _, ok := set[strings.TrimSpace(s)]; !ok {
			return false
		}
	}
	return true
}

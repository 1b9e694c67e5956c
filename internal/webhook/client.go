// Package webhook talks to the Apps Script deployment that sends troop email
// and edits the troop calendar.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"troop-backend/internal/domain"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
)

var ErrNotConfigured = errors.New("webhook URL is not configured")

const maxErrorBody = 2048

type Client struct {
	url        string
	token      string
	httpClient *http.Client
}

func NewClient(url, token string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies this delivery path in EmailQueueResult.
func (c *Client) Name() string { return "webhook" }

type emailPayload struct {
	Rows []domain.EmailRow `json:"rows"`
}

// Deliver posts the rows for the script to queue. The caller's ID token goes
// along as the bearer; a request without a principal is refused before any
// network call.
func (c *Client) Deliver(ctx context.Context, rows []domain.EmailRow) error {
	_, err := c.post(ctx, "email", emailPayload{Rows: rows})
	return err
}

func (c *Client) post(ctx context.Context, op string, payload any) ([]byte, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	principal, ok := identity.PrincipalFromContext(ctx)
	if !ok {
		return nil, identity.ErrNoSession
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if principal.IDToken != "" {
		req.Header.Set("Authorization", "Bearer "+principal.IDToken)
	}
	if c.token != "" {
		req.Header.Set("X-Webhook-Token", c.token)
	}

	logger.ExternalServiceCall("webhook", op, "bytes", len(data), "uid", principal.UID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("webhook", op, err)
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		err := fmt.Errorf("webhook returned %d: %s", resp.StatusCode, text)
		logger.ExternalServiceResult("webhook", op, err)
		return nil, err
	}
	logger.ExternalServiceResult("webhook", op, nil, "status", resp.StatusCode)
	return body, nil
}

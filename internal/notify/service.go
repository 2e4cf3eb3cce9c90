package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Service relays transactional email to the mail provider's send endpoint.
type Service struct {
	httpClient *http.Client
	endpoint   string
}

// NewService creates a mail relay service.
func NewService() *Service {
	return &Service{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   "https://api.mailchannels.net/tx/v1/send",
	}
}

// Send relays the email. Any non-2xx provider answer is an error.
func (s *Service) Send(ctx context.Context, email *Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider answered %d", resp.StatusCode)
	}

	return nil
}

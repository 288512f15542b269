package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SMSConfig holds SMS gateway credentials.
type SMSConfig struct {
	BaseURL  string
	APIToken string
	SenderID string
	Timeout  time.Duration
}

// SMSService sends text messages through a JSON HTTP SMS gateway.
type SMSService struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSService constructs an SMSService.
func NewSMSService(cfg SMSConfig) *SMSService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExternalTimeout
	}
	return &SMSService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type smsRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send delivers message to the phone number.
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	if s.cfg.BaseURL == "" {
		return errors.New("sms gateway is not configured")
	}

	payload, err := json.Marshal(smsRequest{From: s.cfg.SenderID, To: phone, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sms request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/apperr"
)

// ChapaConfig configures the Chapa gateway client.
type ChapaConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// ChapaService talks to the Chapa payment API.
type ChapaService struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewChapaService creates a new ChapaService.
func NewChapaService(cfg ChapaConfig) *ChapaService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExternalTimeout
	}
	return &ChapaService{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

type chapaInitRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
}

type chapaInitResponse struct {
	Message json.RawMessage `json:"message"`
	Status  string          `json:"status"`
	Data    *struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type chapaVerifyResponse struct {
	Message json.RawMessage `json:"message"`
	Status  string          `json:"status"`
	Data    *struct {
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
		Email     string          `json:"email"`
		Currency  string          `json:"currency"`
		Amount    decimal.Decimal `json:"amount"`
		Charge    decimal.Decimal `json:"charge"`
		Mode      string          `json:"mode"`
		Method    string          `json:"method"`
		Type      string          `json:"type"`
		Status    string          `json:"status"`
		Reference string          `json:"reference"`
		TxRef     string          `json:"tx_ref"`
	} `json:"data"`
}

// Initialize creates a checkout for the transaction.
func (s *ChapaService) Initialize(ctx context.Context, req GatewayInitRequest) (*GatewayInitResult, error) {
	body, err := json.Marshal(chapaInitRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	raw, status, err := s.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGateway, err)
	}

	var resp chapaInitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.WithPayload(apperr.ErrGateway, string(raw), fmt.Errorf("decode initialize response: %w", err))
	}
	if status < 200 || status >= 300 || resp.Status != "success" || resp.Data == nil {
		return nil, apperr.WithPayload(apperr.ErrGateway, json.RawMessage(raw), fmt.Errorf("chapa initialize returned status %d", status))
	}

	return &GatewayInitResult{
		TxRef:       req.TxRef,
		CheckoutURL: resp.Data.CheckoutURL,
	}, nil
}

// Verify reads the settlement state of txRef.
func (s *ChapaService) Verify(ctx context.Context, txRef string) (*GatewayVerification, error) {
	raw, status, err := s.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(txRef), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGateway, err)
	}

	if status >= 500 {
		return nil, apperr.WithPayload(apperr.ErrGateway, string(raw), fmt.Errorf("chapa verify returned status %d", status))
	}
	// Chapa answers 400 with status "failed" for unpaid or unknown
	// references; any 4xx is not settled, whatever the body.
	if status >= 400 {
		slog.Info("payment not settled", "tx_ref", txRef, "http_status", status)
		return &GatewayVerification{TxRef: txRef, Status: "failed"}, nil
	}

	var resp chapaVerifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.WithPayload(apperr.ErrGateway, string(raw), fmt.Errorf("decode verify response: %w", err))
	}
	if status < 200 || status >= 300 || resp.Status != "success" || resp.Data == nil || resp.Data.Status != "success" {
		slog.Info("payment not settled", "tx_ref", txRef, "http_status", status)
		return &GatewayVerification{TxRef: txRef, Status: "failed"}, nil
	}

	d := resp.Data
	if d.TxRef == "" {
		d.TxRef = txRef
	}
	return &GatewayVerification{
		Status:    d.Status,
		TxRef:     d.TxRef,
		Reference: d.Reference,
		Amount:    d.Amount,
		Charge:    d.Charge,
		Currency:  d.Currency,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Method:    d.Method,
		Mode:      d.Mode,
		Type:      d.Type,
	}, nil
}

func (s *ChapaService) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("chapa request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read chapa response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

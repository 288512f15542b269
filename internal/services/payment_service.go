package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// GatewayInitRequest is sent to the payment gateway to open a checkout.
type GatewayInitRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	TxRef       string
	CallbackURL string
}

// GatewayInitResult is the checkout opened by the gateway.
type GatewayInitResult struct {
	TxRef       string `json:"tx_ref"`
	CheckoutURL string `json:"checkout_url"`
}

// GatewayVerification is the settlement reported by the gateway. Only
// Status "success" counts as settled.
type GatewayVerification struct {
	Status    string
	TxRef     string
	Reference string
	Amount    decimal.Decimal
	Charge    decimal.Decimal
	Currency  string
	Email     string
	FirstName string
	LastName  string
	Method    string
	Mode      string
	Type      string
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	Initialize(ctx context.Context, req GatewayInitRequest) (*GatewayInitResult, error)
	Verify(ctx context.Context, txRef string) (*GatewayVerification, error)
}

// PaymentService opens checkouts and reconciles gateway settlements into
// payment rows.
type PaymentService struct {
	db           *gorm.DB
	gateway      PaymentGateway
	orders       *OrderService
	currency     string
	callbackBase string
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, orders *OrderService, currency, baseURL string) *PaymentService {
	return &PaymentService{
		db:           db,
		gateway:      gateway,
		orders:       orders,
		currency:     currency,
		callbackBase: strings.TrimRight(baseURL, "/"),
	}
}

// InitializeInput is a checkout request.
type InitializeInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Email     string          `json:"email" validate:"required,email"`
	FirstName string          `json:"first_name" validate:"required"`
	LastName  string          `json:"last_name"`
	TxRef     string          `json:"tx_ref" validate:"required,max=100"`
	OrderID   *uuid.UUID      `json:"order_id"`
}

// Initialize opens a checkout. When OrderID is set the order must belong
// to accountID, its total must equal Amount, and it is linked to TxRef.
func (s *PaymentService) Initialize(ctx context.Context, accountID uuid.UUID, in InitializeInput) (*GatewayInitResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.WithMessage(apperr.ErrInvalidPayment, "Amount must be greater than zero")
	}

	if in.OrderID != nil {
		order, err := s.orders.findOrder(ctx, *in.OrderID)
		if err != nil {
			return nil, err
		}
		if order.AccountID != accountID {
			return nil, apperr.ErrOrderNotFound
		}
		if !order.TotalAmount.Equal(in.Amount) {
			return nil, apperr.WithMessage(apperr.ErrInvalidPayment, "Amount does not match the order total")
		}
		if _, err := s.orders.AttachPayment(ctx, accountID, order.ID, in.TxRef); err != nil {
			return nil, err
		}
	}

	result, err := s.gateway.Initialize(ctx, GatewayInitRequest{
		Amount:      in.Amount,
		Currency:    s.currency,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		TxRef:       in.TxRef,
		CallbackURL: s.callbackBase + "/api/payments/verify/" + in.TxRef,
	})
	if err != nil {
		slog.Error("payment initialize failed", "tx_ref", in.TxRef, "error", err)
		return nil, err
	}

	slog.Info("payment initialized", "tx_ref", in.TxRef)
	return result, nil
}

// Verify asks the gateway whether txRef settled. A nil payment with a nil
// error means not settled yet. Settled results are upserted by tx_ref, so
// repeated calls converge on one row.
func (s *PaymentService) Verify(ctx context.Context, txRef string) (*models.Payment, error) {
	if strings.TrimSpace(txRef) == "" {
		return nil, apperr.WithMessage(apperr.ErrInvalidPayment, "tx_ref is required")
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Status != "success" {
		return nil, nil
	}

	payment := models.Payment{
		TxRef:     result.TxRef,
		Reference: result.Reference,
		Status:    result.Status,
		Amount:    result.Amount,
		Charge:    result.Charge,
		Currency:  result.Currency,
		Email:     result.Email,
		FirstName: result.FirstName,
		LastName:  result.LastName,
		Method:    result.Method,
		Mode:      result.Mode,
		Type:      result.Type,
	}
	payment.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tx_ref"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reference", "status", "amount", "charge", "currency", "email",
			"first_name", "last_name", "method", "mode", "type", "updated_at",
		}),
	}).Create(&payment).Error
	if err != nil {
		return nil, err
	}

	var stored models.Payment
	if err := s.db.WithContext(ctx).Where("tx_ref = ?", payment.TxRef).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrInvalidPayment
		}
		return nil, err
	}

	if s.orders != nil {
		if _, err := s.orders.SettlePayment(ctx, stored.TxRef); err != nil {
			slog.Error("order settlement failed", "tx_ref", stored.TxRef, "error", err)
		}
	}

	return &stored, nil
}

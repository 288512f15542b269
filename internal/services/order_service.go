package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// OrderAlerter posts back-office alerts for placed and paid orders.
type OrderAlerter interface {
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
	NotifyPaymentSettled(ctx context.Context, txRef string, amount decimal.Decimal, currency string) error
}

// OrderService places orders and moves them through their lifecycle.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
	alerts   OrderAlerter
	currency string
}

// NewOrderService constructs an OrderService. alerts may be nil.
func NewOrderService(db *gorm.DB, notifier Notifier, alerts OrderAlerter, currency string) *OrderService {
	return &OrderService{db: db, notifier: notifier, alerts: alerts, currency: currency}
}

// OrderItemInput is one requested line.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// PlaceOrder checks stock, reserves it and records the order with price
// snapshots. All stock decrements and the order insert commit together or
// not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, accountID uuid.UUID, items []OrderItemInput, shippingAddress string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperr.ErrEmptyOrder
	}
	for i := range items {
		if items[i].Quantity == 0 {
			items[i].Quantity = 1
		}
		if items[i].Quantity < 0 {
			return nil, apperr.ErrInvalidQuantity
		}
	}

	order := &models.Order{
		AccountID:       accountID,
		ShippingAddress: strings.TrimSpace(shippingAddress),
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderPending,
		TotalAmount:     decimal.Zero,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.WithMessage(apperr.ErrProductNotFound, fmt.Sprintf("Product not found: %s", item.ProductID))
				}
				return err
			}

			if product.Stock < item.Quantity {
				return insufficientStock(product)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return insufficientStock(product)
			}

			line := models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			}
			order.Items = append(order.Items, line)
			order.TotalAmount = order.TotalAmount.Add(line.LineTotal())
		}

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}

	slog.Info("order placed", "order_id", order.ID, "account_id", accountID, "total", order.TotalAmount.String())
	s.alertNewOrder(ctx, order)
	return order, nil
}

func insufficientStock(product models.Product) error {
	return apperr.WithMessage(apperr.ErrInsufficientStock, fmt.Sprintf("Insufficient stock for product: %s", product.Name))
}

// UpdateStatus moves an order to status. The owner is notified on a best
// effort basis.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(models.CapManageOrders) {
		return nil, apperr.ErrForbidden
	}
	if order.OrderStatus == status {
		return nil, apperr.WithMessage(apperr.ErrNoOpTransition, fmt.Sprintf("Order is already %s", status))
	}
	if !status.Valid() {
		return nil, apperr.WithMessage(apperr.ErrInvalidStatus, fmt.Sprintf("Invalid order status: %s", status))
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status = ?", order.ID, order.OrderStatus).
		Update("order_status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.WithMessage(apperr.ErrNoOpTransition, "Order status changed concurrently")
	}
	order.OrderStatus = status

	s.notifyOwner(ctx, order, fmt.Sprintf("Your order status has been updated to: %s", status))
	return order, nil
}

// OrdersForAccount lists the account's orders, newest first.
func (s *OrderService) OrdersForAccount(ctx context.Context, accountID uuid.UUID, p utils.Pagination) ([]models.Order, int64, error) {
	return s.listOrders(s.db.WithContext(ctx).Where("account_id = ?", accountID), p)
}

// AllOrders lists every order, newest first.
func (s *OrderService) AllOrders(ctx context.Context, actor models.Actor, p utils.Pagination) ([]models.Order, int64, error) {
	if !actor.Can(models.CapViewAllOrders) {
		return nil, 0, apperr.ErrForbidden
	}
	return s.listOrders(s.db.WithContext(ctx), p)
}

func (s *OrderService) listOrders(query *gorm.DB, p utils.Pagination) ([]models.Order, int64, error) {
	query = query.Model(&models.Order{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at desc").
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// AttachPayment links a pending order owned by accountID to txRef. An
// order keeps the first tx_ref it is linked to: a checkout under another
// reference fails with ErrPaymentLinked, so settling the first one still
// finds the order.
func (s *OrderService) AttachPayment(ctx context.Context, accountID, orderID uuid.UUID, txRef string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AccountID != accountID {
		return nil, apperr.ErrOrderNotFound
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil, apperr.WithMessage(apperr.ErrAlreadyInState, "Order is already paid")
	}
	if order.TxRef != nil {
		if *order.TxRef == txRef {
			return order, nil
		}
		return nil, apperr.ErrPaymentLinked
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ? AND tx_ref IS NULL", order.ID, models.PaymentPaid).
		Update("tx_ref", txRef)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperr.ErrPaymentLinked
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with another checkout or a settlement
		current, err := s.findOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		switch {
		case current.PaymentStatus == models.PaymentPaid:
			return nil, apperr.WithMessage(apperr.ErrAlreadyInState, "Order is already paid")
		case current.TxRef != nil && *current.TxRef == txRef:
			return current, nil
		default:
			return nil, apperr.ErrPaymentLinked
		}
	}

	order.TxRef = &txRef
	return order, nil
}

// SettlePayment marks the order linked to txRef as paid. It reports
// whether this call did the transition; later calls for the same txRef
// change nothing and notify nobody.
func (s *OrderService) SettlePayment(ctx context.Context, txRef string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("tx_ref = ? AND payment_status <> ?", txRef, models.PaymentPaid).
		Update("payment_status", models.PaymentPaid)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Where("tx_ref = ?", txRef).First(&order).Error; err != nil {
		return true, err
	}

	slog.Info("order paid", "order_id", order.ID, "tx_ref", txRef)
	s.notifyOwner(ctx, &order, fmt.Sprintf("Payment received for order %s. Thank you!", order.ID))
	if s.alerts != nil {
		if err := s.alerts.NotifyPaymentSettled(ctx, txRef, order.TotalAmount, s.currency); err != nil {
			slog.Warn("payment alert failed", "order_id", order.ID, "error", err)
		}
	}
	return true, nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderService) notifyOwner(ctx context.Context, order *models.Order, message string) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", order.AccountID).Error; err != nil {
		slog.Warn("order owner lookup failed", "order_id", order.ID, "error", err)
		return
	}
	if err := s.notifier.Send(ctx, account.ContactAddress(), message); err != nil {
		slog.Warn("order notification failed", "order_id", order.ID, "error", err)
	}
}

func (s *OrderService) alertNewOrder(ctx context.Context, order *models.Order) {
	if s.alerts == nil {
		return
	}

	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", order.AccountID).Error; err != nil {
		slog.Warn("order alert skipped", "order_id", order.ID, "error", err)
		return
	}

	alert := OrderNotification{
		OrderID:         order.ID.String(),
		CustomerName:    account.Name,
		CustomerContact: account.ContactAddress(),
		ShippingAddress: order.ShippingAddress,
		TotalAmount:     order.TotalAmount,
		Currency:        s.currency,
	}
	for _, item := range order.Items {
		alert.Items = append(alert.Items, OrderItemNotification{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.alerts.NotifyNewOrder(ctx, alert); err != nil {
		slog.Warn("order alert failed", "order_id", order.ID, "error", err)
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Items           []services.OrderItemInput `json:"items" validate:"dive"`
	ShippingAddress string                    `json:"shipping_address"`
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// CreateOrder allows authenticated customers to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req createOrderRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	order, err := h.orders.PlaceOrder(c.UserContext(), actor.ID, req.Items, req.ShippingAddress)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Order placed successfully", order)
}

// MyOrders lists the caller's orders.
func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	p := utils.ParsePagination(c)
	orders, total, err := h.orders.OrdersForAccount(c.UserContext(), actor.ID, p)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", paged(orders, total, p))
}

// ListOrders lists all orders for staff.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	p := utils.ParsePagination(c)
	orders, total, err := h.orders.AllOrders(c.UserContext(), actor, p)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", paged(orders, total, p))
}

// UpdateStatus changes the fulfilment status of an order.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Order status updated successfully", order)
}

func paged(items any, total int64, p utils.Pagination) fiber.Map {
	return fiber.Map{
		"items": items,
		"pagination": fiber.Map{
			"page":  p.Page,
			"limit": p.Limit,
			"total": total,
		},
	}
}

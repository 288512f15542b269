package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves catalog endpoints.
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type reviewProductRequest struct {
	Status models.ProductStatus `json:"status" validate:"required,oneof=approved rejected"`
}

type updateStockRequest struct {
	Stock *int `json:"stock" validate:"required"`
}

// ListProducts returns approved products. Reviewers see every product and
// may filter by ?status=.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	viewer, _ := middleware.CurrentActor(c)
	p := utils.ParsePagination(c)
	products, total, err := h.products.List(c.UserContext(), viewer, models.ProductStatus(c.Query("status")), p)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", paged(products, total, p))
}

// GetProduct returns one product.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	viewer, _ := middleware.CurrentActor(c)
	product, err := h.products.Visible(c.UserContext(), viewer, id)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", product)
}

// CreateProduct adds a product to the catalog.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req services.ProductInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.products.CreateProduct(c.UserContext(), actor, req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Product created successfully", product)
}

// ReviewProduct approves or rejects a product.
func (h *ProductHandler) ReviewProduct(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req reviewProductRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	product, err := h.products.ReviewProduct(c.UserContext(), actor, id, req.Status)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Product "+string(product.Status), product)
}

// UpdateStock sets a product's stock level.
func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateStockRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	product, err := h.products.UpdateStock(c.UserContext(), actor, id, *req.Stock)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Stock updated successfully", product)
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Auth     *services.AuthService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Products *services.ProductService
	Cache    handlers.Pinger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, svc Services) {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	staffHandler := handlers.NewStaffHandler(svc.Auth)
	productHandler := handlers.NewProductHandler(svc.Products)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	healthHandler := handlers.NewHealthHandler(db, svc.Cache)

	authed := middleware.AuthMiddleware(cfg.JWTSecret, svc.Auth)
	viewer := middleware.OptionalAuth(cfg.JWTSecret, svc.Auth)
	can := middleware.RequireCapability

	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")

	// Customer auth routes
	customers := api.Group("/customers")
	customers.Post("/register", authHandler.Register)
	customers.Post("/verify", authHandler.Verify)
	customers.Post("/login", authHandler.Login)
	customers.Post("/login/verify", authHandler.VerifyLogin)
	customers.Post("/2fa/enable", authed, authHandler.EnableTwoFactor)
	customers.Post("/2fa/verify", authed, authHandler.VerifyTwoFactor)
	customers.Post("/2fa/disable", authed, authHandler.DisableTwoFactor)
	customers.Post("/password/forgot", authHandler.ForgotPassword)
	customers.Post("/password/reset", authHandler.ResetPassword)
	customers.Get("/me", authed, authHandler.Me)

	// Back office
	staff := api.Group("/staff")
	staff.Post("/login", staffHandler.Login)
	staff.Post("/login/verify", staffHandler.VerifyLogin)
	staff.Post("/", authed, can(models.CapManageAccounts), staffHandler.CreateStaff)

	api.Put("/accounts/:id/active", authed, can(models.CapManageAccounts), staffHandler.SetActive)

	// Products
	products := api.Group("/products")
	products.Get("/", viewer, productHandler.ListProducts)
	products.Get("/:id", viewer, productHandler.GetProduct)
	products.Post("/", authed, can(models.CapCreateProducts), productHandler.CreateProduct)
	products.Put("/:id/review", authed, can(models.CapReviewProducts), productHandler.ReviewProduct)
	products.Put("/:id/stock", authed, can(models.CapManageStock), productHandler.UpdateStock)

	// Orders
	orders := api.Group("/orders")
	orders.Post("/", authed, orderHandler.CreateOrder)
	orders.Get("/me", authed, orderHandler.MyOrders)
	orders.Get("/", authed, can(models.CapViewAllOrders), orderHandler.ListOrders)
	orders.Put("/:id/status", authed, orderHandler.UpdateStatus)

	// Payments
	payments := api.Group("/payments")
	payments.Post("/initialize", authed, paymentHandler.Initialize)
	payments.Get("/verify/:txRef", paymentHandler.Verify)
}

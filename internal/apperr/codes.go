package apperr

// Accounts and credentials.
var (
	ErrInvalidCredentials = New(KindValidation, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrAccountExists      = New(KindConflict, "ACCOUNT_EXISTS", "Account already exists")
	ErrAccountNotFound    = New(KindNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	ErrAccountInactive    = New(KindAuthorization, "ACCOUNT_INACTIVE", "Account is deactivated")
	ErrAccountUnverified  = New(KindValidation, "ACCOUNT_UNVERIFIED", "Please verify your account first")
	ErrAlreadyVerified    = New(KindConflict, "ALREADY_VERIFIED", "Account already verified")
	ErrAlreadyInState     = New(KindConflict, "ALREADY_IN_STATE", "Already in requested state")
	ErrForbidden          = New(KindAuthorization, "FORBIDDEN", "You are not authorized to perform this action")
	ErrWeakPassword       = New(KindValidation, "WEAK_PASSWORD", "Password must be at least 6 characters")
)

// One-time passcodes.
var (
	ErrCodeExpiredOrMissing = New(KindInvalidSecret, "OTP_EXPIRED", "OTP expired or not found")
	ErrCodeMismatch         = New(KindInvalidSecret, "OTP_MISMATCH", "Invalid OTP")
	ErrNotificationFailed   = New(KindUpstream, "NOTIFICATION_FAILED", "Failed to send notification. Please try again.")
)

// Catalog and orders.
var (
	ErrEmptyOrder        = New(KindValidation, "EMPTY_ORDER", "No items in the order")
	ErrInvalidQuantity   = New(KindValidation, "INVALID_QUANTITY", "Quantity must be positive")
	ErrProductNotFound   = New(KindNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	ErrInsufficientStock = New(KindInsufficientStock, "INSUFFICIENT_STOCK", "Insufficient stock")
	ErrInvalidProduct    = New(KindValidation, "INVALID_PRODUCT", "Invalid product")
	ErrOrderNotFound     = New(KindNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrInvalidStatus     = New(KindValidation, "INVALID_STATUS", "Invalid status")
	ErrNoOpTransition    = New(KindConflict, "NO_OP_TRANSITION", "Already in requested status")
)

// Payments.
var (
	ErrInvalidPayment = New(KindValidation, "INVALID_PAYMENT", "Invalid payment request")
	ErrGateway        = New(KindUpstream, "GATEWAY_ERROR", "Payment gateway error")
	ErrPaymentLinked  = New(KindConflict, "PAYMENT_LINKED", "Order already has a payment in progress")
)

// ErrValidation is the generic request validation failure.
var ErrValidation = New(KindValidation, "VALIDATION_ERROR", "Invalid request")

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService posts back-office alerts to a Telegram admin chat.
type TelegramService struct {
	apiBase     string
	botToken    string
	adminChatID string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, timeout time.Duration) *TelegramService {
	if timeout <= 0 {
		timeout = defaultExternalTimeout
	}
	return &TelegramService{
		apiBase:     telegramAPIBase,
		botToken:    botToken,
		adminChatID: adminChatID,
		client:      &http.Client{Timeout: timeout},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		slog.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		slog.Debug("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for the admin alert.
type OrderNotification struct {
	OrderID         string
	CustomerName    string
	CustomerContact string
	ShippingAddress string
	Items           []OrderItemNotification
	TotalAmount     decimal.Decimal
	Currency        string
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// FormatPrice formats an amount with two decimals, thousand separators and currency.
func FormatPrice(amount decimal.Decimal, currency string) string {
	str := amount.StringFixed(2)
	intPart, frac := str, ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, frac = str[:i], str[i:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var result strings.Builder
	length := len(intPart)
	for i, digit := range intPart {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	out := sign + result.String() + frac
	if currency != "" {
		out += " " + currency
	}
	return out
}

// NotifyNewOrder posts a summary of a freshly placed order.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	var itemsList strings.Builder
	for i, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemsList.WriteString(fmt.Sprintf("%d. <code>%s</code>\n   %d x %s = %s\n",
			i+1,
			item.ProductID,
			item.Quantity,
			FormatPrice(item.Price, order.Currency),
			FormatPrice(lineTotal, order.Currency),
		))
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Contact:</b> %s
<b>Ship to:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s`,
		order.OrderID,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerContact),
		html.EscapeString(order.ShippingAddress),
		itemsList.String(),
		FormatPrice(order.TotalAmount, order.Currency),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}

// NotifyPaymentSettled posts a settled payment.
func (s *TelegramService) NotifyPaymentSettled(ctx context.Context, txRef string, amount decimal.Decimal, currency string) error {
	message := fmt.Sprintf(`<b>✅ PAYMENT RECEIVED</b>
<b>tx_ref:</b> <code>%s</code>
<b>Amount:</b> %s`,
		html.EscapeString(txRef),
		FormatPrice(amount, currency),
	)

	return s.SendToAdmin(ctx, message)
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Notifier delivers a text message to an email address or phone number.
// A nil error means the message was delivered.
type Notifier interface {
	Send(ctx context.Context, destination, message string) error
}

const defaultExternalTimeout = 10 * time.Second

// ErrNoChannel is returned when no channel is configured for a destination.
var ErrNoChannel = errors.New("no notification channel for destination")

// ContactRouter sends to Email when the destination looks like an email
// address and to SMS otherwise.
type ContactRouter struct {
	Email Notifier
	SMS   Notifier
}

func (r ContactRouter) Send(ctx context.Context, destination, message string) error {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return ErrNoChannel
	}

	channel := r.SMS
	if strings.Contains(destination, "@") {
		channel = r.Email
	}
	if channel == nil {
		return ErrNoChannel
	}
	return channel.Send(ctx, destination, message)
}

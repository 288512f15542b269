// Package testutil provides reusable fixtures for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/database"
)

// NewDB opens a migrated sqlite database private to the test.
//
// The pool is limited to one connection, so code inside a transaction
// callback must use the callback's handle and never the outer *gorm.DB.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// NewRedisStore starts a miniredis server and returns a store backed by it.
// The server is returned so tests can FastForward past expiries.
func NewRedisStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return cache.NewRedisStore(client), mr
}

// Message is one recorded notification.
type Message struct {
	Destination string
	Body        string
}

// ErrDeliveryFailed is returned by a failing Notifier.
var ErrDeliveryFailed = errors.New("delivery failed")

// Notifier records every message it is asked to send.
type Notifier struct {
	mu       sync.Mutex
	messages []Message
	fail     bool
}

// Send records the message, or fails when Fail(true) was set.
func (n *Notifier) Send(_ context.Context, destination, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return ErrDeliveryFailed
	}
	n.messages = append(n.messages, Message{Destination: destination, Body: message})
	return nil
}

// Fail toggles delivery failure.
func (n *Notifier) Fail(fail bool) {
	n.mu.Lock()
	n.fail = fail
	n.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (n *Notifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}

// Last returns the most recent message, or the zero Message.
func (n *Notifier) Last() Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return Message{}
	}
	return n.messages[len(n.messages)-1]
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// LastCode extracts the six digit passcode from the most recent message
// sent to destination.
func (n *Notifier) LastCode(t *testing.T, destination string) string {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].Destination != destination {
			continue
		}
		if m := codePattern.FindStringSubmatch(n.messages[i].Body); m != nil {
			return m[1]
		}
	}
	t.Fatalf("no passcode sent to %s", destination)
	return ""
}

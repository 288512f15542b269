//go:build integration

package database_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/testutil"
)

type stubGateway struct {
	result *services.GatewayVerification
}

func (g stubGateway) Initialize(_ context.Context, req services.GatewayInitRequest) (*services.GatewayInitResult, error) {
	return &services.GatewayInitResult{TxRef: req.TxRef}, nil
}

func (g stubGateway) Verify(_ context.Context, _ string) (*services.GatewayVerification, error) {
	return g.result, nil
}

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	// storefront_it does not exist yet; Connect must create it.
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/storefront_it?sslmode=disable", host, port.Port())
	db := database.Connect(dsn)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestPostgresOrderAndPaymentConsistency(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	notifier := &testutil.Notifier{}

	customer := &models.Account{Name: "Buyer", Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleCustomer, IsActive: true, IsVerified: true}
	require.NoError(t, db.Create(customer).Error)
	product := &models.Product{Name: "Limited", Price: decimal.NewFromInt(10), Stock: 10, Status: models.ProductApproved}
	require.NoError(t, db.Create(product).Error)

	orders := services.NewOrderService(db, notifier, nil, "ETB")

	t.Run("concurrent orders never oversell", func(t *testing.T) {
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := orders.PlaceOrder(ctx, customer.ID, []services.OrderItemInput{{ProductID: product.ID, Quantity: 1}}, "addr")
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		var stored models.Product
		require.NoError(t, db.First(&stored, "id = ?", product.ID).Error)
		assert.Equal(t, 10, successes)
		assert.Equal(t, 0, stored.Stock)
	})

	t.Run("payment upsert keeps one row", func(t *testing.T) {
		gateway := stubGateway{result: &services.GatewayVerification{
			Status: "success", TxRef: "tx-it", Reference: "REF", Amount: decimal.NewFromInt(10), Currency: "ETB",
		}}
		payments := services.NewPaymentService(db, gateway, orders, "ETB", "http://localhost")

		first, err := payments.Verify(ctx, "tx-it")
		require.NoError(t, err)
		second, err := payments.Verify(ctx, "tx-it")
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Payment{}).Where("tx_ref = ?", "tx-it").Count(&count).Error)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, first.ID, second.ID)
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
	})

	t.Run("duplicate email is a unique violation", func(t *testing.T) {
		err := db.Create(&models.Account{Name: "Dup", Email: "buyer@example.com", PasswordHash: "x"}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})
}

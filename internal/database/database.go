package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/models"
)

// Connect opens the postgres database, creating it first if needed, and
// runs migrations.
func Connect(dsn string) *gorm.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureDatabase(ctx, dsn); err != nil {
		log.Fatalf("failed to ensure database: %v", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), GormConfig(logger.Warn))
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	return conn
}

// GormConfig is the gorm configuration shared by every dialect.
// TranslateError maps driver unique violations to gorm.ErrDuplicatedKey.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// Migrate creates or updates the schema.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	)
}

// maintenanceDSN points a postgres URL at the "postgres" maintenance
// database and returns the original database name. ok is false for
// key=value DSNs and for URLs that already target the maintenance database.
func maintenanceDSN(dsn string) (admin, name string, ok bool) {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", "", false
	}

	name = strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return "", "", false
	}

	u.Path = "/postgres"
	return u.String(), name, true
}

// duplicate_database, raised when another process created it first.
const pqDuplicateDatabase = "42P04"

func ensureDatabase(ctx context.Context, dsn string) error {
	admin, name, ok := maintenanceDSN(dsn)
	if !ok {
		return nil
	}

	sqlDB, err := sql.Open("postgres", admin)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var exists bool
	err = sqlDB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = sqlDB.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqDuplicateDatabase {
		return nil
	}
	return err
}

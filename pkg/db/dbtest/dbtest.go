// Package dbtest opens isolated in-memory sqlite databases with the full schema.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/cartsync-backend/pkg/config"
	"github.com/angelmondragon/cartsync-backend/pkg/db"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
)

// Open returns a migrated client private to t. A single connection keeps the
// shared-cache memory database alive and serializes writers.
func Open(t testing.TB) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// SeedUser inserts a user and returns it.
func SeedUser(t testing.TB, client *db.Client, email string) models.User {
	t.Helper()
	user := models.User{
		Username:     email,
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$argon2id$test",
	}
	if err := client.DB().Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

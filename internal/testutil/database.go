// Package testutil provides shared fixtures for tests that need a real
// storage backend.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB represents a migrated in-memory test database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory SQLite database and migrates it.
// Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	alice := db.MustCreateUser("alice")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCreateUser inserts a user named username with a placeholder hash.
func (db *TestDB) MustCreateUser(username string) *model.User {
	db.t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Storage.CreateUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to seed user %q: %v", username, err)
	}
	return user
}

// MustCreateTransaction inserts a transaction for userID.
func (db *TestDB) MustCreateTransaction(userID, amount, description, category string, date time.Time) *model.Transaction {
	db.t.Helper()

	txn := &model.Transaction{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		Category:    category,
		Date:        date,
	}
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to seed transaction %q: %v", description, err)
	}
	return txn
}

// CountTransactions returns how many transactions userID has.
func (db *TestDB) CountTransactions(userID string) int {
	db.t.Helper()

	page, err := db.Storage.ListTransactions(context.Background(), service.TransactionFilter{UserID: userID, Page: 1, Limit: 1})
	if err != nil {
		db.t.Fatalf("failed to count transactions: %v", err)
	}
	return page.Total
}

// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// Paging limits for transaction queries.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TransactionFilter defines filtering options for transaction queries.
// StartDate and EndDate are inclusive. Page is 1-based.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	UserID    string
	Category  string
	Page      int
	Limit     int
}

// Offset returns the number of rows to skip for the filter's page.
func (f TransactionFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// TransactionPage is one page of a filtered transaction query.
type TransactionPage struct {
	Transactions []model.Transaction
	Total        int
	Page         int
	Limit        int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) (TransactionPage, error)
	UpdateTransactionCategory(ctx context.Context, userID, id, category string) error
	MonthlySpending(ctx context.Context, userID string) ([]model.MonthlySpend, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (current, latest int, err error)
	Close() error
}

// Classifier maps a free-text description to a validated category label.
type Classifier interface {
	Classify(ctx context.Context, description string) (string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Package engine records expenses and answers queries about them. It is the
// single place where a transaction is created: classification happens here,
// synchronously, before anything is persisted.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/shopspring/decimal"
)

// Errors returned by Ledger operations.
var (
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrClassification   = errors.New("could not classify transaction")
	ErrInvalidPage      = errors.New("page must be at least 1")
	ErrInvalidLimit     = fmt.Errorf("limit must be between 1 and %d", service.MaxLimit)
	ErrInvalidDateRange = errors.New("start date must not be after end date")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrMissingOwner     = errors.New("transaction owner is required")
)

// Ledger coordinates classification and storage of expenses.
type Ledger struct {
	storage    service.Storage
	classifier service.Classifier
	logger     *slog.Logger
	now        func() time.Time
	categories model.CategorySet
}

// New creates a Ledger. categories must be the set the classifier was built
// with; it is used to validate manual recategorization.
func New(storage service.Storage, classifier service.Classifier, categories model.CategorySet, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		storage:    storage,
		classifier: classifier,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

// Categories returns the configured category set.
func (l *Ledger) Categories() model.CategorySet {
	return l.categories
}

// CreateTransaction classifies description and stores a new transaction for
// ownerID dated now. If classification fails nothing is stored and the
// returned error wraps both ErrClassification and the classifier's error.
func (l *Ledger) CreateTransaction(ctx context.Context, ownerID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	category, err := l.classifier.Classify(ctx, description)
	if err != nil {
		l.logger.Error("Classification failed, transaction not recorded",
			"user_id", ownerID,
			"error", err)
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	txn := &model.Transaction{
		UserID:      ownerID,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        l.now().UTC(),
	}
	if err := l.storage.CreateTransaction(ctx, txn); err != nil {
		return nil, common.NewUserError("Could not save transaction", fmt.Errorf("failed to save transaction: %w", err))
	}

	l.logger.Info("Transaction recorded",
		"transaction_id", txn.ID,
		"user_id", ownerID,
		"category", category)
	return txn, nil
}

// ValidateFilter applies paging defaults and rejects out-of-range values.
func ValidateFilter(filter service.TransactionFilter) (service.TransactionFilter, error) {
	if filter.Page == 0 {
		filter.Page = service.DefaultPage
	}
	if filter.Limit == 0 {
		filter.Limit = service.DefaultLimit
	}
	if filter.Page < 1 {
		return filter, ErrInvalidPage
	}
	if filter.Limit < 1 || filter.Limit > service.MaxLimit {
		return filter, ErrInvalidLimit
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return filter, ErrInvalidDateRange
	}
	return filter, nil
}

// ListTransactions returns one page of the user's transactions, newest first.
// A zero Page or Limit selects the default.
func (l *Ledger) ListTransactions(ctx context.Context, filter service.TransactionFilter) (service.TransactionPage, error) {
	if strings.TrimSpace(filter.UserID) == "" {
		return service.TransactionPage{}, ErrMissingOwner
	}
	filter, err := ValidateFilter(filter)
	if err != nil {
		return service.TransactionPage{}, err
	}

	page, err := l.storage.ListTransactions(ctx, filter)
	if err != nil {
		return service.TransactionPage{}, common.NewUserError("Could not load transactions", fmt.Errorf("failed to list transactions: %w", err))
	}
	return page, nil
}

// MonthlySpending returns the user's total per calendar month, oldest first.
func (l *Ledger) MonthlySpending(ctx context.Context, userID string) ([]model.MonthlySpend, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingOwner
	}

	months, err := l.storage.MonthlySpending(ctx, userID)
	if err != nil {
		return nil, common.NewUserError("Could not load spending summary", fmt.Errorf("failed to aggregate spending: %w", err))
	}
	if months == nil {
		months = []model.MonthlySpend{}
	}
	return months, nil
}

// Recategorize replaces the category of an existing transaction. The new
// label must be in the category set or be the fallback label.
func (l *Ledger) Recategorize(ctx context.Context, userID, transactionID, category string) (*model.Transaction, error) {
	if !l.categories.IsValidLabel(category) {
		return nil, fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnknownCategory, category, l.categories, model.FallbackCategory)
	}

	if err := l.storage.UpdateTransactionCategory(ctx, userID, transactionID, category); err != nil {
		return nil, fmt.Errorf("failed to recategorize transaction: %w", err)
	}

	txn, err := l.storage.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload transaction: %w", err)
	}

	l.logger.Info("Transaction recategorized",
		"transaction_id", transactionID,
		"category", category)
	return txn, nil
}

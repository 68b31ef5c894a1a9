package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransaction inserts txn, assigning a new ID when it has none.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category, date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.UserID, txn.Amount.String(), txn.Description, txn.Category, formatTime(txn.Date))
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.ID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID loads one of userID's transactions.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, description, category, date
		FROM transactions WHERE id = ? AND user_id = ?
	`, id, userID)

	txn, err := scanSQLiteTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// sqliteFilter renders the WHERE clause shared by the count and page queries.
func sqliteFilter(filter service.TransactionFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{filter.UserID}

	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.StartDate != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, formatTime(*filter.EndDate))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListTransactions returns one page of matching transactions, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) (service.TransactionPage, error) {
	if err := validateContext(ctx); err != nil {
		return service.TransactionPage{}, err
	}
	if err := validateString(filter.UserID, "userID"); err != nil {
		return service.TransactionPage{}, err
	}
	filter = normalizePaging(filter)

	where, args := sqliteFilter(filter)

	page := service.TransactionPage{Page: filter.Page, Limit: filter.Limit}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&page.Total); err != nil {
		return service.TransactionPage{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, description, category, date
		FROM transactions`+where+`
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return service.TransactionPage{}, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	page.Transactions = make([]model.Transaction, 0, filter.Limit)
	for rows.Next() {
		txn, scanErr := scanSQLiteTransaction(rows)
		if scanErr != nil {
			return service.TransactionPage{}, scanErr
		}
		page.Transactions = append(page.Transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return service.TransactionPage{}, fmt.Errorf("error iterating transactions: %w", err)
	}

	return page, nil
}

// UpdateTransactionCategory overwrites the category of one of userID's transactions.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, userID, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET category = ? WHERE id = ? AND user_id = ?
	`, category, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return nil
}

// MonthlySpending sums userID's amounts per calendar month (UTC), oldest first.
// Amounts are summed with decimal arithmetic rather than SQLite's REAL.
func (s *SQLiteStorage) MonthlySpending(ctx context.Context, userID string) ([]model.MonthlySpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(date, 1, 7) AS month, amount
		FROM transactions
		WHERE user_id = ?
		ORDER BY month ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly spending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.MonthlySpend
	for rows.Next() {
		var month, raw string
		if err := rows.Scan(&month, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan monthly spending: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", raw, err)
		}

		if n := len(result); n > 0 && result[n-1].Month == month {
			result[n-1].TotalSpent = result[n-1].TotalSpent.Add(amount)
			continue
		}
		result = append(result, model.MonthlySpend{Month: month, TotalSpent: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly spending: %w", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		amount     string
		storedDate string
	)
	if err := row.Scan(&txn.ID, &txn.UserID, &amount, &txn.Description, &txn.Category, &storedDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if txn.Date, err = parseTime(storedDate); err != nil {
		return nil, err
	}
	return &txn, nil
}

// normalizePaging fills in default paging and clamps the limit. Callers are
// expected to have rejected invalid values already.
func normalizePaging(filter service.TransactionFilter) service.TransactionFilter {
	if filter.Page < 1 {
		filter.Page = service.DefaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = service.DefaultLimit
	}
	if filter.Limit > service.MaxLimit {
		filter.Limit = service.MaxLimit
	}
	return filter
}

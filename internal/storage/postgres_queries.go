package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateUser inserts a new user. Username and email must be unique.
func (s *PostgresStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	prepareUser(user)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("%w: user %q", common.ErrDuplicateEntry, user.Username)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID loads a user by primary key.
func (s *PostgresStorage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername loads a user by username.
func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "username", username)
}

// GetUserByEmail loads a user by email address.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, "email", email)
}

func (s *PostgresStorage) getUser(ctx context.Context, column, value string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var user model.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE `+column+` = $1
	`, value).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s=%q", common.ErrNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// CreateTransaction inserts txn, assigning a new ID when it has none.
func (s *PostgresStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category, date)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
	`, txn.ID, txn.UserID, txn.Amount.String(), txn.Description, txn.Category, txn.Date.UTC())
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.ID)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID loads one of userID's transactions.
func (s *PostgresStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, amount::text, description, category, date
		FROM transactions WHERE id = $1 AND user_id = $2
	`, id, userID)

	txn, err := scanPgTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// pgFilter renders the WHERE clause shared by the count and page queries.
func pgFilter(filter service.TransactionFilter) (string, []any) {
	args := []any{filter.UserID}
	clauses := []string{"user_id = $1"}

	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.StartDate != nil {
		add("date >= $%d", filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		add("date <= $%d", filter.EndDate.UTC())
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListTransactions returns one page of matching transactions, newest first.
func (s *PostgresStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) (service.TransactionPage, error) {
	if err := validateContext(ctx); err != nil {
		return service.TransactionPage{}, err
	}
	if err := validateString(filter.UserID, "userID"); err != nil {
		return service.TransactionPage{}, err
	}
	filter = normalizePaging(filter)

	where, args := pgFilter(filter)

	page := service.TransactionPage{Page: filter.Page, Limit: filter.Limit}
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&page.Total); err != nil {
		return service.TransactionPage{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, amount::text, description, category, date
		FROM transactions%s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := s.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return service.TransactionPage{}, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	page.Transactions = make([]model.Transaction, 0, filter.Limit)
	for rows.Next() {
		txn, scanErr := scanPgTransaction(rows)
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
func (s *PostgresStorage) UpdateTransactionCategory(ctx context.Context, userID, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions SET category = $1 WHERE id = $2 AND user_id = $3
	`, category, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update transaction category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return nil
}

// MonthlySpending sums userID's amounts per calendar month (UTC), oldest first.
func (s *PostgresStorage) MonthlySpending(ctx context.Context, userID string) ([]model.MonthlySpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', date AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
		       SUM(amount)::text
		FROM transactions
		WHERE user_id = $1
		GROUP BY month
		ORDER BY month ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly spending: %w", err)
	}
	defer rows.Close()

	var result []model.MonthlySpend
	for rows.Next() {
		var month, total string
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly spending: %w", err)
		}
		sum, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid monthly total %q: %w", total, err)
		}
		result = append(result, model.MonthlySpend{Month: month, TotalSpent: sum})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly spending: %w", err)
	}

	return result, nil
}

func scanPgTransaction(row pgx.Row) (*model.Transaction, error) {
	var (
		txn    model.Transaction
		amount string
	)
	if err := row.Scan(&txn.ID, &txn.UserID, &amount, &txn.Description, &txn.Category, &txn.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	txn.Date = txn.Date.UTC()
	return &txn, nil
}

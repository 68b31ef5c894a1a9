package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// runStorageSuite exercises the service.Storage contract against any backend.
// newStore must return a migrated, empty-enough store; every case uses fresh
// users so backends may be shared between cases.
func runStorageSuite(t *testing.T, newStore func(t *testing.T) service.Storage) {
	t.Helper()

	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("create and get transaction", func(t *testing.T) { testCreateAndGetTransaction(t, newStore(t)) })
	t.Run("list paging and order", func(t *testing.T) { testListPaging(t, newStore(t)) })
	t.Run("list filters", func(t *testing.T) { testListFilters(t, newStore(t)) })
	t.Run("update category", func(t *testing.T) { testUpdateCategory(t, newStore(t)) })
	t.Run("monthly spending", func(t *testing.T) { testMonthlySpending(t, newStore(t)) })
}

func seedUser(t *testing.T, store service.Storage) *model.User {
	t.Helper()
	name := "user-" + uuid.NewString()[:8]
	user := &model.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$10$hash",
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func seedTransaction(t *testing.T, store service.Storage, userID, amount, description, category string, date time.Time) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		Category:    category,
		Date:        date,
	}
	if err := store.CreateTransaction(context.Background(), txn); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return txn
}

func testUsers(t *testing.T, store service.Storage) {
	ctx := context.Background()
	user := seedUser(t, store)

	if user.ID == "" {
		t.Fatal("expected CreateUser to assign an ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected CreateUser to set CreatedAt")
	}

	lookups := map[string]func() (*model.User, error){
		"by id":       func() (*model.User, error) { return store.GetUserByID(ctx, user.ID) },
		"by username": func() (*model.User, error) { return store.GetUserByUsername(ctx, user.Username) },
		"by email":    func() (*model.User, error) { return store.GetUserByEmail(ctx, user.Email) },
	}
	for name, lookup := range lookups {
		got, err := lookup()
		if err != nil {
			t.Fatalf("lookup %s error = %v", name, err)
		}
		if got.ID != user.ID || got.Username != user.Username || got.PasswordHash != user.PasswordHash {
			t.Errorf("lookup %s = %+v, want %+v", name, got, user)
		}
	}

	dupName := &model.User{Username: user.Username, Email: "other-" + user.Email, PasswordHash: "x"}
	if err := store.CreateUser(ctx, dupName); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateEntry", err)
	}

	dupEmail := &model.User{Username: "other-" + user.Username, Email: user.Email, PasswordHash: "x"}
	if err := store.CreateUser(ctx, dupEmail); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEntry", err)
	}

	if _, err := store.GetUserByUsername(ctx, "nobody-"+uuid.NewString()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing user error = %v, want ErrNotFound", err)
	}
}

func testCreateAndGetTransaction(t *testing.T, store service.Storage) {
	ctx := context.Background()
	owner := seedUser(t, store)
	other := seedUser(t, store)

	date := time.Date(2024, 3, 15, 9, 30, 0, 123456789, time.UTC)
	txn := seedTransaction(t, store, owner.ID, "12.34", "Netflix monthly subscription", "Entertainment", date)
	if txn.ID == "" {
		t.Fatal("expected CreateTransaction to assign an ID")
	}

	got, err := store.GetTransactionByID(ctx, owner.ID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if !got.Amount.Equal(txn.Amount) {
		t.Errorf("Amount = %s, want %s", got.Amount, txn.Amount)
	}
	if !got.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", got.Date, date)
	}
	if got.Description != txn.Description || got.Category != txn.Category || got.UserID != owner.ID {
		t.Errorf("GetTransactionByID() = %+v, want %+v", got, txn)
	}

	if _, err := store.GetTransactionByID(ctx, other.ID, txn.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("foreign user lookup error = %v, want ErrNotFound", err)
	}

	invalid := &model.Transaction{UserID: owner.ID, Date: date, Description: "   ", Category: "Rent"}
	if err := store.CreateTransaction(ctx, invalid); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("blank description error = %v, want ErrInvalidTransaction", err)
	}
}

func testListPaging(t *testing.T, store service.Storage) {
	ctx := context.Background()
	user := seedUser(t, store)
	other := seedUser(t, store)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedTransaction(t, store, user.ID, "1.00", "item", "Shopping", base.Add(time.Duration(i)*time.Hour))
	}
	seedTransaction(t, store, other.ID, "99.00", "not mine", "Shopping", base)

	tests := []struct {
		name      string
		page      int
		limit     int
		wantCount int
		wantFirst time.Time
	}{
		{name: "first page", page: 1, limit: 10, wantCount: 10, wantFirst: base.Add(24 * time.Hour)},
		{name: "second page", page: 2, limit: 10, wantCount: 10, wantFirst: base.Add(14 * time.Hour)},
		{name: "last partial page", page: 3, limit: 10, wantCount: 5, wantFirst: base.Add(4 * time.Hour)},
		{name: "past the end", page: 4, limit: 10, wantCount: 0},
		{name: "defaults", page: 0, limit: 0, wantCount: service.DefaultLimit, wantFirst: base.Add(24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListTransactions(ctx, service.TransactionFilter{UserID: user.ID, Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if page.Total != 25 {
				t.Errorf("Total = %d, want 25", page.Total)
			}
			if len(page.Transactions) != tt.wantCount {
				t.Fatalf("got %d transactions, want %d", len(page.Transactions), tt.wantCount)
			}
			if tt.wantCount > 0 && !page.Transactions[0].Date.Equal(tt.wantFirst) {
				t.Errorf("first date = %v, want %v", page.Transactions[0].Date, tt.wantFirst)
			}
			for i := 1; i < len(page.Transactions); i++ {
				if page.Transactions[i].Date.After(page.Transactions[i-1].Date) {
					t.Fatalf("transactions not ordered newest first at index %d", i)
				}
			}
		})
	}
}

func testListFilters(t *testing.T, store service.Storage) {
	ctx := context.Background()
	user := seedUser(t, store)

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seedTransaction(t, store, user.ID, "50", "January rent", "Rent", jan)
	seedTransaction(t, store, user.ID, "20", "Groceries", "Groceries", feb)
	seedTransaction(t, store, user.ID, "50", "February rent", "Rent", feb)
	seedTransaction(t, store, user.ID, "50", "March rent", "Rent", mar)

	tests := []struct {
		start *time.Time
		end   *time.Time
		name  string
		cat   string
		want  int
	}{
		{name: "category", cat: "Rent", want: 3},
		{name: "start inclusive", start: &feb, want: 3},
		{name: "end inclusive", end: &feb, want: 3},
		{name: "range and category", start: &feb, end: &feb, cat: "Rent", want: 1},
		{name: "no match", cat: "Healthcare", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListTransactions(ctx, service.TransactionFilter{
				UserID:    user.ID,
				Category:  tt.cat,
				StartDate: tt.start,
				EndDate:   tt.end,
				Page:      1,
				Limit:     service.MaxLimit,
			})
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if page.Total != tt.want || len(page.Transactions) != tt.want {
				t.Errorf("got total=%d len=%d, want %d", page.Total, len(page.Transactions), tt.want)
			}
		})
	}
}

func testUpdateCategory(t *testing.T, store service.Storage) {
	ctx := context.Background()
	user := seedUser(t, store)
	other := seedUser(t, store)
	txn := seedTransaction(t, store, user.ID, "8.50", "Cinema", model.FallbackCategory, time.Now().UTC())

	if err := store.UpdateTransactionCategory(ctx, user.ID, txn.ID, "Entertainment"); err != nil {
		t.Fatalf("UpdateTransactionCategory() error = %v", err)
	}
	got, err := store.GetTransactionByID(ctx, user.ID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if got.Category != "Entertainment" {
		t.Errorf("Category = %q, want Entertainment", got.Category)
	}

	if err := store.UpdateTransactionCategory(ctx, other.ID, txn.ID, "Rent"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("foreign update error = %v, want ErrNotFound", err)
	}
	if err := store.UpdateTransactionCategory(ctx, user.ID, uuid.NewString(), "Rent"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing update error = %v, want ErrNotFound", err)
	}
}

func testMonthlySpending(t *testing.T, store service.Storage) {
	ctx := context.Background()
	user := seedUser(t, store)
	other := seedUser(t, store)

	seedTransaction(t, store, user.ID, "0.10", "a", "Bills", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	seedTransaction(t, store, user.ID, "0.20", "b", "Bills", time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
	seedTransaction(t, store, user.ID, "100", "c", "Rent", time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC))
	seedTransaction(t, store, user.ID, "5.5", "d", "Transport", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	seedTransaction(t, store, other.ID, "999", "e", "Rent", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC))

	got, err := store.MonthlySpending(ctx, user.ID)
	if err != nil {
		t.Fatalf("MonthlySpending() error = %v", err)
	}

	want := []model.MonthlySpend{
		{Month: "2023-12", TotalSpent: decimal.RequireFromString("100")},
		{Month: "2024-02", TotalSpent: decimal.RequireFromString("0.30")},
		{Month: "2024-03", TotalSpent: decimal.RequireFromString("5.5")},
	}
	if len(got) != len(want) {
		t.Fatalf("MonthlySpending() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Month != want[i].Month || !got[i].TotalSpent.Equal(want[i].TotalSpent) {
			t.Errorf("row %d = {%s %s}, want {%s %s}", i, got[i].Month, got[i].TotalSpent, want[i].Month, want[i].TotalSpent)
		}
	}

	empty := seedUser(t, store)
	got, err = store.MonthlySpending(ctx, empty.ID)
	if err != nil {
		t.Fatalf("MonthlySpending() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows for a user without transactions, got %v", got)
	}
}

// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single recorded expense owned by a user.
type Transaction struct {
	Date        time.Time       // UTC creation timestamp
	ID          string
	UserID      string
	Description string
	Category    string          // member of the category set or FallbackCategory
	Amount      decimal.Decimal
}

// MonthlySpend is the total amount spent by a user in one calendar month.
type MonthlySpend struct {
	Month      string // YYYY-MM
	TotalSpent decimal.Decimal
}

// MonthKey formats t as the YYYY-MM key used for monthly aggregation.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

package api

import (
	"errors"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/report"
	"github.com/Veraticus/tally/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type transactionResponse struct {
	Date        time.Time `json:"date"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

type monthlyResponse struct {
	Month      string  `json:"month"`
	TotalSpent float64 `json:"total_spent"`
}

func toTransactionResponse(txn model.Transaction) transactionResponse {
	return transactionResponse{
		ID:          txn.ID,
		UserID:      txn.UserID,
		Amount:      txn.Amount.InexactFloat64(),
		Description: txn.Description,
		Category:    txn.Category,
		Date:        txn.Date.UTC(),
	}
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	fields, err := formFields(c, "username", "email", "password")
	if err != nil {
		return err
	}

	if _, err := s.accounts.Register(userContext(c), fields["username"], fields["email"], fields["password"]); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "User registered successfully"})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	fields, err := formFields(c, "username", "password")
	if err != nil {
		return err
	}

	token, err := s.accounts.Login(userContext(c), fields["username"], fields["password"])
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleCreateTransaction(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	fields, err := formFields(c, "amount", "description")
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(fields["amount"]))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Amount must be a number")
	}

	txn, err := s.ledger.CreateTransaction(userContext(c), user.ID, amount, fields["description"])
	if err != nil {
		return err
	}
	return c.JSON(toTransactionResponse(*txn))
}

func (s *Server) handleListTransactions(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	filter := service.TransactionFilter{
		UserID:   user.ID,
		Category: strings.TrimSpace(c.Query("category")),
	}

	// Explicit values are checked here: the ledger treats zero as "default".
	page, set, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	if set && page < 1 {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "page must be at least 1")
	}
	filter.Page = page

	limit, set, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	if set && (limit < 1 || limit > service.MaxLimit) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "limit must be between 1 and 100")
	}
	filter.Limit = limit

	if filter.StartDate, err = queryDate(c, "start_date", false); err != nil {
		return err
	}
	if filter.EndDate, err = queryDate(c, "end_date", true); err != nil {
		return err
	}

	result, err := s.ledger.ListTransactions(userContext(c), filter)
	if err != nil {
		return err
	}

	resp := transactionListResponse{
		Total:        result.Total,
		Page:         result.Page,
		Limit:        result.Limit,
		Transactions: make([]transactionResponse, 0, len(result.Transactions)),
	}
	for _, txn := range result.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(txn))
	}
	return c.JSON(resp)
}

func (s *Server) handleMonthly(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	months, err := s.ledger.MonthlySpending(userContext(c), user.ID)
	if err != nil {
		return err
	}

	resp := make([]monthlyResponse, 0, len(months))
	for _, m := range months {
		resp = append(resp, monthlyResponse{Month: m.Month, TotalSpent: m.TotalSpent.InexactFloat64()})
	}
	return c.JSON(resp)
}

func (s *Server) handleMonthlyChart(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	months, err := s.ledger.MonthlySpending(userContext(c), user.ID)
	if err != nil {
		return err
	}

	png, err := report.MonthlyBarChart(months)
	if errors.Is(err, report.ErrNoData) {
		return fiber.NewError(fiber.StatusNotFound, "No spending recorded")
	}
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func (s *Server) handleCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories": s.ledger.Categories().Names(),
		"fallback":   model.FallbackCategory,
	})
}

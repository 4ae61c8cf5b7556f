package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrExpenseNotFound = errors.New("expense not found")
var ErrInvalidExpense = errors.New("invalid expense")
var ErrInvalidDateRange = errors.New("invalid date range")

// Amounts are stored as NUMERIC(19, 2).
const amountScale = 2

var maxAmount = decimal.New(1, 17)

type Expense struct {
	Id       int
	Title    string
	Amount   decimal.Decimal
	Category string
	// Date is a calendar date, kept at midnight UTC.
	Date        time.Time
	Description string
}

// Validate checks the fields every stored expense must have.
// The returned error wraps ErrInvalidExpense and lists all failing fields.
func (e Expense) Validate() error {
	var problems []string
	if strings.TrimSpace(e.Title) == "" {
		problems = append(problems, "title must not be blank")
	}
	if e.Amount.IsNegative() {
		problems = append(problems, "amount must not be negative")
	}
	if !e.Amount.Equal(e.Amount.Round(amountScale)) {
		problems = append(problems, "amount must have at most 2 decimal places")
	}
	if e.Amount.Abs().GreaterThanOrEqual(maxAmount) {
		problems = append(problems, "amount must be less than 10^17")
	}
	if strings.TrimSpace(e.Category) == "" {
		problems = append(problems, "category must not be blank")
	}
	if e.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidExpense, strings.Join(problems, "; "))
	}
	return nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

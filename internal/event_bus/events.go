package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ExpenseCreatedType EventType = "expense.created"
	ExpenseUpdatedType EventType = "expense.updated"
	ExpenseDeletedType EventType = "expense.deleted"
)

// ExpenseChanged is the payload of expense.created and expense.updated.
type ExpenseChanged struct {
	Id          int
	Title       string
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description string
}

type ExpenseDeleted struct {
	Id int
}

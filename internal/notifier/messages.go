package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/klokku/expenses/internal/event_bus"
	"github.com/shopspring/decimal"
)

// ExpenseMessage is the JSON body published for every expense lifecycle event.
// Expense fields are omitted for deletions.
type ExpenseMessage struct {
	Event       string           `json:"event"`
	Id          int              `json:"id"`
	Title       string           `json:"title,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    string           `json:"category,omitempty"`
	Date        string           `json:"date,omitempty"`
	Description string           `json:"description,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewExpenseMessage builds the message for a bus event.
func NewExpenseMessage(e event_bus.Event) (ExpenseMessage, error) {
	msg := ExpenseMessage{Event: string(e.Type), Timestamp: e.Timestamp}
	switch data := e.Data.(type) {
	case event_bus.ExpenseChanged:
		amount := data.Amount
		msg.Id = data.Id
		msg.Title = data.Title
		msg.Amount = &amount
		msg.Category = data.Category
		msg.Date = data.Date.Format(time.DateOnly)
		msg.Description = data.Description
	case event_bus.ExpenseDeleted:
		msg.Id = data.Id
	default:
		return ExpenseMessage{}, fmt.Errorf("unsupported payload %T for event %s", e.Data, e.Type)
	}
	return msg, nil
}

func (m ExpenseMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/klokku/expenses/internal/event_bus"
	"github.com/klokku/expenses/internal/utils"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type publisherStub struct {
	messages []published
	err      error
}

func (p *publisherStub) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{exchange: exchange, key: key, msg: msg})
	return nil
}

var now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newBus() *event_bus.EventBus {
	return event_bus.NewEventBus(&utils.MockClock{FixedNow: now})
}

func TestAmqpNotifier_PublishesCreatedExpense(t *testing.T) {
	// given
	bus := newBus()
	publisher := &publisherStub{}
	NewAmqpNotifier(publisher, "expenses").Register(bus)

	// when
	err := bus.Publish(bus.NewEvent(context.Background(), event_bus.ExpenseCreatedType, event_bus.ExpenseChanged{
		Id:       7,
		Title:    "Groceries",
		Amount:   decimal.RequireFromString("85.50"),
		Category: "Food",
		Date:     time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
	}))

	// then
	require.NoError(t, err)
	require.Len(t, publisher.messages, 1)
	sent := publisher.messages[0]
	assert.Equal(t, "expenses", sent.exchange)
	assert.Equal(t, "expense.created", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, now, sent.msg.Timestamp)

	var body ExpenseMessage
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "expense.created", body.Event)
	assert.Equal(t, 7, body.Id)
	assert.Equal(t, "Food", body.Category)
	assert.Equal(t, "2025-03-13", body.Date)
	require.NotNil(t, body.Amount)
	assert.True(t, decimal.RequireFromString("85.50").Equal(*body.Amount))
}

func TestAmqpNotifier_PublishesDeletedExpense(t *testing.T) {
	// given
	bus := newBus()
	publisher := &publisherStub{}
	NewAmqpNotifier(publisher, "expenses").Register(bus)

	// when
	err := bus.Publish(bus.NewEvent(context.Background(), event_bus.ExpenseDeletedType, event_bus.ExpenseDeleted{Id: 3}))

	// then
	require.NoError(t, err)
	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "expense.deleted", publisher.messages[0].key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(publisher.messages[0].msg.Body, &body))
	assert.Equal(t, float64(3), body["id"])
	assert.NotContains(t, body, "amount")
	assert.NotContains(t, body, "title")
}

func TestAmqpNotifier_ReturnsPublishError(t *testing.T) {
	// given
	bus := newBus()
	publisher := &publisherStub{err: errors.New("channel closed")}
	NewAmqpNotifier(publisher, "expenses").Register(bus)

	// when
	err := bus.Publish(bus.NewEvent(context.Background(), event_bus.ExpenseDeletedType, event_bus.ExpenseDeleted{Id: 3}))

	// then
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestAmqpNotifier_UnsubscribeStopsPublishing(t *testing.T) {
	// given
	bus := newBus()
	publisher := &publisherStub{}
	unsubscribe := NewAmqpNotifier(publisher, "expenses").Register(bus)
	unsubscribe()

	// when
	err := bus.Publish(bus.NewEvent(context.Background(), event_bus.ExpenseDeletedType, event_bus.ExpenseDeleted{Id: 3}))

	// then
	require.NoError(t, err)
	assert.Empty(t, publisher.messages)
}

func TestNewExpenseMessage_RejectsUnknownPayload(t *testing.T) {
	// given
	bus := newBus()

	// when
	_, err := NewExpenseMessage(bus.NewEvent(context.Background(), event_bus.ExpenseCreatedType, "not an expense"))

	// then
	assert.Error(t, err)
}

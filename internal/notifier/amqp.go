package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/expenses/internal/event_bus"
	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of an AMQP channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AmqpNotifier forwards expense events to a topic exchange, using the event
// type (expense.created, ...) as the routing key.
type AmqpNotifier struct {
	conn      *amqp091.Connection
	publisher Publisher
	exchange  string
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string) (*AmqpNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AmqpNotifier{conn: conn, publisher: channel, exchange: exchange}, nil
}

// NewAmqpNotifier wraps an existing publisher; Close is then a no-op.
func NewAmqpNotifier(publisher Publisher, exchange string) *AmqpNotifier {
	return &AmqpNotifier{publisher: publisher, exchange: exchange}
}

// Register subscribes the notifier to all expense events on the bus.
func (n *AmqpNotifier) Register(bus *event_bus.EventBus) (unsubscribe func()) {
	unsubs := []func(){
		bus.Subscribe(event_bus.ExpenseCreatedType, n.Handle),
		bus.Subscribe(event_bus.ExpenseUpdatedType, n.Handle),
		bus.Subscribe(event_bus.ExpenseDeletedType, n.Handle),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (n *AmqpNotifier) Handle(e event_bus.Event) error {
	msg, err := NewExpenseMessage(e)
	if err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(e.Context(), publishTimeout)
	defer cancel()

	err = n.publisher.PublishWithContext(
		ctx,
		n.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    e.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.WithFields(log.Fields{
		"event":    e.Type,
		"id":       msg.Id,
		"exchange": n.exchange,
	}).Debug("Published expense message")
	return nil
}

func (n *AmqpNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

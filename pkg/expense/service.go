package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/expenses/internal/event_bus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetAllExpenses(ctx context.Context) ([]Expense, error)
	GetExpenseById(ctx context.Context, id int) (Expense, error)
	CreateExpense(ctx context.Context, expense Expense) (Expense, error)
	UpdateExpense(ctx context.Context, id int, expense Expense) (Expense, error)
	DeleteExpense(ctx context.Context, id int) error
	GetExpensesByCategory(ctx context.Context, category string) ([]Expense, error)
	GetExpensesByDateRange(ctx context.Context, start, end time.Time) ([]Expense, error)
	GetTotalByCategory(ctx context.Context, category string) (decimal.Decimal, error)
	GetAllCategories(ctx context.Context) ([]string, error)
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) GetAllExpenses(ctx context.Context) ([]Expense, error) {
	return s.repo.FindAll(ctx)
}

func (s *ServiceImpl) GetExpenseById(ctx context.Context, id int) (Expense, error) {
	return s.repo.FindById(ctx, id)
}

func (s *ServiceImpl) CreateExpense(ctx context.Context, expense Expense) (Expense, error) {
	if err := expense.Validate(); err != nil {
		return Expense{}, err
	}
	expense.Id = 0
	expense.Date = DateOf(expense.Date)

	created, err := s.repo.Save(ctx, expense)
	if err != nil {
		return Expense{}, err
	}
	if created.Id == 0 {
		return Expense{}, fmt.Errorf("storage returned no id for created expense")
	}

	s.publish(ctx, event_bus.ExpenseCreatedType, changedEvent(created))
	return created, nil
}

func (s *ServiceImpl) UpdateExpense(ctx context.Context, id int, expense Expense) (Expense, error) {
	if err := expense.Validate(); err != nil {
		return Expense{}, err
	}
	if _, err := s.repo.FindById(ctx, id); err != nil {
		if errors.Is(err, ErrExpenseNotFound) {
			log.Debugf("expense %d not found, nothing to update", id)
		}
		return Expense{}, err
	}

	// The path id wins over any id sent in the payload.
	expense.Id = id
	expense.Date = DateOf(expense.Date)

	updated, err := s.repo.Save(ctx, expense)
	if err != nil {
		return Expense{}, err
	}

	s.publish(ctx, event_bus.ExpenseUpdatedType, changedEvent(updated))
	return updated, nil
}

func (s *ServiceImpl) DeleteExpense(ctx context.Context, id int) error {
	exists, err := s.repo.ExistsById(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		log.Debugf("expense %d not found, nothing to delete", id)
		return ErrExpenseNotFound
	}
	if err := s.repo.DeleteById(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, event_bus.ExpenseDeletedType, event_bus.ExpenseDeleted{Id: id})
	return nil
}

func (s *ServiceImpl) GetExpensesByCategory(ctx context.Context, category string) ([]Expense, error) {
	return s.repo.FindByCategory(ctx, category)
}

func (s *ServiceImpl) GetExpensesByDateRange(ctx context.Context, start, end time.Time) ([]Expense, error) {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidDateRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return s.repo.FindByDateBetween(ctx, start, end)
}

func (s *ServiceImpl) GetTotalByCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	return s.repo.SumByCategory(ctx, category)
}

func (s *ServiceImpl) GetAllCategories(ctx context.Context) ([]string, error) {
	return s.repo.FindAllCategories(ctx)
}

// publish notifies subscribers after the change is stored. A failing subscriber
// cannot undo the change, so its error is only logged.
func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(s.eventBus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s event: %v", eventType, err)
	}
}

func changedEvent(e Expense) event_bus.ExpenseChanged {
	return event_bus.ExpenseChanged{
		Id:          e.Id,
		Title:       e.Title,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Description: e.Description,
	}
}

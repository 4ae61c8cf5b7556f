package expense

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type RepositoryStub struct {
	nextId   int
	expenses map[int]Expense
	// failWith, when set, is returned by every call.
	failWith error
}

func NewStubRepository() *RepositoryStub {
	return &RepositoryStub{nextId: 0, expenses: map[int]Expense{}}
}

func (s *RepositoryStub) FindAll(ctx context.Context) ([]Expense, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.filter(func(Expense) bool { return true }), nil
}

func (s *RepositoryStub) FindById(ctx context.Context, id int) (Expense, error) {
	if s.failWith != nil {
		return Expense{}, s.failWith
	}
	if e, exists := s.expenses[id]; exists {
		return e, nil
	}
	return Expense{}, ErrExpenseNotFound
}

func (s *RepositoryStub) Save(ctx context.Context, expense Expense) (Expense, error) {
	if s.failWith != nil {
		return Expense{}, s.failWith
	}
	if expense.Id == 0 {
		s.nextId++
		expense.Id = s.nextId
	} else if _, exists := s.expenses[expense.Id]; !exists {
		return Expense{}, ErrExpenseNotFound
	}
	s.expenses[expense.Id] = expense
	return expense, nil
}

func (s *RepositoryStub) ExistsById(ctx context.Context, id int) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	_, exists := s.expenses[id]
	return exists, nil
}

func (s *RepositoryStub) DeleteById(ctx context.Context, id int) error {
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.expenses, id)
	return nil
}

func (s *RepositoryStub) FindByCategory(ctx context.Context, category string) ([]Expense, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.filter(func(e Expense) bool { return e.Category == category }), nil
}

func (s *RepositoryStub) FindByDateBetween(ctx context.Context, start, end time.Time) ([]Expense, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	start, end = DateOf(start), DateOf(end)
	return s.filter(func(e Expense) bool {
		return !e.Date.Before(start) && !e.Date.After(end)
	}), nil
}

func (s *RepositoryStub) SumByCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	if s.failWith != nil {
		return decimal.Zero, s.failWith
	}
	total := decimal.Zero
	for _, e := range s.expenses {
		if e.Category == category {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *RepositoryStub) FindAllCategories(ctx context.Context) ([]string, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	categories := make([]string, 0)
	for _, e := range s.expenses {
		if !slices.Contains(categories, e.Category) {
			categories = append(categories, e.Category)
		}
	}
	slices.Sort(categories)
	return categories, nil
}

func (s *RepositoryStub) filter(keep func(Expense) bool) []Expense {
	result := make([]Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if keep(e) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b Expense) int { return a.Id - b.Id })
	return result
}

func (s *RepositoryStub) Cleanup() {
	s.expenses = map[int]Expense{}
	s.failWith = nil
}

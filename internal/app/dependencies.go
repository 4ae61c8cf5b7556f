package app

import (
	"context"

	"github.com/klokku/expenses/internal/event_bus"
	"github.com/klokku/expenses/internal/utils"
	"github.com/klokku/expenses/pkg/expense"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	ExpenseRepo    expense.Repository
	ExpenseService expense.Service
	ExpenseHandler *expense.Handler

	HealthHandler *HealthHandler
}

// BuildDependencies wires the expense feature on top of the given repository.
// ping reports whether the storage backend is reachable.
func BuildDependencies(repo expense.Repository, ping func(ctx context.Context) error, clock utils.Clock) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus(deps.Clock)

	deps.ExpenseRepo = repo
	deps.ExpenseService = expense.NewService(deps.ExpenseRepo, deps.EventBus)
	deps.ExpenseHandler = expense.NewHandler(deps.ExpenseService)

	deps.HealthHandler = &HealthHandler{ping: ping}

	return deps
}

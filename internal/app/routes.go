package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	r.HandleFunc("/api/health", deps.HealthHandler.Health).Methods("GET")

	// Aggregations are registered before /{id} so their fixed segments win.
	r.HandleFunc("/api/expenses/categories", deps.ExpenseHandler.GetCategories).Methods("GET")
	r.HandleFunc("/api/expenses/date-range", deps.ExpenseHandler.GetByDateRange).Methods("GET")
	r.HandleFunc("/api/expenses/category/{category}/total", deps.ExpenseHandler.GetTotalByCategory).Methods("GET")
	r.HandleFunc("/api/expenses/category/{category}", deps.ExpenseHandler.GetByCategory).Methods("GET")

	// Expenses
	r.HandleFunc("/api/expenses", deps.ExpenseHandler.GetAll).Methods("GET")
	r.HandleFunc("/api/expenses", deps.ExpenseHandler.Create).Methods("POST")
	r.HandleFunc("/api/expenses/{id:[0-9]+}", deps.ExpenseHandler.GetById).Methods("GET")
	r.HandleFunc("/api/expenses/{id:[0-9]+}", deps.ExpenseHandler.Update).Methods("PUT")
	r.HandleFunc("/api/expenses/{id:[0-9]+}", deps.ExpenseHandler.Delete).Methods("DELETE")
}

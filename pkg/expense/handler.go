package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/expenses/internal/rest"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	Id          int              `json:"id"`
	Title       string           `json:"title"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing expenses")
	expenses, err := handler.service.GetAllExpenses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(expenses))
}

func (handler *Handler) GetById(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseId(w, r)
	if !ok {
		return
	}

	expense, err := handler.service.GetExpenseById(r.Context(), id)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpenseToDTO(expense))
}

func (handler *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new expense")
	expense, ok := decodeExpense(w, r)
	if !ok {
		return
	}

	created, err := handler.service.CreateExpense(r.Context(), expense)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ExpenseToDTO(created))
}

func (handler *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating expense")
	id, ok := expenseId(w, r)
	if !ok {
		return
	}
	expense, ok := decodeExpense(w, r)
	if !ok {
		return
	}

	updated, err := handler.service.UpdateExpense(r.Context(), id, expense)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpenseToDTO(updated))
}

func (handler *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting expense")
	id, ok := expenseId(w, r)
	if !ok {
		return
	}

	if err := handler.service.DeleteExpense(r.Context(), id); err != nil {
		handler.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	expenses, err := handler.service.GetExpensesByCategory(r.Context(), category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(expenses))
}

func (handler *Handler) GetByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.DateOnly, r.URL.Query().Get("startDate"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid startDate format", "'startDate' must be an ISO date (YYYY-MM-DD)")
		return
	}
	end, err := time.Parse(time.DateOnly, r.URL.Query().Get("endDate"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid endDate format", "'endDate' must be an ISO date (YYYY-MM-DD)")
		return
	}

	expenses, err := handler.service.GetExpensesByDateRange(r.Context(), start, end)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(expenses))
}

func (handler *Handler) GetTotalByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	total, err := handler.service.GetTotalByCategory(r.Context(), category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (handler *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := handler.service.GetAllCategories(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		rest.WriteError(w, http.StatusNotFound, "Expense not found", "")
	case errors.Is(err, ErrInvalidExpense):
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", err.Error())
	case errors.Is(err, ErrInvalidDateRange):
		rest.WriteError(w, http.StatusBadRequest, "Invalid date range", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func expenseId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense id", err.Error())
		return 0, false
	}
	return id, true
}

func decodeExpense(w http.ResponseWriter, r *http.Request) (Expense, bool) {
	var dto ExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Malformed request body", err.Error())
		return Expense{}, false
	}
	if dto.Amount == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", "amount is required")
		return Expense{}, false
	}
	if dto.Date == "" {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", "date is required")
		return Expense{}, false
	}
	expense, err := DTOToExpense(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid expense", "'date' must be an ISO date (YYYY-MM-DD)")
		return Expense{}, false
	}
	return expense, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func toDTOs(expenses []Expense) []ExpenseDTO {
	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, ExpenseToDTO(e))
	}
	return dtos
}

func ExpenseToDTO(e Expense) ExpenseDTO {
	amount := e.Amount
	return ExpenseDTO{
		Id:          e.Id,
		Title:       e.Title,
		Amount:      &amount,
		Category:    e.Category,
		Date:        e.Date.Format(time.DateOnly),
		Description: e.Description,
	}
}

func DTOToExpense(dto ExpenseDTO) (Expense, error) {
	date, err := time.Parse(time.DateOnly, dto.Date)
	if err != nil {
		return Expense{}, err
	}
	e := Expense{
		Id:          dto.Id,
		Title:       dto.Title,
		Category:    dto.Category,
		Date:        date,
		Description: dto.Description,
	}
	if dto.Amount != nil {
		e.Amount = *dto.Amount
	}
	return e, nil
}

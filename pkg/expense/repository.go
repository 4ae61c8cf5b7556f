package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	FindAll(ctx context.Context) ([]Expense, error)
	FindById(ctx context.Context, id int) (Expense, error)
	Save(ctx context.Context, expense Expense) (Expense, error)
	ExistsById(ctx context.Context, id int) (bool, error)
	DeleteById(ctx context.Context, id int) error
	FindByCategory(ctx context.Context, category string) ([]Expense, error)
	FindByDateBetween(ctx context.Context, start, end time.Time) ([]Expense, error)
	SumByCategory(ctx context.Context, category string) (decimal.Decimal, error)
	FindAllCategories(ctx context.Context) ([]string, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectExpense = `SELECT id, title, amount::text, category, date, description FROM expense`

func (r *RepositoryImpl) FindAll(ctx context.Context) ([]Expense, error) {
	return r.query(ctx, selectExpense+` ORDER BY id`)
}

func (r *RepositoryImpl) FindById(ctx context.Context, id int) (Expense, error) {
	row := r.db.QueryRow(ctx, selectExpense+` WHERE id = $1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		err := fmt.Errorf("could not find expense %d: %w", id, err)
		log.Error(err)
		return Expense{}, err
	}
	return e, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, expense Expense) (Expense, error) {
	if expense.Id == 0 {
		return r.insert(ctx, expense)
	}
	return r.update(ctx, expense)
}

func (r *RepositoryImpl) insert(ctx context.Context, expense Expense) (Expense, error) {
	query := `INSERT INTO expense (
                    title,
                    amount,
                    category,
                    date,
                    description
				) VALUES ($1, $2::numeric, $3, $4, $5) RETURNING id, amount::text`

	var (
		id     int
		stored string
	)
	err := r.db.QueryRow(ctx, query,
		expense.Title,
		expense.Amount.String(),
		expense.Category,
		DateOf(expense.Date),
		nullableString(expense.Description),
	).Scan(&id, &stored)
	if err != nil {
		err := fmt.Errorf("could not insert expense: %w", err)
		log.Error(err)
		return Expense{}, err
	}
	expense.Id = id
	return withStoredAmount(expense, stored)
}

func (r *RepositoryImpl) update(ctx context.Context, expense Expense) (Expense, error) {
	query := `UPDATE expense SET
                  title = $1,
                  amount = $2::numeric,
                  category = $3,
                  date = $4,
                  description = $5
              WHERE id = $6
              RETURNING amount::text`
	var stored string
	err := r.db.QueryRow(ctx, query,
		expense.Title,
		expense.Amount.String(),
		expense.Category,
		DateOf(expense.Date),
		nullableString(expense.Description),
		expense.Id,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		err := fmt.Errorf("could not update expense %d: %w", expense.Id, err)
		log.Error(err)
		return Expense{}, err
	}
	return withStoredAmount(expense, stored)
}

func (r *RepositoryImpl) ExistsById(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM expense WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		err := fmt.Errorf("could not check expense %d: %w", id, err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *RepositoryImpl) DeleteById(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM expense WHERE id = $1`, id)
	if err != nil {
		err := fmt.Errorf("could not delete expense %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) FindByCategory(ctx context.Context, category string) ([]Expense, error) {
	return r.query(ctx, selectExpense+` WHERE category = $1 ORDER BY id`, category)
}

func (r *RepositoryImpl) FindByDateBetween(ctx context.Context, start, end time.Time) ([]Expense, error) {
	return r.query(ctx, selectExpense+` WHERE date BETWEEN $1 AND $2 ORDER BY id`, DateOf(start), DateOf(end))
}

func (r *RepositoryImpl) SumByCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	var total string
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM expense WHERE category = $1`, category).
		Scan(&total)
	if err != nil {
		err := fmt.Errorf("could not sum expenses for category %q: %w", category, err)
		log.Error(err)
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func (r *RepositoryImpl) FindAllCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM expense ORDER BY category`)
	if err != nil {
		err := fmt.Errorf("could not query categories: %w", err)
		log.Error(err)
		return nil, err
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		err := fmt.Errorf("error iterating over categories: %w", err)
		log.Error(err)
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (r *RepositoryImpl) query(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query expenses: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return expenses, nil
}

func scanExpense(row pgx.Row) (Expense, error) {
	var (
		e           Expense
		amount      string
		description sql.NullString
	)
	if err := row.Scan(&e.Id, &e.Title, &amount, &e.Category, &e.Date, &description); err != nil {
		return Expense{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	e.Amount = parsed
	e.Date = DateOf(e.Date)
	e.Description = description.String
	return e, nil
}

// withStoredAmount replaces the amount with the value the column actually holds.
func withStoredAmount(expense Expense, stored string) (Expense, error) {
	amount, err := decimal.NewFromString(stored)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid stored amount %q: %w", stored, err)
	}
	expense.Amount = amount
	return expense, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// SqliteRepository stores expenses in SQLite. Amounts are kept as TEXT and dates
// as ISO dates, so sums are computed with decimal arithmetic instead of SQL SUM.
type SqliteRepository struct {
	db *sql.DB
}

func NewSqliteRepository(db *sql.DB) *SqliteRepository {
	return &SqliteRepository{db: db}
}

const selectSqliteExpense = `SELECT id, title, amount, category, date, description FROM expense`

func (r *SqliteRepository) FindAll(ctx context.Context) ([]Expense, error) {
	return r.query(ctx, selectSqliteExpense+` ORDER BY id`)
}

func (r *SqliteRepository) FindById(ctx context.Context, id int) (Expense, error) {
	row := r.db.QueryRowContext(ctx, selectSqliteExpense+` WHERE id = ?`, id)
	e, err := scanSqliteExpense(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Expense{}, ErrExpenseNotFound
		}
		err := fmt.Errorf("could not find expense %d: %w", id, err)
		log.Error(err)
		return Expense{}, err
	}
	return e, nil
}

func (r *SqliteRepository) Save(ctx context.Context, expense Expense) (Expense, error) {
	if expense.Id == 0 {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO expense (title, amount, category, date, description) VALUES (?, ?, ?, ?, ?)`,
			expense.Title,
			expense.Amount.String(),
			expense.Category,
			DateOf(expense.Date).Format(time.DateOnly),
			nullableString(expense.Description),
		)
		if err != nil {
			err := fmt.Errorf("could not insert expense: %w", err)
			log.Error(err)
			return Expense{}, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			err := fmt.Errorf("could not read inserted expense id: %w", err)
			log.Error(err)
			return Expense{}, err
		}
		expense.Id = int(id)
		return expense, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE expense SET title = ?, amount = ?, category = ?, date = ?, description = ? WHERE id = ?`,
		expense.Title,
		expense.Amount.String(),
		expense.Category,
		DateOf(expense.Date).Format(time.DateOnly),
		nullableString(expense.Description),
		expense.Id,
	)
	if err != nil {
		err := fmt.Errorf("could not update expense %d: %w", expense.Id, err)
		log.Error(err)
		return Expense{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not read rows affected for expense %d: %w", expense.Id, err)
		log.Error(err)
		return Expense{}, err
	}
	if rowsAffected == 0 {
		return Expense{}, ErrExpenseNotFound
	}
	return expense, nil
}

func (r *SqliteRepository) ExistsById(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM expense WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		err := fmt.Errorf("could not check expense %d: %w", id, err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *SqliteRepository) DeleteById(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expense WHERE id = ?`, id); err != nil {
		err := fmt.Errorf("could not delete expense %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *SqliteRepository) FindByCategory(ctx context.Context, category string) ([]Expense, error) {
	return r.query(ctx, selectSqliteExpense+` WHERE category = ? ORDER BY id`, category)
}

func (r *SqliteRepository) FindByDateBetween(ctx context.Context, start, end time.Time) ([]Expense, error) {
	return r.query(ctx, selectSqliteExpense+` WHERE date BETWEEN ? AND ? ORDER BY id`,
		DateOf(start).Format(time.DateOnly),
		DateOf(end).Format(time.DateOnly),
	)
}

func (r *SqliteRepository) SumByCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM expense WHERE category = ?`, category)
	if err != nil {
		err := fmt.Errorf("could not sum expenses for category %q: %w", category, err)
		log.Error(err)
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return decimal.Zero, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			err := fmt.Errorf("invalid amount %q: %w", amount, err)
			log.Error(err)
			return decimal.Zero, err
		}
		total = total.Add(value)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return total, nil
}

func (r *SqliteRepository) FindAllCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM expense ORDER BY category`)
	if err != nil {
		err := fmt.Errorf("could not query categories: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return categories, nil
}

func (r *SqliteRepository) query(ctx context.Context, query string, args ...any) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query expenses: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanSqliteExpense(rows.Scan)
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

func scanSqliteExpense(scan func(dest ...any) error) (Expense, error) {
	var (
		e           Expense
		amount      string
		date        string
		description sql.NullString
	)
	if err := scan(&e.Id, &e.Title, &amount, &e.Category, &date, &description); err != nil {
		return Expense{}, err
	}
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	parsedDate, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	e.Amount = parsedAmount
	e.Date = parsedDate
	e.Description = description.String
	return e, nil
}

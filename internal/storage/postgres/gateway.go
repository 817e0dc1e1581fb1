package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// crudGateway — универсальный SQL-шлюз одиночных записей. Конкретная
// сущность описывается таблицей, колонками и парой функций привязки:
// args отдаёт значения колонок для записи, fields — указатели для чтения
// (идентификатор первым, затем колонки в том же порядке).
type crudGateway[T any] struct {
	db     *sql.DB
	table  string
	idCol  string
	cols   []string
	args   func(e T) []any
	fields func(e *T) []any
}

func (g *crudGateway[T]) Insert(entity T) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var zero T

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		g.table, strings.Join(g.cols, ", "), placeholders(1, len(g.cols)), g.idCol,
	)
	if err := g.db.QueryRowContext(ctx, query, g.args(entity)...).Scan(g.fields(&entity)[0]); err != nil {
		return zero, g.mapWriteError(err, "insert")
	}

	return entity, nil
}

func (g *crudGateway[T]) Get(id int64) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var entity T

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s = $1",
		g.idCol, strings.Join(g.cols, ", "), g.table, g.idCol,
	)
	if err := g.db.QueryRowContext(ctx, query, id).Scan(g.fields(&entity)...); err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, domain.ErrEntityNotFound
		}
		return zero, fmt.Errorf("select from %s: %w", g.table, err)
	}

	return entity, nil
}

func (g *crudGateway[T]) List() ([]T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s ORDER BY %s",
		g.idCol, strings.Join(g.cols, ", "), g.table, g.idCol,
	)
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", g.table, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		var entity T
		if err := rows.Scan(g.fields(&entity)...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", g.table, err)
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", g.table, err)
	}

	return result, nil
}

func (g *crudGateway[T]) Update(id int64, entity T) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sets := make([]string, 0, len(g.cols))
	for i, col := range g.cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		g.table, strings.Join(sets, ", "), g.idCol, len(g.cols)+1,
	)

	res, err := g.db.ExecContext(ctx, query, append(g.args(entity), id)...)
	if err != nil {
		return g.mapWriteError(err, "update")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s update: %w", g.table, err)
	}
	if affected == 0 {
		return domain.ErrEntityNotFound
	}

	return nil
}

func (g *crudGateway[T]) Delete(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", g.table, g.idCol)
	res, err := g.db.ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEntityInUse
		}
		return fmt.Errorf("delete from %s: %w", g.table, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s delete: %w", g.table, err)
	}
	if affected == 0 {
		return domain.ErrEntityNotFound
	}

	return nil
}

func (g *crudGateway[T]) mapWriteError(err error, op string) error {
	switch {
	case isForeignKeyViolation(err):
		return domain.ErrReferenceMissing
	case isUniqueViolation(err):
		return domain.ErrDuplicateEntity
	default:
		return fmt.Errorf("%s %s: %w", op, g.table, err)
	}
}

func placeholders(start, n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("$%d", start+i))
	}
	return strings.Join(parts, ", ")
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_date, customer_id)
		VALUES ($1, $2)
		RETURNING order_id
	`, order.OrderDate, order.CustomerID).Scan(&order.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, domain.ErrCustomerNotFound
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err = r.insertItemsTx(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Replace(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Блокируем строку заказа, чтобы конкурирующие замены одного агрегата
	// выполнялись последовательно, а не переплетались.
	if err = r.lockOrderTx(ctx, tx, order.ID); err != nil {
		return domain.Order{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET order_date = $1,
		    customer_id = $2
		WHERE order_id = $3
	`, order.OrderDate, order.CustomerID, order.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, domain.ErrCustomerNotFound
		}
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	// Полная замена набора позиций: старые удаляются, новые вставляются
	// с новыми идентификаторами. Слияния со старым набором нет.
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return domain.Order{}, fmt.Errorf("delete order items: %w", err)
	}
	if err = r.insertItemsTx(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit replace order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Delete(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.lockOrderTx(ctx, tx, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete order: %w", err)
	}

	return nil
}

// snapshotReadOpts — изоляция для чтения графа: строка заказа и его
// позиции читаются двумя запросами, один снимок гарантирует, что
// конкурентная замена не подмешает новый набор позиций к старым скалярам.
var snapshotReadOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (r *orderRepository) GetGraph(id int64) (domain.OrderGraph, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, snapshotReadOpts)
	if err != nil {
		return domain.OrderGraph{}, fmt.Errorf("begin read tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var graph domain.OrderGraph
	graph, err = r.readGraphTx(ctx, tx, id)
	if err != nil {
		return domain.OrderGraph{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.OrderGraph{}, fmt.Errorf("commit read tx: %w", err)
	}

	return graph, nil
}

func (r *orderRepository) readGraphTx(ctx context.Context, tx *sql.Tx, id int64) (domain.OrderGraph, error) {
	var graph domain.OrderGraph

	err := tx.QueryRowContext(ctx, `
		SELECT o.order_id, o.order_date, o.customer_id,
		       c.customer_id, c.full_name, c.email, c.password_hash
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		WHERE o.order_id = $1
	`, id).Scan(
		&graph.Order.ID, &graph.Order.OrderDate, &graph.Order.CustomerID,
		&graph.Customer.ID, &graph.Customer.FullName, &graph.Customer.Email, &graph.Customer.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OrderGraph{}, domain.ErrOrderNotFound
		}
		return domain.OrderGraph{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItemGraphs(ctx, tx, graph.Order.ID)
	if err != nil {
		return domain.OrderGraph{}, err
	}
	graph.Items = items
	for _, ig := range items {
		graph.Order.Items = append(graph.Order.Items, ig.Item)
	}

	return graph, nil
}

func (r *orderRepository) ListGraphs() ([]domain.OrderGraph, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, snapshotReadOpts)
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT o.order_id, o.order_date, o.customer_id,
		       c.customer_id, c.full_name, c.email, c.password_hash
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		ORDER BY o.order_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	graphs := make([]domain.OrderGraph, 0)
	for rows.Next() {
		var graph domain.OrderGraph
		if err = rows.Scan(
			&graph.Order.ID, &graph.Order.OrderDate, &graph.Order.CustomerID,
			&graph.Customer.ID, &graph.Customer.FullName, &graph.Customer.Email, &graph.Customer.PasswordHash,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		graphs = append(graphs, graph)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	for i := range graphs {
		var items []domain.OrderItemGraph
		items, err = r.loadItemGraphs(ctx, tx, graphs[i].Order.ID)
		if err != nil {
			return nil, err
		}
		graphs[i].Items = items
		for _, ig := range items {
			graphs[i].Order.Items = append(graphs[i].Order.Items, ig.Item)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read tx: %w", err)
	}

	return graphs, nil
}

func (r *orderRepository) insertItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, items []domain.OrderItem) error {
	for i := range items {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`, orderID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice).Scan(&items[i].ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) lockOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT order_id FROM orders WHERE order_id = $1 FOR UPDATE
	`, orderID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("lock order row: %w", err)
	}
	return nil
}

func (r *orderRepository) loadItemGraphs(ctx context.Context, tx *sql.Tx, orderID int64) ([]domain.OrderItemGraph, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT i.order_item_id, i.order_id, i.product_id, i.quantity, i.unit_price,
		       p.product_id, p.name, p.sku, p.price, p.category_id, p.image_mime_type
		FROM order_items i
		JOIN products p ON p.product_id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.order_item_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItemGraph, 0)
	for rows.Next() {
		var ig domain.OrderItemGraph
		if err := rows.Scan(
			&ig.Item.ID, &ig.Item.OrderID, &ig.Item.ProductID, &ig.Item.Quantity, &ig.Item.UnitPrice,
			&ig.Product.ID, &ig.Product.Name, &ig.Product.SKU, &ig.Product.Price,
			&ig.Product.CategoryID, &ig.Product.ImageMimeType,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, ig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)

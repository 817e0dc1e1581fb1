package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// orderRepositoryInMemory реализует агрегат заказа поверх общего Store.
// Мутации выполняются под одной блокировкой, поэтому заказ и его позиции
// меняются как единое целое.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов для
// локальной разработки и тестов.
func NewOrderRepository(s *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: s}
}

func (r *orderRepositoryInMemory) Create(order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.customers[order.CustomerID]; !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}
	for _, item := range order.Items {
		if _, ok := r.store.products[item.ProductID]; !ok {
			return domain.Order{}, domain.ErrProductNotFound
		}
	}

	order.ID = r.store.issueID("orders")
	order.Items = cloneItems(order.Items)
	for i := range order.Items {
		order.Items[i].ID = r.store.issueID("order_items")
		order.Items[i].OrderID = order.ID
	}

	r.store.orders[order.ID] = order
	return order, nil
}

func (r *orderRepositoryInMemory) Replace(order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[order.ID]; !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if _, ok := r.store.customers[order.CustomerID]; !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}
	for _, item := range order.Items {
		if _, ok := r.store.products[item.ProductID]; !ok {
			return domain.Order{}, domain.ErrProductNotFound
		}
	}

	// Старый набор позиций отбрасывается целиком, новые позиции получают
	// новые идентификаторы.
	order.Items = cloneItems(order.Items)
	for i := range order.Items {
		order.Items[i].ID = r.store.issueID("order_items")
		order.Items[i].OrderID = order.ID
	}

	r.store.orders[order.ID] = order
	return order, nil
}

func (r *orderRepositoryInMemory) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.store.orders, id)
	return nil
}

func (r *orderRepositoryInMemory) GetGraph(id int64) (domain.OrderGraph, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.OrderGraph{}, domain.ErrOrderNotFound
	}
	return r.buildGraph(order), nil
}

func (r *orderRepositoryInMemory) ListGraphs() ([]domain.OrderGraph, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]int64, 0, len(r.store.orders))
	for id := range r.store.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	graphs := make([]domain.OrderGraph, 0, len(ids))
	for _, id := range ids {
		graphs = append(graphs, r.buildGraph(r.store.orders[id]))
	}
	return graphs, nil
}

// buildGraph раскрывает связи заказа. Вызывается под блокировкой чтения.
func (r *orderRepositoryInMemory) buildGraph(order domain.Order) domain.OrderGraph {
	graph := domain.OrderGraph{
		Order:    order,
		Customer: r.store.customers[order.CustomerID],
	}
	graph.Order.Items = cloneItems(order.Items)
	for _, item := range graph.Order.Items {
		graph.Items = append(graph.Items, domain.OrderItemGraph{
			Item:    item,
			Product: r.store.products[item.ProductID],
		})
	}
	return graph
}

func cloneItems(items []domain.OrderItem) []domain.OrderItem {
	return append([]domain.OrderItem(nil), items...)
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)

// referenceCheckerInMemory проверяет ссылки кандидата-заказа по Store.
type referenceCheckerInMemory struct {
	store *Store
}

// NewReferenceChecker создаёт in-memory проверку ссылок заказа.
func NewReferenceChecker(s *Store) domain.ReferenceChecker {
	return &referenceCheckerInMemory{store: s}
}

func (c *referenceCheckerInMemory) CustomerExists(id int64) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	_, ok := c.store.customers[id]
	return ok, nil
}

func (c *referenceCheckerInMemory) ProductExists(id int64) (bool, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	_, ok := c.store.products[id]
	return ok, nil
}

var _ domain.ReferenceChecker = (*referenceCheckerInMemory)(nil)

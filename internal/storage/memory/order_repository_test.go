package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// seedCatalog наполняет хранилище покупателем и двумя товарами.
func seedCatalog(t *testing.T, s *Store) (customerID int64, productIDs []int64) {
	t.Helper()

	repos := NewCatalogRepositories(s)
	category, err := repos.Categories.Insert(domain.Category{Name: "electronics"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	for _, name := range []string{"mouse", "monitor"} {
		product, err := repos.Products.Insert(domain.Product{
			Name:       name,
			Price:      decimal.NewFromInt(100),
			CategoryID: category.ID,
		})
		if err != nil {
			t.Fatalf("insert product %s: %v", name, err)
		}
		productIDs = append(productIDs, product.ID)
	}
	customer, err := repos.Customers.Insert(domain.Customer{FullName: "Ivan Petrov", Email: "ivan@example.com"})
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return customer.ID, productIDs
}

func makeTestOrder(customerID int64, productIDs ...int64) domain.Order {
	order := domain.Order{
		CustomerID: customerID,
		OrderDate:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, productID := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: productID,
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(100),
		})
	}
	return order
}

func TestOrderCreateAssignsIDs(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(makeTestOrder(customerID, productIDs...))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if created.ID == 0 {
		t.Fatal("expected order id to be issued")
	}
	if len(created.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(created.Items))
	}
	for _, item := range created.Items {
		if item.ID == 0 {
			t.Fatal("expected item id to be issued")
		}
		if item.OrderID != created.ID {
			t.Fatalf("item must belong to the new order, got order_id=%d", item.OrderID)
		}
	}
}

func TestOrderCreateChecksReferences(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	_, err := repo.Create(makeTestOrder(999, productIDs...))
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	_, err = repo.Create(makeTestOrder(customerID, 999))
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	// Отказ не должен оставлять частично записанный заказ.
	graphs, err := repo.ListGraphs()
	if err != nil {
		t.Fatalf("list graphs: %v", err)
	}
	if len(graphs) != 0 {
		t.Fatalf("rejected create must not persist anything, got %d orders", len(graphs))
	}
}

func TestOrderReplaceSwapsItemSet(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(makeTestOrder(customerID, productIDs[0]))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	oldItemID := created.Items[0].ID

	replacement := makeTestOrder(customerID, productIDs[1])
	replacement.ID = created.ID
	replaced, err := repo.Replace(replacement)
	if err != nil {
		t.Fatalf("replace order: %v", err)
	}

	if len(replaced.Items) != 1 {
		t.Fatalf("expected 1 item after replace, got %d", len(replaced.Items))
	}
	if replaced.Items[0].ProductID != productIDs[1] {
		t.Fatalf("expected new product %d, got %d", productIDs[1], replaced.Items[0].ProductID)
	}
	if replaced.Items[0].ID == oldItemID {
		t.Fatal("replace must reissue item ids, not reuse the old ones")
	}

	graph, err := repo.GetGraph(created.ID)
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if len(graph.Items) != 1 || graph.Items[0].Item.ProductID != productIDs[1] {
		t.Fatalf("old item set must be gone, got %+v", graph.Items)
	}
}

func TestOrderReplaceToEmptyItems(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(makeTestOrder(customerID, productIDs...))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	replacement := makeTestOrder(customerID)
	replacement.ID = created.ID
	replaced, err := repo.Replace(replacement)
	if err != nil {
		t.Fatalf("replace order with empty items: %v", err)
	}
	if len(replaced.Items) != 0 {
		t.Fatalf("expected empty item set, got %d items", len(replaced.Items))
	}
}

func TestOrderReplaceMissing(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	missing := makeTestOrder(customerID, productIDs[0])
	missing.ID = 404
	if _, err := repo.Replace(missing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderDelete(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(makeTestOrder(customerID, productIDs...))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := repo.Delete(created.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if _, err := repo.GetGraph(created.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound after delete, got %v", err)
	}
	if err := repo.Delete(created.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on repeated delete, got %v", err)
	}
}

func TestOrderGraphExpandsReferences(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(makeTestOrder(customerID, productIDs...))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	graph, err := repo.GetGraph(created.ID)
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if graph.Customer.ID != customerID {
		t.Fatalf("expected customer %d in graph, got %d", customerID, graph.Customer.ID)
	}
	if len(graph.Items) != 2 {
		t.Fatalf("expected 2 item graphs, got %d", len(graph.Items))
	}
	for i, item := range graph.Items {
		if item.Product.ID != item.Item.ProductID {
			t.Fatalf("item %d product not expanded: %+v", i, item)
		}
	}
}

func TestOrderListGraphsOrdered(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	repo := NewOrderRepository(store)

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(makeTestOrder(customerID, productIDs[0])); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	graphs, err := repo.ListGraphs()
	if err != nil {
		t.Fatalf("list graphs: %v", err)
	}
	if len(graphs) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(graphs))
	}
	for i := 1; i < len(graphs); i++ {
		if graphs[i-1].Order.ID >= graphs[i].Order.ID {
			t.Fatalf("expected stable id order, got %d before %d", graphs[i-1].Order.ID, graphs[i].Order.ID)
		}
	}
}

func TestReferenceChecker(t *testing.T) {
	store := NewStore()
	customerID, productIDs := seedCatalog(t, store)
	checker := NewReferenceChecker(store)

	ok, err := checker.CustomerExists(customerID)
	if err != nil || !ok {
		t.Fatalf("expected existing customer, got ok=%v err=%v", ok, err)
	}
	ok, err = checker.CustomerExists(999)
	if err != nil || ok {
		t.Fatalf("expected missing customer, got ok=%v err=%v", ok, err)
	}
	ok, err = checker.ProductExists(productIDs[0])
	if err != nil || !ok {
		t.Fatalf("expected existing product, got ok=%v err=%v", ok, err)
	}
}

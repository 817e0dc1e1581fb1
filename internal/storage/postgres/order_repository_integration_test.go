package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func seedCatalogForIntegrationTest(t *testing.T, store *Store) (customerID int64, productIDs []int64) {
	t.Helper()

	repos := NewCatalogRepositories(store)
	category, err := repos.Categories.Insert(domain.Category{Name: "electronics"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	for _, name := range []string{"mouse", "monitor"} {
		product, err := repos.Products.Insert(domain.Product{
			Name:       name,
			SKU:        name + "-sku",
			Price:      decimal.NewFromFloat(99.90),
			CategoryID: category.ID,
		})
		if err != nil {
			t.Fatalf("insert product %s: %v", name, err)
		}
		productIDs = append(productIDs, product.ID)
	}
	customer, err := repos.Customers.Insert(domain.Customer{
		FullName:     "Ivan Petrov",
		Email:        "ivan@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return customer.ID, productIDs
}

func integrationOrder(customerID int64, productIDs ...int64) domain.Order {
	order := domain.Order{
		CustomerID: customerID,
		OrderDate:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, productID := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: productID,
			Quantity:  2,
			UnitPrice: decimal.NewFromFloat(99.90),
		})
	}
	return order
}

func TestIntegrationOrderCreateAndGetGraph(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(integrationOrder(customerID, productIDs...))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected issued order id")
	}

	graph, err := repo.GetGraph(created.ID)
	if err != nil {
		t.Fatalf("get graph: %v", err)
	}
	if graph.Customer.ID != customerID {
		t.Fatalf("expected customer %d, got %d", customerID, graph.Customer.ID)
	}
	if len(graph.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(graph.Items))
	}
	for _, ig := range graph.Items {
		if ig.Item.OrderID != created.ID {
			t.Fatalf("item %d does not belong to order %d", ig.Item.ID, created.ID)
		}
		if ig.Product.ID != ig.Item.ProductID {
			t.Fatalf("product not expanded for item %d", ig.Item.ID)
		}
		if !ig.Item.UnitPrice.Equal(decimal.NewFromFloat(99.90)) {
			t.Fatalf("unit price lost precision: %s", ig.Item.UnitPrice)
		}
	}
}

func TestIntegrationOrderCreateForeignKeys(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	if _, err := repo.Create(integrationOrder(999, productIDs...)); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := repo.Create(integrationOrder(customerID, 999)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	// Откат оставляет хранилище пустым.
	graphs, err := repo.ListGraphs()
	if err != nil {
		t.Fatalf("list graphs: %v", err)
	}
	if len(graphs) != 0 {
		t.Fatalf("rejected create must roll back, got %d orders", len(graphs))
	}
}

func TestIntegrationOrderReplace(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(integrationOrder(customerID, productIDs[0]))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	oldItemID := created.Items[0].ID

	replacement := integrationOrder(customerID, productIDs[1])
	replacement.ID = created.ID
	replaced, err := repo.Replace(replacement)
	if err != nil {
		t.Fatalf("replace order: %v", err)
	}
	if len(replaced.Items) != 1 {
		t.Fatalf("expected 1 item after replace, got %d", len(replaced.Items))
	}
	if replaced.Items[0].ID == oldItemID {
		t.Fatal("replace must reissue item ids")
	}
	if replaced.Items[0].ProductID != productIDs[1] {
		t.Fatalf("expected product %d, got %d", productIDs[1], replaced.Items[0].ProductID)
	}

	// Замена пустым набором позиций допустима.
	empty := integrationOrder(customerID)
	empty.ID = created.ID
	emptied, err := repo.Replace(empty)
	if err != nil {
		t.Fatalf("replace with empty items: %v", err)
	}
	if len(emptied.Items) != 0 {
		t.Fatalf("expected empty item set, got %d", len(emptied.Items))
	}

	missing := integrationOrder(customerID, productIDs[0])
	missing.ID = 999
	if _, err := repo.Replace(missing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestIntegrationOrderDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	created, err := repo.Create(integrationOrder(customerID, productIDs...))
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

	// Позиции удалены вместе с заказом.
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM order_items`).Scan(&count); err != nil {
		t.Fatalf("count order items: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orphan items, got %d", count)
	}
}

// Чтение графа не должно смешивать состояния: скаляры заказа и набор
// позиций приходят из одного снимка даже при конкурентных заменах.
func TestIntegrationOrderGetGraphSnapshot(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	repo := NewOrderRepository(store)

	dateA := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	dateB := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)

	initial := integrationOrder(customerID, productIDs[0])
	initial.OrderDate = dateA
	created, err := repo.Create(initial)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Писатель гоняет заказ между двумя согласованными состояниями:
	// dateA+первый товар и dateB+второй товар.
	stop := make(chan struct{})
	writerErr := make(chan error, 1)
	go func() {
		defer close(writerErr)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}

			next := integrationOrder(customerID, productIDs[i%2])
			next.ID = created.ID
			next.OrderDate = dateA
			if i%2 == 1 {
				next.OrderDate = dateB
			}
			if _, err := repo.Replace(next); err != nil {
				writerErr <- err
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		graph, err := repo.GetGraph(created.ID)
		if err != nil {
			t.Fatalf("get graph: %v", err)
		}
		if len(graph.Items) != 1 {
			t.Fatalf("expected exactly one item, got %d", len(graph.Items))
		}

		gotProduct := graph.Items[0].Item.ProductID
		switch {
		case graph.Order.OrderDate.Equal(dateA) && gotProduct == productIDs[0]:
		case graph.Order.OrderDate.Equal(dateB) && gotProduct == productIDs[1]:
		default:
			t.Fatalf("mixed snapshot: date=%s product=%d", graph.Order.OrderDate, gotProduct)
		}
	}

	close(stop)
	if err := <-writerErr; err != nil {
		t.Fatalf("concurrent replace: %v", err)
	}
}

func TestIntegrationReferenceChecker(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	customerID, productIDs := seedCatalogForIntegrationTest(t, store)
	checker := NewReferenceChecker(store)

	ok, err := checker.CustomerExists(customerID)
	if err != nil || !ok {
		t.Fatalf("expected existing customer, got ok=%v err=%v", ok, err)
	}
	ok, err = checker.ProductExists(productIDs[0])
	if err != nil || !ok {
		t.Fatalf("expected existing product, got ok=%v err=%v", ok, err)
	}
	ok, err = checker.ProductExists(999)
	if err != nil || ok {
		t.Fatalf("expected missing product, got ok=%v err=%v", ok, err)
	}
}

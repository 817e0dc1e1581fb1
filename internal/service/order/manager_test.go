package order_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

type managerEnv struct {
	manager    *ordersvc.Manager
	outbox     domain.OutboxRepository
	timeline   domain.TimelineRepository
	customerID int64
	productIDs []int64
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newManagerEnv(t *testing.T) managerEnv {
	t.Helper()

	store := memory.NewStore()
	repos := memory.NewCatalogRepositories(store)

	category, err := repos.Categories.Insert(domain.Category{Name: "electronics"})
	require.NoError(t, err)

	var productIDs []int64
	for _, name := range []string{"mouse", "monitor"} {
		product, err := repos.Products.Insert(domain.Product{
			Name:       name,
			Price:      decimal.NewFromInt(150),
			CategoryID: category.ID,
		})
		require.NoError(t, err)
		productIDs = append(productIDs, product.ID)
	}

	customer, err := repos.Customers.Insert(domain.Customer{FullName: "Ivan Petrov", Email: "ivan@example.com"})
	require.NoError(t, err)

	outbox := memory.NewOutboxRepository()
	timeline := memory.NewTimelineRepository()
	manager := ordersvc.NewManager(
		memory.NewOrderRepository(store),
		ordersvc.NewValidator(memory.NewReferenceChecker(store)),
		outbox,
		timeline,
		nil,
		loggerForTests(),
	)

	return managerEnv{
		manager:    manager,
		outbox:     outbox,
		timeline:   timeline,
		customerID: customer.ID,
		productIDs: productIDs,
	}
}

func candidateOrder(customerID int64, productIDs ...int64) domain.Order {
	order := domain.Order{
		CustomerID: customerID,
		OrderDate:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	for _, productID := range productIDs {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: productID,
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(150),
		})
	}
	return order
}

func TestManagerCreate(t *testing.T) {
	env := newManagerEnv(t)

	graph, err := env.manager.Create(candidateOrder(env.customerID, env.productIDs...))
	require.NoError(t, err)
	require.NotZero(t, graph.Order.ID)
	require.Equal(t, env.customerID, graph.Customer.ID)
	require.Len(t, graph.Items, 2)

	events, err := env.timeline.List(graph.Order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderCreated", events[0].Type)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "order", pending[0].AggregateType)
	require.Equal(t, string(kafka.EventTypeOrderCreated), pending[0].EventType)

	var event kafka.OrderEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	require.Equal(t, graph.Order.ID, event.OrderID)
	require.Equal(t, env.customerID, event.CustomerID)
	require.Equal(t, 2, event.ItemCount)
}

func TestManagerCreateIgnoresClientID(t *testing.T) {
	env := newManagerEnv(t)

	candidate := candidateOrder(env.customerID, env.productIDs[0])
	candidate.ID = 777

	graph, err := env.manager.Create(candidate)
	require.NoError(t, err)
	require.NotEqual(t, int64(777), graph.Order.ID)
}

func TestManagerCreateInvalidShape(t *testing.T) {
	env := newManagerEnv(t)

	candidate := candidateOrder(env.customerID, env.productIDs[0])
	candidate.Items[0].Quantity = 0

	_, err := env.manager.Create(candidate)
	require.Error(t, err)
	require.True(t, domain.IsInvalid(err))

	// Отклонённый кандидат не оставляет следов.
	graphs, err := env.manager.List()
	require.NoError(t, err)
	require.Empty(t, graphs)
	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestManagerCreateMissingReferences(t *testing.T) {
	env := newManagerEnv(t)

	_, err := env.manager.Create(candidateOrder(999, env.productIDs[0]))
	require.Error(t, err)
	require.True(t, domain.IsReferential(err))

	_, err = env.manager.Create(candidateOrder(env.customerID, 999))
	require.Error(t, err)
	require.True(t, domain.IsReferential(err))
	require.False(t, domain.IsInvalid(err))
}

func TestManagerReplace(t *testing.T) {
	env := newManagerEnv(t)

	created, err := env.manager.Create(candidateOrder(env.customerID, env.productIDs[0]))
	require.NoError(t, err)
	oldItemID := created.Items[0].Item.ID

	replacement := candidateOrder(env.customerID, env.productIDs[1])
	replacement.ID = created.Order.ID

	replaced, err := env.manager.Replace(replacement)
	require.NoError(t, err)
	require.Len(t, replaced.Items, 1)
	require.Equal(t, env.productIDs[1], replaced.Items[0].Item.ProductID)
	require.NotEqual(t, oldItemID, replaced.Items[0].Item.ID, "replace must reissue item ids")

	events, err := env.timeline.List(created.Order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "OrderReplaced", events[1].Type)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, string(kafka.EventTypeOrderUpdated), pending[1].EventType)
}

func TestManagerReplaceEmptiesItems(t *testing.T) {
	env := newManagerEnv(t)

	created, err := env.manager.Create(candidateOrder(env.customerID, env.productIDs...))
	require.NoError(t, err)

	replacement := candidateOrder(env.customerID)
	replacement.ID = created.Order.ID

	replaced, err := env.manager.Replace(replacement)
	require.NoError(t, err)
	require.Empty(t, replaced.Items)
}

func TestManagerReplaceMissingOrder(t *testing.T) {
	env := newManagerEnv(t)

	replacement := candidateOrder(env.customerID, env.productIDs[0])
	replacement.ID = 404

	_, err := env.manager.Replace(replacement)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Отсутствие заказа важнее битых ссылок в кандидате.
	ghost := candidateOrder(999, 999)
	ghost.ID = 404
	_, err = env.manager.Replace(ghost)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	require.False(t, domain.IsReferential(err))
}

func TestManagerDelete(t *testing.T) {
	env := newManagerEnv(t)

	created, err := env.manager.Create(candidateOrder(env.customerID, env.productIDs...))
	require.NoError(t, err)

	require.NoError(t, env.manager.Delete(created.Order.ID))

	_, err = env.manager.Get(created.Order.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, string(kafka.EventTypeOrderDeleted), pending[1].EventType)

	var event kafka.OrderEvent
	require.NoError(t, json.Unmarshal(pending[1].Payload, &event))
	require.Equal(t, 2, event.ItemCount, "deleted event keeps the final item count")
}

func TestManagerDeleteMissingOrder(t *testing.T) {
	env := newManagerEnv(t)

	err := env.manager.Delete(404)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	pending, err := env.outbox.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending, "no events for rejected delete")
}

func TestManagerTimeline(t *testing.T) {
	env := newManagerEnv(t)

	created, err := env.manager.Create(candidateOrder(env.customerID, env.productIDs[0]))
	require.NoError(t, err)

	replacement := candidateOrder(env.customerID, env.productIDs[1])
	replacement.ID = created.Order.ID
	_, err = env.manager.Replace(replacement)
	require.NoError(t, err)

	events, err := env.manager.Timeline(created.Order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "OrderCreated", events[0].Type)
	require.Equal(t, "OrderReplaced", events[1].Type)

	_, err = env.manager.Timeline(404)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestValidatorDeduplicatesProductChecks(t *testing.T) {
	env := newManagerEnv(t)

	// Дубли позиций по одному товару допустимы и валидируются один раз.
	candidate := candidateOrder(env.customerID, env.productIDs[0], env.productIDs[0])
	graph, err := env.manager.Create(candidate)
	require.NoError(t, err)
	require.Len(t, graph.Items, 2)
}

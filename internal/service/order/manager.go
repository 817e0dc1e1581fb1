package order

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

const (
	timelineEventOrderCreated  = "OrderCreated"
	timelineEventOrderReplaced = "OrderReplaced"
	timelineEventOrderDeleted  = "OrderDeleted"
)

// Manager координирует мутации агрегата заказа: валидация кандидата,
// атомарная запись через репозиторий, событие в outbox и запись в timeline.
// Проверка ссылок и сама запись разделены, поэтому окончательную
// целостность гарантируют ограничения хранилища, а не валидатор.
type Manager struct {
	repo      domain.OrderRepository
	validator *Validator
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
}

// NewManager конструирует менеджер агрегата с зависимостями.
// outbox, timeline и metrics необязательны.
func NewManager(
	repo domain.OrderRepository,
	validator *Validator,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *Manager {
	if logger == nil {
		logger = log.WithField("component", "order-manager")
	}
	return &Manager{
		repo:      repo,
		validator: validator,
		outbox:    outbox,
		timeline:  timeline,
		metrics:   orderMetrics,
		logger:    logger,
	}
}

// Create валидирует и атомарно сохраняет новый заказ вместе с позициями.
// Возвращает раскрытый граф сохранённого агрегата.
func (m *Manager) Create(order domain.Order) (domain.OrderGraph, error) {
	started := time.Now()

	order.ID = 0
	order.NormalizeDates()
	if err := m.validator.Validate(order); err != nil {
		m.recordRejected("create", err)
		return domain.OrderGraph{}, err
	}

	created, err := m.repo.Create(order)
	if err != nil {
		m.logger.WithError(err).Error("failed to create order")
		return domain.OrderGraph{}, err
	}

	m.emitEvent(created, kafka.EventTypeOrderCreated)
	m.appendTimeline(created.ID, timelineEventOrderCreated, "")
	if m.metrics != nil {
		m.metrics.RecordOrderCreated()
		m.metrics.RecordMutationDuration("create", time.Since(started))
	}

	return m.repo.GetGraph(created.ID)
}

// Replace валидирует и атомарно заменяет заказ целиком: скалярные поля
// обновляются, старый набор позиций отбрасывается, новый вставляется.
func (m *Manager) Replace(order domain.Order) (domain.OrderGraph, error) {
	started := time.Now()

	order.NormalizeDates()
	// Отсутствие самого заказа важнее битых ссылок в теле запроса:
	// клиент получает 404, а не 422.
	if _, err := m.repo.GetGraph(order.ID); err != nil {
		return domain.OrderGraph{}, err
	}
	if err := m.validator.Validate(order); err != nil {
		m.recordRejected("replace", err)
		return domain.OrderGraph{}, err
	}

	replaced, err := m.repo.Replace(order)
	if err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			m.logger.WithError(err).WithField("order_id", order.ID).Error("failed to replace order")
		}
		return domain.OrderGraph{}, err
	}

	m.emitEvent(replaced, kafka.EventTypeOrderUpdated)
	m.appendTimeline(replaced.ID, timelineEventOrderReplaced, "")
	if m.metrics != nil {
		m.metrics.RecordOrderReplaced()
		m.metrics.RecordMutationDuration("replace", time.Since(started))
	}

	return m.repo.GetGraph(replaced.ID)
}

// Delete удаляет заказ вместе с позициями.
func (m *Manager) Delete(id int64) error {
	started := time.Now()

	deleted, err := m.repo.GetGraph(id)
	if err != nil {
		return err
	}

	if err := m.repo.Delete(id); err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			m.logger.WithError(err).WithField("order_id", id).Error("failed to delete order")
		}
		return err
	}

	m.emitEvent(deleted.Order, kafka.EventTypeOrderDeleted)
	m.appendTimeline(id, timelineEventOrderDeleted, "")
	if m.metrics != nil {
		m.metrics.RecordOrderDeleted()
		m.metrics.RecordMutationDuration("delete", time.Since(started))
	}

	return nil
}

// Get возвращает заказ с раскрытым графом связей.
func (m *Manager) Get(id int64) (domain.OrderGraph, error) {
	return m.repo.GetGraph(id)
}

// List возвращает все заказы с раскрытыми графами в порядке идентификаторов.
func (m *Manager) List() ([]domain.OrderGraph, error) {
	return m.repo.ListGraphs()
}

// Timeline возвращает историю событий заказа. Для отсутствующего заказа
// возвращает ErrOrderNotFound.
func (m *Manager) Timeline(id int64) ([]domain.TimelineEvent, error) {
	if _, err := m.repo.GetGraph(id); err != nil {
		return nil, err
	}
	if m.timeline == nil {
		return nil, nil
	}
	return m.timeline.List(id)
}

// emitEvent кладёт событие агрегата в outbox после успешного коммита.
// Ошибка постановки в очередь не откатывает мутацию.
func (m *Manager) emitEvent(order domain.Order, eventType kafka.EventType) {
	if m.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.CustomerID, len(order.Items), nil)
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   formatID(order.ID),
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := m.outbox.Enqueue(msg); err != nil {
		m.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue event failed")
	} else if m.metrics != nil {
		m.metrics.RecordOutboxEvent()
	}
}

func (m *Manager) appendTimeline(orderID int64, eventType, reason string) {
	if m.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	}
	if err := m.timeline.Append(event); err != nil {
		m.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("failed to append timeline event")
		return
	}
	if m.metrics != nil {
		m.metrics.RecordTimelineEvent()
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (m *Manager) recordRejected(op string, err error) {
	if m.metrics == nil {
		return
	}
	reason := "invalid"
	if domain.IsReferential(err) {
		reason = "missing_reference"
	}
	m.metrics.RecordOrderRejected(op + "_" + reason)
}

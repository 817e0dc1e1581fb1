package kafka

import "time"

// EventType — тип события агрегата заказа в topic'е событий.
type EventType string

const (
	EventTypeOrderCreated EventType = "order.created"
	EventTypeOrderUpdated EventType = "order.updated"
	EventTypeOrderDeleted EventType = "order.deleted"
)

// Topic'и, с которыми работает сервис.
const (
	// TopicOrderEvents — события жизненного цикла заказов.
	TopicOrderEvents = "ecom.order.events"
	// TopicDeadLetterQueue — сообщения, не доставленные после всех попыток.
	TopicDeadLetterQueue = "ecom.dlq"
)

// Заголовки, которыми consumer помечает повторные попытки обработки.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// Known сообщает, относится ли тип к известным событиям заказа.
func (t EventType) Known() bool {
	switch t {
	case EventTypeOrderCreated, EventTypeOrderUpdated, EventTypeOrderDeleted:
		return true
	}
	return false
}

// OrderEvent — payload события заказа. Несёт только идентификаторы и
// агрегатные счётчики; сам заказ получатели читают через API.
type OrderEvent struct {
	EventType  EventType              `json:"event_type"`
	OrderID    int64                  `json:"order_id"`
	CustomerID int64                  `json:"customer_id"`
	ItemCount  int                    `json:"item_count"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent собирает событие заказа с отметкой времени в UTC.
func NewOrderEvent(eventType EventType, orderID, customerID int64, itemCount int, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:  eventType,
		OrderID:    orderID,
		CustomerID: customerID,
		ItemCount:  itemCount,
		Timestamp:  time.Now().UTC(),
		Metadata:   metadata,
	}
}

package domain

import "time"

// OutboxMessage — запись transactional outbox: событие, ожидающее
// публикации во внешний брокер.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats — сводка по неопубликованным сообщениям.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxPublisher доставляет outbox-сообщение наружу.
// Реализация обязана быть идемпотентной: worker может повторить доставку.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}

// OutboxRepository хранит события до подтверждённой публикации.
type OutboxRepository interface {
	// Enqueue сохраняет сообщение и возвращает его с выданным id.
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending отдаёт неопубликованные сообщения в порядке постановки.
	PullPending(limit int) ([]OutboxMessage, error)
	// Stats возвращает размер и возраст backlog'а для метрик.
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	// List возвращает события заказа в хронологическом порядке.
	List(orderID int64) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	// CreateProcessing регистрирует ключ; для занятого ключа возвращает
	// существующую запись с ошибкой-описанием конфликта.
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	// DeleteExpired удаляет записи с истёкшим TTL, не больше limit за вызов.
	DeleteExpired(before time.Time, limit int) (int, error)
}

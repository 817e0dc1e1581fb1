package app

import (
	"context"
	"strings"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
)

var orderEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ecom_order_events_consumed_total",
	Help: "Order events read back from kafka by the audit consumer.",
}, []string{"event_type"})

// initKafkaProducer инициализирует Kafka producer, если заданы брокеры.
// Ошибка не фатальна: сервис продолжает работу, события копятся в outbox.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokerList := splitBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// startEventAudit запускает consumer, который читает опубликованные события
// заказов обратно из Kafka: логирует их и считает по типам. Работает только
// при заданном group id; сообщения, не похожие на событие заказа, уходят в DLQ.
func startEventAudit(ctx context.Context, cfg Config, dlq *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	if cfg.KafkaGroupID == "" {
		return nil, nil
	}

	auditLog := logger.WithField("component", "event-audit")
	handler := func(_ context.Context, message *sarama.ConsumerMessage) error {
		event, err := kafka.ParseOrderEvent(message)
		if err != nil {
			return err
		}
		orderEventsConsumed.WithLabelValues(string(event.EventType)).Inc()
		auditLog.WithFields(log.Fields{
			"event_type":  event.EventType,
			"order_id":    event.OrderID,
			"customer_id": event.CustomerID,
			"item_count":  event.ItemCount,
		}).Info("order event observed")
		return nil
	}

	consumer, err := kafka.NewConsumer(
		splitBrokers(cfg.KafkaBrokers),
		cfg.KafkaGroupID,
		[]string{kafka.TopicOrderEvents},
		handler,
		kafka.WithDLQ(dlq),
	)
	if err != nil {
		return nil, err
	}
	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}

	return consumer, nil
}

// closeKafka закрывает producer и consumer, пропуская не созданные.
func closeKafka(producer *kafka.Producer, consumer *kafka.Consumer, logger *log.Entry) {
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop kafka consumer")
		}
	}
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, chunk := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

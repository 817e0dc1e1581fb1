package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultHandlerRetries = 3

// MessageHandler обрабатывает одно сообщение из Kafka.
// Ошибка означает неуспех: сообщение уйдёт на повтор или в DLQ.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// Consumer читает topic'и в составе consumer group. Сообщения, обработка
// которых провалилась после всех повторов, уходят в DLQ, если задан
// dlq-producer; без него offset не подтверждается и сообщение будет
// прочитано снова.
type Consumer struct {
	group      sarama.ConsumerGroup
	topics     []string
	handler    MessageHandler
	dlq        *Producer
	maxRetries int
	logger     *log.Entry
	wg         sync.WaitGroup
}

// ConsumerOption настраивает Consumer при создании.
type ConsumerOption func(*Consumer)

// WithDLQ включает отправку необработанных сообщений в DLQ.
func WithDLQ(producer *Producer) ConsumerOption {
	return func(c *Consumer) { c.dlq = producer }
}

// WithMaxRetries задаёт число повторов обработки до отправки в DLQ.
func WithMaxRetries(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// NewConsumer создаёт consumer group для перечисленных topic'ов.
func NewConsumer(brokers []string, groupID string, topics []string, handler MessageHandler, opts ...ConsumerOption) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	c := &Consumer{
		group:      group,
		topics:     topics,
		handler:    handler,
		maxRetries: defaultHandlerRetries,
		logger: log.WithFields(log.Fields{
			"component": "kafka-consumer",
			"group_id":  groupID,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Start запускает чтение topic'ов до отмены ctx.
func (c *Consumer) Start(ctx context.Context) error {
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()
		// Consume возвращается при каждом rebalance, поэтому крутимся в цикле.
		for ctx.Err() == nil {
			err := c.group.Consume(ctx, c.topics, c)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			if err != nil {
				c.logger.WithError(err).Error("error from consumer")
			}
		}
	}()

	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()

	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
	return nil
}

// Stop закрывает consumer group и дожидается фоновых горутин.
func (c *Consumer) Stop() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup реализует sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup реализует sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim обрабатывает сообщения одной partition.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if c.consume(session.Context(), message) {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// consume обрабатывает сообщение и сообщает, можно ли подтверждать offset.
func (c *Consumer) consume(ctx context.Context, message *sarama.ConsumerMessage) bool {
	entry := c.logger.WithFields(log.Fields{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
	})

	err := c.handler(ctx, message)
	if err == nil {
		return true
	}

	attempt := retryCountFromHeaders(message)
	if attempt < c.maxRetries {
		entry.WithFields(log.Fields{
			"retry_count": attempt,
			"max_retries": c.maxRetries,
		}).WithError(err).Warn("message processing failed, will retry")
		return false
	}

	if c.dlq == nil {
		entry.WithError(err).Error("message processing failed after all retries")
		return false
	}

	if dlqErr := c.deadLetter(message, err); dlqErr != nil {
		entry.WithError(dlqErr).Error("failed to send message to DLQ")
		return false
	}
	entry.WithField("retry_count", attempt).Info("message sent to DLQ after max retries")
	return true
}

// deadLetter публикует сообщение в DLQ вместе с контекстом ошибки.
// Формат понимает cmd/dlq-reprocess.
func (c *Consumer) deadLetter(message *sarama.ConsumerMessage, processingErr error) error {
	payload := map[string]interface{}{
		"original_topic":     message.Topic,
		"original_partition": message.Partition,
		"original_offset":    message.Offset,
		"original_key":       string(message.Key),
		"original_value":     string(message.Value),
		"error_message":      processingErr.Error(),
		"failed_at":          time.Now().UTC().Format(time.RFC3339),
		"retry_count":        retryCountFromHeaders(message),
	}
	return c.dlq.PublishEvent(TopicDeadLetterQueue, string(message.Key), payload)
}

func retryCountFromHeaders(message *sarama.ConsumerMessage) int {
	for _, header := range message.Headers {
		if string(header.Key) != HeaderRetryCount {
			continue
		}
		if count, err := strconv.Atoi(string(header.Value)); err == nil {
			return count
		}
	}
	return 0
}

// ParseOrderEvent декодирует OrderEvent из сообщения.
func ParseOrderEvent(message *sarama.ConsumerMessage) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	return &event, nil
}

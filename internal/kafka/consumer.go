package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"payment-reconciler/internal/models"
)

// Consumer reads PSP notifications from Kafka. This is the second entry path
// next to the webhook: some PSP integrations fan notifications out over a
// broker instead of calling the service directly.
type Consumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
}

func NewNotificationConsumer(brokers []string, groupID string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	topics := []string{"psp-notifications"}

	return &Consumer{
		consumer: consumer,
		topics:   topics,
	}, nil
}

func (c *Consumer) ConsumeNotifications(ctx context.Context, handler func(*models.NotificationMessage) error) error {
	consumerHandler := &NotificationConsumerHandler{Handler: handler}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, consumerHandler); err != nil {
				log.Printf("Error consuming messages: %v", err)
				return err
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// NotificationConsumerHandler is exported for testing purposes
type NotificationConsumerHandler struct {
	Handler func(*models.NotificationMessage) error
}

func (h *NotificationConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *NotificationConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *NotificationConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var notification models.NotificationMessage
		if err := json.Unmarshal(message.Value, &notification); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			continue
		}

		if err := h.Handler(&notification); err != nil {
			// The notification is still marked consumed: a failed
			// reconciliation is recorded and the PSP redelivers.
			log.Printf("Failed to handle notification: %v", err)
		}

		session.MarkMessage(message, "")
	}

	return nil
}

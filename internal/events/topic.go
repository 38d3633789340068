package events

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/config"
)

// EnsureTopic makes sure the order-events topic exists before the consumer
// joins its group, creating it on the controller when missing and waiting for
// the partitions to become visible. Idempotent.
func EnsureTopic(ctx context.Context, cfg config.Kafka, partitions, replication int, log *zap.Logger) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return fmt.Errorf("empty topic")
	}
	if partitions < 1 {
		partitions = 1
	}
	if replication < 1 {
		replication = 1
	}

	dialer := &kafkago.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	if topicVisible(conn, topic, 1) {
		log.Debug("kafka topic exists", zap.String("topic", topic))
		return nil
	}

	if err := createOnController(ctx, dialer, conn, topic, partitions, replication); err != nil {
		return err
	}
	log.Info("created kafka topic",
		zap.String("topic", topic),
		zap.Int("partitions", partitions),
		zap.Int("replication", replication),
	)

	deadline := time.Now().Add(10 * time.Second)
	for !topicVisible(conn, topic, partitions) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("topic %s not visible after creation", topic)
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil
}

func topicVisible(conn *kafkago.Conn, topic string, wantParts int) bool {
	parts, err := conn.ReadPartitions(topic)
	return err == nil && len(parts) >= wantParts
}

func createOnController(ctx context.Context, dialer *kafkago.Dialer, conn *kafkago.Conn, topic string, partitions, replication int) error {
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}

	ctrlConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	})
	// Racing another instance is fine.
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "exists") {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

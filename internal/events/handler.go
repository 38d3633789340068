package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/config"
	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/observability"
	"github.com/cavea/backoffice/internal/pkg/breaker"
	"github.com/cavea/backoffice/internal/pkg/retry"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderUpdated       = "order.updated"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

var ErrCircuitOpen = fmt.Errorf("circuit breaker open")

// Orders is the slice of the order service the handler needs: drop the
// cached copy and optionally re-pull the fresh one.
//
//go:generate mockgen -source=handler.go -destination=mock_orders_test.go -package=events
type Orders interface {
	Invalidate(id string)
	Get(ctx context.Context, id string) (*domain.Order, error)
}

type orderEvent struct {
	Event   string `json:"event"`
	OrderID string `json:"order_id"`
}

// Handler reacts to backend order events by invalidating the local order
// cache. For create/update/status events it also re-fetches the order so the
// cache is warm before the next read. Malformed or unknown events are logged
// and committed, not re-delivered.
type Handler struct {
	orders      Orders
	breaker     *breaker.Breaker
	retryPolicy retry.Policy
	logger      *zap.Logger
	metrics     observability.Metrics
}

func NewHandler(orders Orders, brk *breaker.Breaker, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *Handler {
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	return &Handler{
		orders:  orders,
		breaker: brk,
		retryPolicy: retry.Policy{
			Attempts:     retryPolicy.Attempts,
			Base:         retryPolicy.Base,
			Max:          retryPolicy.Max,
			JitterFactor: retryPolicy.JitterFactor,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Handle is called by the consumer for a single message. Returning nil lets
// the consumer commit the offset.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	start := time.Now()

	var ev orderEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Warn("skipping malformed event",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.metrics.ObserveEvent(sinceMs(start), false)
		return nil
	}
	if ev.OrderID == "" {
		h.logger.Warn("skipping event without order_id",
			zap.String("event", ev.Event),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.metrics.ObserveEvent(sinceMs(start), false)
		return nil
	}

	h.orders.Invalidate(ev.OrderID)

	switch ev.Event {
	case EventOrderPlaced, EventOrderUpdated, EventOrderStatusChanged:
		if err := h.refetch(ctx, ev.OrderID); err != nil {
			h.logger.Error("re-fetch after event failed",
				zap.String("event", ev.Event),
				zap.String("order_id", ev.OrderID),
				zap.Error(err),
				zap.Int("partition", message.Partition),
				zap.Int64("offset", message.Offset),
			)
			h.metrics.ObserveEvent(sinceMs(start), false)
			return err
		}
	case EventOrderDeleted:
		// Invalidation is enough; nothing to re-pull.
	default:
		h.logger.Debug("unknown event type, cache invalidated only",
			zap.String("event", ev.Event),
			zap.String("order_id", ev.OrderID),
		)
	}

	h.metrics.ObserveEvent(sinceMs(start), true)
	h.logger.Info("processed order event",
		zap.String("event", ev.Event),
		zap.String("order_id", ev.OrderID),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}

func (h *Handler) refetch(ctx context.Context, id string) error {
	if err := h.breaker.Allow(); err != nil {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	err := retry.Do(ctx, h.retryPolicy, func() error {
		_, getErr := h.orders.Get(ctx, id)
		if errors.Is(getErr, domain.ErrNotFound) {
			// Gone on the backend; the invalidation already did the work.
			return nil
		}
		return getErr
	})
	if err != nil {
		h.breaker.Failure()
		return err
	}
	h.breaker.Success()
	return nil
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

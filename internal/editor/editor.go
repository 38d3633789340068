package editor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/domain"
)

//go:generate mockgen -source editor.go -destination=mock_deps_test.go -package=editor

// Gateway is the slice of the remote gateway the editor persists through.
type Gateway interface {
	UpdateOrder(ctx context.Context, id string, o domain.Order) (domain.Order, error)
	SetOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// Lookup resolves display names against the latest catalog snapshot. The
// editor never pins a snapshot; every AddProduct call sees the freshest data.
type Lookup interface {
	ProductByName(name string) (domain.Product, error)
}

// Notifier receives the operator-facing messages (the toast channel).
type Notifier interface {
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// Editor holds one order open for inspection and, when the order is flagged
// editable, for line-item modification. It works on a copied line-item slice
// and never mutates the loaded snapshot; Save submits the whole order, Close
// discards the copy. Not safe for concurrent use.
type Editor struct {
	order   *domain.Order
	items   []domain.LineItem
	gateway Gateway
	lookup  Lookup
	notify  Notifier
	logger  *zap.Logger

	open    bool
	onClose func()
}

// Config collects the editor's collaborators. OnClose runs whenever the
// editing surface closes (save or cancel) and is where the caller triggers
// its order list refetch.
type Config struct {
	Gateway Gateway
	Lookup  Lookup
	Notify  Notifier
	Logger  *zap.Logger
	OnClose func()
}

// Open loads an order snapshot into a fresh editor. A nil order yields a
// closed editor on which every operation is a no-op warning.
func Open(order *domain.Order, cfg Config) *Editor {
	e := &Editor{
		gateway: cfg.Gateway,
		lookup:  cfg.Lookup,
		notify:  cfg.Notify,
		logger:  cfg.Logger,
		onClose: cfg.OnClose,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.notify == nil {
		e.notify = nopNotifier{}
	}
	if order == nil {
		return e
	}
	e.order = order
	e.items = order.CloneItems()
	e.open = true
	return e
}

// IsOpen reports whether the editing surface is still showing.
func (e *Editor) IsOpen() bool { return e.open }

// Order returns the loaded snapshot, nil when the editor is empty.
func (e *Editor) Order() *domain.Order { return e.order }

// Items returns the current working copy.
func (e *Editor) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// Editable reports whether line-item mutation is offered for this order.
func (e *Editor) Editable() bool { return e.order != nil && e.order.Editable }

func (e *Editor) guardMutation() error {
	if e.order == nil {
		return domain.ErrNoOrder
	}
	if !e.order.Editable {
		e.notify.Warn("Order is locked for line item changes")
		return domain.ErrOrderLocked
	}
	return nil
}

// AdjustQuantity changes the quantity of the line item at index by delta.
// Every rejection leaves the working copy untouched and warns the operator:
// bad index, quantity above the product's on-hand stock, or quantity falling
// to zero or below (removal is an explicit separate action).
func (e *Editor) AdjustQuantity(index, delta int) error {
	if err := e.guardMutation(); err != nil {
		return err
	}
	if index < 0 || index >= len(e.items) {
		e.notify.Warn("Invalid product index")
		return domain.ErrIndexOutOfRange
	}

	current := e.items[index]
	newQty := current.Quantity + delta

	if newQty > current.Product.QtyOnHand {
		e.notify.Warn("Quantity exceeds available stock")
		return domain.ErrStockExceeded
	}
	if newQty <= 0 {
		e.notify.Warn("Can't set quantity to zero or below")
		return domain.ErrQuantityFloor
	}

	// Copy-on-write: replace the slice, not the element in place.
	items := make([]domain.LineItem, len(e.items))
	copy(items, e.items)
	items[index].Quantity = newQty
	e.items = items
	return nil
}

// AddProduct resolves a display name against the catalog lookup and appends
// a quantity-1 line item. Unknown names and already-present products warn
// and change nothing.
func (e *Editor) AddProduct(displayName string) error {
	if err := e.guardMutation(); err != nil {
		return err
	}

	product, err := e.lookup.ProductByName(displayName)
	if err != nil {
		e.notify.Warn("Product not found")
		return domain.ErrProductUnknown
	}

	for _, it := range e.items {
		if it.Product.ID == product.ID {
			e.notify.Warn("Product already added")
			return domain.ErrDuplicateLineItem
		}
	}

	items := make([]domain.LineItem, len(e.items), len(e.items)+1)
	copy(items, e.items)
	e.items = append(items, domain.LineItem{Product: product, Quantity: 1})
	return nil
}

// RemoveLineItem deletes the item at index. No confirmation at this layer.
func (e *Editor) RemoveLineItem(index int) error {
	if err := e.guardMutation(); err != nil {
		return err
	}
	if index < 0 || index >= len(e.items) {
		e.notify.Warn("Invalid product index")
		return domain.ErrIndexOutOfRange
	}

	items := make([]domain.LineItem, 0, len(e.items)-1)
	items = append(items, e.items[:index]...)
	items = append(items, e.items[index+1:]...)
	e.items = items
	return nil
}

// ChangeStatus persists a status change immediately and independently of any
// pending line-item edits. Nothing is mutated optimistically, so a failure
// needs no rollback. Allowed regardless of the editable flag.
func (e *Editor) ChangeStatus(ctx context.Context, status domain.OrderStatus) error {
	if e.order == nil {
		return domain.ErrNoOrder
	}
	if !status.Valid() {
		e.notify.Warn("Unknown order status")
		return domain.ErrInvalidStatus
	}

	if err := e.gateway.SetOrderStatus(ctx, e.order.ID, status); err != nil {
		e.notify.Error(fmt.Sprintf("Failed to update order status: %s", userMessage(err)))
		e.logger.Warn("order status change failed",
			zap.String("order_id", e.order.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	e.order.Status = status
	e.notify.Success("Order status updated successfully")
	e.logger.Info("order status updated",
		zap.String("order_id", e.order.ID),
		zap.String("status", string(status)),
	)
	return nil
}

// Save submits the original order with the working line-item copy as one
// update. On success the surface closes and the caller's refetch runs; on
// failure the surface stays open with the working copy intact so the
// operator can retry or cancel.
func (e *Editor) Save(ctx context.Context) error {
	if e.order == nil {
		return domain.ErrNoOrder
	}

	updated := *e.order
	updated.Items = e.Items()

	if _, err := e.gateway.UpdateOrder(ctx, e.order.ID, updated); err != nil {
		e.notify.Error(fmt.Sprintf("Failed to update order: %s", userMessage(err)))
		e.logger.Warn("order save failed",
			zap.String("order_id", e.order.ID),
			zap.Error(err),
		)
		return err
	}

	e.notify.Success("Order updated successfully")
	e.logger.Info("order saved",
		zap.String("order_id", e.order.ID),
		zap.Int("line_items", len(updated.Items)),
	)
	e.Close()
	return nil
}

// Close discards the working copy and closes the surface. The refetch hook
// runs even without a save, so a status change done through this editor is
// reflected in the order list.
func (e *Editor) Close() {
	if !e.open {
		return
	}
	e.open = false
	e.items = nil
	if e.onClose != nil {
		e.onClose()
	}
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Warn(string)    {}
func (nopNotifier) Error(string)   {}

// userMessage unwraps the backend-supplied message when there is one.
func userMessage(err error) string {
	type messenger interface{ UserMessage() string }
	var m messenger
	if errors.As(err, &m) {
		return m.UserMessage()
	}
	return err.Error()
}

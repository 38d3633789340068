package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/audit"
	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/editor"
	"github.com/cavea/backoffice/internal/observability"
	"github.com/cavea/backoffice/internal/pricing"
)

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	res, err := s.orders.List(r.Context(), page, limit)
	if err != nil {
		s.logger.Error("order list failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "order list unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type orderDetail struct {
	*domain.Order
	ComputedTotal float64 `json:"computed_total"`
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, st, err := s.orders.GetWithStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no order with this id")
			return
		}
		s.logger.Error("order lookup failed", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, userMessage(err, "order lookup failed"))
		return
	}

	observability.AppendServerTiming(w, "cache", st.CacheMs, "")
	observability.AppendServerTiming(w, "gateway", st.GatewayMs, "")
	observability.AppendServerTiming(w, "source", 0, string(st.Source))
	w.Header().Set("X-Source", string(st.Source))
	observability.SetIfPos(w, "X-Cache-Time", st.CacheMs)
	observability.SetIfPos(w, "X-Gateway-Time", st.GatewayMs)

	writeJSON(w, http.StatusOK, orderDetail{
		Order:         order,
		ComputedTotal: pricing.OrderTotal(order.Items),
	})
}

// getOrderAudit returns the recorded operator actions for one order, newest
// first.
func (s *Server) getOrderAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := queryInt(r, "limit", 20)

	entries, err := s.audit.RecentByEntity(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("audit lookup failed", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "audit log unavailable")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type updateOrderRequest struct {
	Products []updateLineItem `json:"products"`
}

type updateLineItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type updateOrderResponse struct {
	Order    *domain.Order `json:"order,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// updateOrder reshapes an order's line items through the editor: items absent
// from the request are removed, quantity differences are applied as deltas,
// unknown names become AddProduct calls. Any rejected step aborts the update
// before anything is sent to the backend.
func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	for _, it := range req.Products {
		if it.ProductName == "" {
			writeError(w, http.StatusBadRequest, "product_name is required on every line")
			return
		}
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	order, _, err := s.orders.GetWithStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no order with this id")
			return
		}
		writeError(w, http.StatusBadGateway, userMessage(err, "order lookup failed"))
		return
	}

	notes := &noteNotifier{}
	closed := false
	ed := editor.Open(order, editor.Config{
		Gateway: s.gateway,
		Lookup:  s.catalog.Latest(),
		Notify:  notes,
		Logger:  s.logger,
		OnClose: func() { closed = true },
	})

	if err := applyLineItems(ed, order, req.Products); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, updateOrderResponse{
			Warnings: notes.warnings,
			Error:    err.Error(),
		})
		return
	}

	if err := ed.Save(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, updateOrderResponse{
			Warnings: notes.warnings,
			Error:    userMessage(err, "order update failed"),
		})
		return
	}

	s.orders.Invalidate(id)
	s.record(r.Context(), audit.ActionOrderSave, id, req)

	if !closed {
		// Save reported success without closing; treat as saved anyway.
		s.logger.Warn("editor stayed open after successful save", zap.String("order_id", id))
	}
	updated, _, err := s.orders.GetWithStats(r.Context(), id)
	if err != nil {
		// The write went through; return what we had.
		updated = order
	}
	writeJSON(w, http.StatusOK, updateOrderResponse{Order: updated, Warnings: notes.warnings})
}

// applyLineItems drives the editor from the current items to the requested
// ones. Removals run back-to-front so indices stay stable.
func applyLineItems(ed *editor.Editor, order *domain.Order, want []updateLineItem) error {
	wanted := make(map[string]int, len(want))
	for _, it := range want {
		wanted[it.ProductName] = it.Quantity
	}

	items := ed.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if _, ok := wanted[items[i].Product.Name]; !ok {
			if err := ed.RemoveLineItem(i); err != nil {
				return err
			}
		}
	}

	items = ed.Items()
	have := make(map[string]bool, len(items))
	for i, it := range items {
		have[it.Product.Name] = true
		q := wanted[it.Product.Name]
		if delta := q - it.Quantity; delta != 0 {
			if err := ed.AdjustQuantity(i, delta); err != nil {
				return err
			}
		}
	}

	for _, it := range want {
		if have[it.ProductName] {
			continue
		}
		if err := ed.AddProduct(it.ProductName); err != nil {
			return err
		}
		if it.Quantity > 1 {
			idx := len(ed.Items()) - 1
			if err := ed.AdjustQuantity(idx, it.Quantity-1); err != nil {
				return err
			}
		}
	}
	return nil
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (s *Server) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	order, _, err := s.orders.GetWithStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no order with this id")
			return
		}
		writeError(w, http.StatusBadGateway, userMessage(err, "order lookup failed"))
		return
	}

	notes := &noteNotifier{}
	ed := editor.Open(order, editor.Config{
		Gateway: s.gateway,
		Lookup:  s.catalog.Latest(),
		Notify:  notes,
		Logger:  s.logger,
	})
	if err := ed.ChangeStatus(r.Context(), req.Status); err != nil {
		writeError(w, http.StatusBadGateway, userMessage(err, "status change failed"))
		return
	}

	s.orders.Invalidate(id)
	s.record(r.Context(), audit.ActionStatusChange, id, req)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// noteNotifier gathers operator-facing messages so they can travel back in
// the HTTP response instead of a toast.
type noteNotifier struct {
	successes []string
	warnings  []string
	errs      []string
}

func (n *noteNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *noteNotifier) Warn(msg string)    { n.warnings = append(n.warnings, msg) }
func (n *noteNotifier) Error(msg string)   { n.errs = append(n.errs, msg) }

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

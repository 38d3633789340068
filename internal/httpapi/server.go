package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/audit"
	"github.com/cavea/backoffice/internal/catalog"
	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/gateway"
	"github.com/cavea/backoffice/internal/observability"
	"github.com/cavea/backoffice/internal/orders"
)

//go:generate mockgen -source=server.go -destination=mock_deps_test.go -package=httpapi

// Orders is the slice of the order service the HTTP surface reads through.
type Orders interface {
	List(ctx context.Context, page, pageSize int) (domain.OrdersPage, error)
	GetWithStats(ctx context.Context, id string) (*domain.Order, orders.LookupStats, error)
	Invalidate(id string)
}

// Catalog hands out the latest product/meta snapshot.
type Catalog interface {
	Latest() *catalog.Snapshot
}

// Gateway covers the backend calls the HTTP surface proxies directly plus
// the write operations the editor persists through.
type Gateway interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	UpdateOrder(ctx context.Context, id string, o domain.Order) (domain.Order, error)
	SetOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error)
	ListContentImages(ctx context.Context) ([]gateway.ContentImage, error)
	UploadContentImage(ctx context.Context, img gateway.ContentImage) (gateway.ContentImage, error)
	DeleteContentImage(ctx context.Context, id string) error
}

// Sessions is the persisted operator session the auth guard checks against.
type Sessions interface {
	Get() (domain.Session, error)
	Token() string
	Set(sess domain.Session) error
	Clear() error
}

type Server struct {
	gateway  Gateway
	orders   Orders
	catalog  Catalog
	sessions Sessions
	audit    audit.Recorder
	logger   *zap.Logger
	metrics  observability.Metrics
	router   chi.Router

	// Editor instances are single-goroutine; order writes are serialized.
	editMu sync.Mutex
}

func New(gw Gateway, ord Orders, cat Catalog, sess Sessions, rec audit.Recorder, logger *zap.Logger, metrics observability.Metrics) *Server {
	if rec == nil {
		rec = audit.Noop{}
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	s := &Server{
		gateway:  gw,
		orders:   ord,
		catalog:  cat,
		sessions: sess,
		audit:    rec,
		logger:   logger,
		metrics:  metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(ServerTimingApp(s.metrics))

	r.Get("/healthz", s.healthz)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/logout", s.logout)

		r.Get("/orders", s.listOrders)
		r.Get("/orders/{id}", s.getOrder)
		r.Get("/orders/{id}/audit", s.getOrderAudit)
		r.Put("/orders/{id}", s.updateOrder)
		r.Post("/orders/{id}/status", s.setOrderStatus)

		r.Get("/products", s.listProducts)
		r.Get("/products/search", s.searchProducts)
		r.Get("/meta", s.getMeta)
		r.Get("/users", s.listUsers)

		r.Get("/content/images", s.listContentImages)
		r.Post("/content/images", s.uploadContentImage)
		r.Delete("/content/images/{id}", s.deleteContentImage)
	})

	s.router = r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// record writes an audit entry; failures are logged and never surface to the
// operator.
func (s *Server) record(ctx context.Context, action audit.Action, entityID string, detail any) {
	var raw []byte
	if detail != nil {
		raw, _ = json.Marshal(detail)
	}
	e := audit.Entry{
		Actor:    s.actor(),
		Action:   action,
		EntityID: entityID,
		Detail:   raw,
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.logger.Warn("audit record failed",
			zap.String("action", string(action)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *Server) actor() string {
	sess, err := s.sessions.Get()
	if err != nil {
		return ""
	}
	return sess.Operator.Email
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) Handler() http.Handler { return s.router }

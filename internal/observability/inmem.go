package observability

import "sync"

// observe is one recorded measurement. Only the fields relevant to the
// Kind are filled in.
type observe struct {
	Kind          string
	Source        string
	Op            string
	Method, Route string
	Status        int
	CacheMs       float64
	GatewayMs     float64
	Dur           float64
	Products      int
	OK            bool
}

// Inmem keeps the last N observations for the debug endpoint. Not a real
// metrics backend; enough to eyeball latency during development.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals struct {
		cacheHits, cacheMiss int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveLookup(source string, cacheMs, gatewayMs float64) {
	m.push(&observe{Kind: "lookup", Source: source, CacheMs: cacheMs, GatewayMs: gatewayMs})
}

func (m *Inmem) ObserveGateway(op string, durMs float64, ok bool) {
	m.push(&observe{Kind: "gateway", Op: op, Dur: durMs, OK: ok})
}

func (m *Inmem) ObserveRefresh(durMs float64, products int, ok bool) {
	m.push(&observe{Kind: "refresh", Dur: durMs, Products: products, OK: ok})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Status: status, Dur: durMs})
}

func (m *Inmem) ObserveEvent(processMs float64, ok bool) {
	m.push(&observe{Kind: "event", Dur: processMs, OK: ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

// CacheTotals reports accumulated hit/miss counters.
func (m *Inmem) CacheTotals() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.cacheHits, m.totals.cacheMiss
}

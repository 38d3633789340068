package observability

type Metrics interface {
	ObserveLookup(source string, cacheMs, gatewayMs float64)
	ObserveGateway(op string, durMs float64, ok bool)
	ObserveRefresh(durMs float64, products int, ok bool)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveEvent(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, float64, float64)   {}
func (Noop) ObserveGateway(string, float64, bool)     {}
func (Noop) ObserveRefresh(float64, int, bool)        {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveEvent(float64, bool)               {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}

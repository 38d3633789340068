package catalog

import (
	"strings"
	"time"

	"github.com/cavea/backoffice/internal/domain"
)

// Snapshot is one immutable view of the catalog reference data. Consumers
// must not hold onto it across user interactions; they re-read the latest
// snapshot from the Refresher on every lookup.
type Snapshot struct {
	products  []domain.Product
	byName    map[string]domain.Product
	byID      map[string]domain.Product
	meta      domain.Meta
	fetchedAt time.Time
}

func NewSnapshot(products []domain.Product, meta domain.Meta, fetchedAt time.Time) *Snapshot {
	byName := make(map[string]domain.Product, len(products))
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byName[strings.ToLower(p.Name)] = p
		byID[p.ID] = p
	}
	return &Snapshot{
		products:  products,
		byName:    byName,
		byID:      byID,
		meta:      meta,
		fetchedAt: fetchedAt,
	}
}

// ProductByName resolves a display name, case-insensitively. Returns
// domain.ErrProductUnknown when no product carries that exact name.
func (s *Snapshot) ProductByName(name string) (domain.Product, error) {
	p, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Product{}, domain.ErrProductUnknown
	}
	return p, nil
}

// ProductByID resolves a catalog identifier.
func (s *Snapshot) ProductByID(id string) (domain.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductUnknown
	}
	return p, nil
}

// SearchProducts returns every product whose name contains the query,
// case-insensitively. An empty query matches everything; no match returns an
// empty slice, never an error.
func (s *Snapshot) SearchProducts(query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]domain.Product, len(s.products))
		copy(out, s.products)
		return out
	}
	out := make([]domain.Product, 0, 8)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Snapshot) Products() []domain.Product {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Snapshot) Meta() domain.Meta { return s.meta }

func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

func (s *Snapshot) Len() int { return len(s.products) }

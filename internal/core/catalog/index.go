package catalog

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/pkg/trie"
)

// A Snapshot is an immutable catalog paired with the trie built from it.
type Snapshot struct {
	products []domain.Product
	byID     map[int64]int
	trie     *trie.Trie
}

func newSnapshot(ps []domain.Product) (*Snapshot, error) {
	const op = "catalog.newSnapshot"

	s := &Snapshot{
		products: slices.Clone(ps),
		byID:     make(map[int64]int, len(ps)),
		trie:     trie.New(),
	}

	for i, p := range s.products {
		if _, ok := s.byID[p.ID]; ok {
			return nil, fmt.Errorf(
				"%s: %w: %d", op, domain.ErrDuplicateProductID, p.ID,
			)
		}
		s.byID[p.ID] = i
		s.trie.Insert(p.Name)
		s.trie.Insert(p.Brand)
	}
	return s, nil
}

// Products returns a copy of the catalog in load order.
func (s *Snapshot) Products() []domain.Product {
	return slices.Clone(s.products)
}

func (s *Snapshot) Len() int {
	return len(s.products)
}

func (s *Snapshot) Product(id int64) (domain.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

func (s *Snapshot) Search(text string) []domain.Product {
	return Search(s.products, text)
}

// Suggest proposes completions of text from product names and brands.
func (s *Snapshot) Suggest(text string, limit int) []string {
	return s.trie.Suggest(text, limit)
}

func (s *Snapshot) SortBy(
	field domain.SortField, ascending bool,
) []domain.Product {
	return Sort(s.Products(), field, ascending)
}

func (s *Snapshot) FilterByPriceCeiling(max int64) []domain.Product {
	return FilterByPriceCeiling(s.products, max)
}

func (s *Snapshot) FilterByPriceRange(min, max int64) []domain.Product {
	return FilterByPriceRange(s.products, min, max)
}

func (s *Snapshot) FilterByCategory(label string) []domain.Product {
	return FilterByCategory(s.products, label)
}

func (s *Snapshot) Featured() []domain.Product {
	return Featured(s.products)
}

// An Index serves queries from the current [Snapshot]. Replace swaps the
// snapshot atomically, so every query sees products and suggestions from the
// same catalog.
type Index struct {
	current atomic.Pointer[Snapshot]
}

func NewIndex() *Index {
	idx := new(Index)
	empty, _ := newSnapshot(nil)
	idx.current.Store(empty)
	return idx
}

// Replace installs ps as the catalog. On error the previous catalog stays in
// place.
func (idx *Index) Replace(ps []domain.Product) error {
	const op = "Index.Replace"

	s, err := newSnapshot(ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	idx.current.Store(s)
	return nil
}

// Snapshot returns the current catalog. Callers composing several queries
// should use one snapshot for all of them.
func (idx *Index) Snapshot() *Snapshot {
	return idx.current.Load()
}

func (idx *Index) Len() int {
	return idx.Snapshot().Len()
}

func (idx *Index) Products() []domain.Product {
	return idx.Snapshot().Products()
}

func (idx *Index) Product(id int64) (domain.Product, bool) {
	return idx.Snapshot().Product(id)
}

func (idx *Index) Search(text string) []domain.Product {
	return idx.Snapshot().Search(text)
}

func (idx *Index) Suggest(text string, limit int) []string {
	return idx.Snapshot().Suggest(text, limit)
}

func (idx *Index) SortBy(
	field domain.SortField, ascending bool,
) []domain.Product {
	return idx.Snapshot().SortBy(field, ascending)
}

func (idx *Index) FilterByPriceCeiling(max int64) []domain.Product {
	return idx.Snapshot().FilterByPriceCeiling(max)
}

func (idx *Index) FilterByPriceRange(min, max int64) []domain.Product {
	return idx.Snapshot().FilterByPriceRange(min, max)
}

func (idx *Index) FilterByCategory(label string) []domain.Product {
	return idx.Snapshot().FilterByCategory(label)
}

func (idx *Index) Featured() []domain.Product {
	return idx.Snapshot().Featured()
}

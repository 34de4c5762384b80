// Package weighted draws items with probability proportional to integer
// weights.
package weighted

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
)

// Table is an immutable weighted choice over items.
type Table[T any] struct {
	items   []T
	weights []int
	cum     []int
	total   int
}

// New builds a Table. Weights are relative and must all be positive.
func New[T any](items []T, weights []int) (*Table[T], error) {
	if len(items) == 0 {
		return nil, eris.New("weighted: empty table")
	}
	if len(items) != len(weights) {
		return nil, eris.Errorf("weighted: %d items but %d weights", len(items), len(weights))
	}

	cum := make([]int, len(weights))
	total := 0
	for i, w := range weights {
		if w <= 0 {
			return nil, eris.Errorf("weighted: item %d has non-positive weight %d", i, w)
		}
		total += w
		cum[i] = total
	}

	return &Table[T]{
		items:   append([]T(nil), items...),
		weights: append([]int(nil), weights...),
		cum:     cum,
		total:   total,
	}, nil
}

// MustNew is New for tables built from validated static data.
func MustNew[T any](items []T, weights []int) *Table[T] {
	t, err := New(items, weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Pick draws one item, consuming exactly one value from r.
func (t *Table[T]) Pick(r *rand.Rand) T {
	return t.items[t.PickIndex(r)]
}

// PickIndex draws one index, consuming exactly one value from r.
func (t *Table[T]) PickIndex(r *rand.Rand) int {
	n := r.IntN(t.total)
	for i, c := range t.cum {
		if n < c {
			return i
		}
	}
	return len(t.cum) - 1
}

// Probability returns the chance of drawing item i.
func (t *Table[T]) Probability(i int) float64 {
	return float64(t.weights[i]) / float64(t.total)
}

// Len returns the number of items.
func (t *Table[T]) Len() int { return len(t.items) }

// Total returns the sum of all weights.
func (t *Table[T]) Total() int { return t.total }

// Item returns item i.
func (t *Table[T]) Item(i int) T { return t.items[i] }

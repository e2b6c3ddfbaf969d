package ntbea

import "math"

// Order decides whether a Picker keeps the highest or the lowest score.
type Order int

const (
	// MaxFirst keeps the highest score.
	MaxFirst Order = iota

	// MinFirst keeps the lowest score.
	MinFirst
)

// Picker remembers the best-scoring item among those offered. The first item
// offered with the best score wins ties. NaN scores never win.
type Picker[T any] struct {
	order     Order
	best      T
	bestScore float64
	n         int
	has       bool
}

// NewPicker returns an empty picker with the given order.
func NewPicker[T any](order Order) *Picker[T] {
	return &Picker[T]{order: order}
}

// Add offers item with score.
func (p *Picker[T]) Add(score float64, item T) {
	p.n++

	if math.IsNaN(score) {
		return
	}

	if !p.has || p.better(score) {
		p.best = item
		p.bestScore = score
		p.has = true
	}
}

func (p *Picker[T]) better(score float64) bool {
	if p.order == MinFirst {
		return score < p.bestScore
	}

	return score > p.bestScore
}

// Best returns the winning item and its score. The boolean is false when no
// item with a comparable score was offered.
func (p *Picker[T]) Best() (T, float64, bool) {
	return p.best, p.bestScore, p.has
}

// N returns the number of items offered, including NaN-scored ones.
func (p *Picker[T]) N() int { return p.n }

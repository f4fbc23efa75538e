package mcc

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroCapacity is returned for a queue or species that could hold
	// nothing.
	ErrZeroCapacity = errors.New("population capacity must be positive")
	// ErrZeroSelection is returned when no children would ever be produced.
	ErrZeroSelection = errors.New("selection limit must be positive")
	// ErrNoFounders is returned when a population is created empty.
	ErrNoFounders = errors.New("population needs at least one founder")
)

// Summary aggregates one integer measure over a population.
type Summary struct {
	Average  float64
	Largest  int
	Smallest int
}

// summarize panics on an empty population: asking an empty queue for its
// aggregates is a programming error.
func summarize[T any](items []T, measure func(T) int) Summary {
	if len(items) == 0 {
		panic("mcc: aggregate of an empty population")
	}
	s := Summary{Largest: measure(items[0]), Smallest: measure(items[0])}
	sum := 0
	for _, x := range items {
		v := measure(x)
		sum += v
		s.Largest = max(s.Largest, v)
		s.Smallest = min(s.Smallest, v)
	}
	s.Average = float64(sum) / float64(len(items))
	return s
}

func sizeOf[T Individual[T]](x T) int { return x.Size() }

// complexityOf reports the complexity of x, or false if the kind has none.
func complexityOf[T any](x T) (int, bool) {
	c, ok := any(x).(Complex)
	if !ok {
		return 0, false
	}
	return c.Complexity(), true
}

// SizeHistory is the per-generation record of one measure.
type SizeHistory struct {
	Averages  []float64
	Largest   []int
	Smallest  []int
	Increases []float64
	// Baseline, when set, is the reference for the first increase. Without
	// it the first record adds no increase.
	Baseline *float64
}

// Record appends a summary and the change of its average since the
// previous record.
func (h *SizeHistory) Record(s Summary) {
	switch {
	case len(h.Averages) > 0:
		h.Increases = append(h.Increases, s.Average-h.Averages[len(h.Averages)-1])
	case h.Baseline != nil:
		h.Increases = append(h.Increases, s.Average-*h.Baseline)
	}
	h.Averages = append(h.Averages, s.Average)
	h.Largest = append(h.Largest, s.Largest)
	h.Smallest = append(h.Smallest, s.Smallest)
}

// OverallAverageIncrease is the mean recorded increase, 0 before any.
func (h *SizeHistory) OverallAverageIncrease() float64 {
	if len(h.Increases) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range h.Increases {
		sum += v
	}
	return sum / float64(len(h.Increases))
}

// LastIncrease is the most recent increase, 0 before any.
func (h *SizeHistory) LastIncrease() float64 {
	if len(h.Increases) == 0 {
		return 0
	}
	return h.Increases[len(h.Increases)-1]
}

// Queue is a bounded population of one kind. Parents are picked round
// robin; admission appends and evicts the oldest once over capacity.
type Queue[T Individual[T]] struct {
	items     []T
	capacity  int
	selection int
	cursor    int
	ids       *IDCounter

	Sizes        SizeHistory
	Complexities SizeHistory
}

// NewQueue creates a queue holding founders. Children get their ids from
// ids.
func NewQueue[T Individual[T]](founders []T, capacity, selection int, ids *IDCounter) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrZeroCapacity
	}
	if selection <= 0 {
		return nil, ErrZeroSelection
	}
	if len(founders) == 0 {
		return nil, ErrNoFounders
	}
	if ids == nil {
		return nil, fmt.Errorf("queue needs an id counter")
	}
	q := &Queue[T]{
		capacity:  capacity,
		selection: selection,
		ids:       ids,
	}
	for _, f := range founders {
		q.Push(f)
	}
	return q, nil
}

// GetChildren clones amount parents starting at the cursor. Each child is
// mutated, flagged not viable and given a fresh id. The cursor wraps at the
// current length when indexing and advances modulo the capacity.
func (q *Queue[T]) GetChildren(amount int) []T {
	children := make([]T, 0, amount)
	for i := 0; i < amount; i++ {
		if q.cursor >= len(q.items) {
			q.cursor = 0
		}
		child := q.items[q.cursor].Clone()
		child.Mutate()
		child.SetViable(false)
		child.SetID(q.ids.Next())
		children = append(children, child)
		q.cursor = (q.cursor + 1) % q.capacity
	}
	return children
}

// Children returns one selection's worth of children.
func (q *Queue[T]) Children() []T {
	return q.GetChildren(q.selection)
}

// Push admits x, evicting the oldest individuals beyond capacity.
func (q *Queue[T]) Push(x T) {
	q.items = append(q.items, x)
	q.evict()
}

func (q *Queue[T]) evict() {
	n := len(q.items) - q.capacity
	if n <= 0 {
		return
	}
	var zero T
	for i := 0; i < n; i++ {
		q.items[i] = zero
	}
	q.items = q.items[n:]
	q.cursor = max(0, q.cursor-n)
}

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) Capacity() int { return q.capacity }

// SetCapacity changes the capacity, evicting the oldest individuals when
// the queue no longer fits.
func (q *Queue[T]) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return ErrZeroCapacity
	}
	q.capacity = capacity
	q.evict()
	if q.cursor >= q.capacity {
		q.cursor = 0
	}
	return nil
}

func (q *Queue[T]) Selection() int { return q.selection }

// Cursor is the index of the next parent.
func (q *Queue[T]) Cursor() int { return q.cursor }

// Items returns the individuals oldest first. The slice is a copy.
func (q *Queue[T]) Items() []T {
	return append([]T(nil), q.items...)
}

// Largest is the size of the biggest individual. It panics on an empty
// queue, as do Smallest and Average.
func (q *Queue[T]) Largest() int { return summarize(q.items, sizeOf[T]).Largest }

func (q *Queue[T]) Smallest() int { return summarize(q.items, sizeOf[T]).Smallest }

func (q *Queue[T]) Average() float64 { return summarize(q.items, sizeOf[T]).Average }

// SetSizeBaseline sets the reference for the first recorded size increase.
func (q *Queue[T]) SetSizeBaseline(b float64) {
	q.Sizes.Baseline = &b
}

// SaveState records the current size, and complexity where the kind has
// one.
func (q *Queue[T]) SaveState() {
	if len(q.items) == 0 {
		return
	}
	q.Sizes.Record(summarize(q.items, sizeOf[T]))
	if _, ok := complexityOf(q.items[0]); ok {
		q.Complexities.Record(summarize(q.items, func(x T) int {
			c, _ := complexityOf(x)
			return c
		}))
	}
}

// OverallScore is the mean size increase plus the mean complexity increase.
func (q *Queue[T]) OverallScore() float64 {
	return q.Sizes.OverallAverageIncrease() + q.Complexities.OverallAverageIncrease()
}

// SizeIncrease returns the mean and the last recorded size increase.
func (q *Queue[T]) SizeIncrease() (overall, last float64) {
	return q.Sizes.OverallAverageIncrease(), q.Sizes.LastIncrease()
}

// ComplexityIncrease returns the mean and the last recorded complexity
// increase.
func (q *Queue[T]) ComplexityIncrease() (overall, last float64) {
	return q.Complexities.OverallAverageIncrease(), q.Complexities.LastIncrease()
}

// restoreQueue rebuilds a queue from checkpointed state.
func restoreQueue[T Individual[T]](items []T, capacity, selection, cursor int, ids *IDCounter) *Queue[T] {
	return &Queue[T]{
		items:     items,
		capacity:  capacity,
		selection: selection,
		cursor:    cursor,
		ids:       ids,
	}
}

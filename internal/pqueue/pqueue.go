// Package pqueue implements a min-priority queue whose items can be removed
// by id.
package pqueue

import "container/heap"

type item[T any] struct {
	id    int
	value T
	seq   uint64
	index int
}

// Queue is a binary min-heap ordered by less. Items that compare equal
// leave the queue in insertion order.
type Queue[T any] struct {
	items items[T]
	byID  map[int]*item[T]
	seq   uint64
}

type items[T any] struct {
	list []*item[T]
	less func(a, b T) bool
}

func (h *items[T]) Len() int { return len(h.list) }

func (h *items[T]) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	if h.less(a.value, b.value) {
		return true
	}
	if h.less(b.value, a.value) {
		return false
	}
	return a.seq < b.seq
}

func (h *items[T]) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
	h.list[i].index = i
	h.list[j].index = j
}

func (h *items[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(h.list)
	h.list = append(h.list, it)
}

func (h *items[T]) Pop() any {
	n := len(h.list)
	it := h.list[n-1]
	h.list[n-1] = nil
	h.list = h.list[:n-1]
	it.index = -1
	return it
}

func New[T any](less func(a, b T) bool) *Queue[T] {
	return &Queue[T]{
		items: items[T]{less: less},
		byID:  make(map[int]*item[T]),
	}
}

func (q *Queue[T]) Len() int {
	return q.items.Len()
}

// Push adds value under id. A value already queued under id is replaced and
// keeps its insertion rank.
func (q *Queue[T]) Push(id int, value T) {
	if it, ok := q.byID[id]; ok {
		it.value = value
		heap.Fix(&q.items, it.index)
		return
	}
	it := &item[T]{id: id, value: value, seq: q.seq}
	q.seq++
	q.byID[id] = it
	heap.Push(&q.items, it)
}

// Peek returns the minimum without removing it.
func (q *Queue[T]) Peek() (int, T, bool) {
	if q.items.Len() == 0 {
		var zero T
		return 0, zero, false
	}
	it := q.items.list[0]
	return it.id, it.value, true
}

// Pop removes and returns the minimum.
func (q *Queue[T]) Pop() (int, T, bool) {
	if q.items.Len() == 0 {
		var zero T
		return 0, zero, false
	}
	it := heap.Pop(&q.items).(*item[T])
	delete(q.byID, it.id)
	return it.id, it.value, true
}

// Remove drops the item queued under id and reports whether it was present.
func (q *Queue[T]) Remove(id int) bool {
	it, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.items, it.index)
	delete(q.byID, id)
	return true
}

func (q *Queue[T]) Contains(id int) bool {
	_, ok := q.byID[id]
	return ok
}

// Package collapse orders edge-collapse candidates by quadric error.
package collapse

import (
	"container/heap"
	"sort"

	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"gonum.org/v1/gonum/spatial/r3"
)

// Candidate is a scored edge collapse. The stamps record the endpoint
// generations the cost was computed against.
type Candidate struct {
	Edge   mesh.Edge
	Cost   float64
	Target r3.Vec

	stampA, stampB uint32
}

// Placement selects where a merged vertex goes.
type Placement struct {
	// Optimal solves for the error-minimizing point; otherwise the edge
	// midpoint is always used.
	Optimal      bool
	MaxCondition float64
}

// Cost returns the error of collapsing an edge with endpoint quadrics qa,
// qb at positions pa, pb, and the position of the merged vertex. When the
// quadric system is singular or ill-conditioned the midpoint is used.
func Cost(qa, qb quadric.Quadric, pa, pb r3.Vec, pl Placement) (float64, r3.Vec) {
	q := quadric.Merge(qa, qb)
	if pl.Optimal {
		maxCond := pl.MaxCondition
		if maxCond <= 0 {
			maxCond = quadric.DefaultMaxCondition
		}
		if p, ok := q.Optimal(maxCond); ok {
			return q.Eval(p), p
		}
	}
	mid := r3.Scale(0.5, r3.Add(pa, pb))
	return q.Eval(mid), mid
}

// Queue is a min-heap of candidates with lazy deletion. Each vertex has a
// generation stamp; bumping it makes every queued candidate touching the
// vertex stale, and stale entries are dropped when they reach the top.
type Queue struct {
	h      candidateHeap
	stamps []uint32

	deferred map[mesh.Edge]struct{}
	byVertex map[int][]mesh.Edge
}

// NewQueue returns an empty queue for a mesh with n vertex slots.
func NewQueue(n int) *Queue {
	return &Queue{
		stamps:   make([]uint32, n),
		deferred: make(map[mesh.Edge]struct{}),
		byVertex: make(map[int][]mesh.Edge),
	}
}

// Push inserts c stamped with the current generations of its endpoints.
func (q *Queue) Push(c Candidate) {
	c.stampA = q.stamps[c.Edge.A]
	c.stampB = q.stamps[c.Edge.B]
	heap.Push(&q.h, c)
}

// Pop removes and returns the cheapest candidate that is not stale. Ties in
// cost go to the smaller canonical edge.
func (q *Queue) Pop() (Candidate, bool) {
	for q.h.Len() > 0 {
		c := heap.Pop(&q.h).(Candidate)
		if !q.Stale(c) {
			return c, true
		}
	}
	return Candidate{}, false
}

// Invalidate marks every queued candidate touching v as stale.
func (q *Queue) Invalidate(v int) {
	q.stamps[v]++
}

// Stale reports whether an endpoint of c changed after c was pushed.
func (q *Queue) Stale(c Candidate) bool {
	return c.stampA != q.stamps[c.Edge.A] || c.stampB != q.stamps[c.Edge.B]
}

// Len returns the number of heap entries, stale ones included.
func (q *Queue) Len() int { return q.h.Len() }

// Defer parks an edge whose collapse is currently illegal. It is handed
// back by TakeDeferred once the neighborhood of an endpoint changes.
func (q *Queue) Defer(e mesh.Edge) {
	if _, ok := q.deferred[e]; ok {
		return
	}
	q.deferred[e] = struct{}{}
	q.byVertex[e.A] = append(q.byVertex[e.A], e)
	q.byVertex[e.B] = append(q.byVertex[e.B], e)
}

// Deferred returns the number of parked edges.
func (q *Queue) Deferred() int { return len(q.deferred) }

// TakeDeferred removes and returns, in canonical order, every parked edge
// with an endpoint in vertices.
func (q *Queue) TakeDeferred(vertices ...int) []mesh.Edge {
	var out []mesh.Edge
	for _, v := range vertices {
		for _, e := range q.byVertex[v] {
			if _, ok := q.deferred[e]; ok {
				delete(q.deferred, e)
				out = append(out, e)
			}
		}
		delete(q.byVertex, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].Cost != h[j].Cost {
		return h[i].Cost < h[j].Cost
	}
	return h[i].Edge.Less(h[j].Edge)
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(Candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

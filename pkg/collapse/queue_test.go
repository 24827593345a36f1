package collapse

import (
	"math"
	"testing"

	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"gonum.org/v1/gonum/spatial/r3"
)

func cand(a, b int, cost float64) Candidate {
	return Candidate{Edge: mesh.MakeEdge(a, b), Cost: cost}
}

func TestPopOrder(t *testing.T) {
	q := NewQueue(10)
	q.Push(cand(0, 1, 3))
	q.Push(cand(2, 3, 1))
	q.Push(cand(4, 5, 2))
	q.Push(cand(1, 2, 0.5))

	want := []mesh.Edge{{A: 1, B: 2}, {A: 2, B: 3}, {A: 4, B: 5}, {A: 0, B: 1}}
	for i, w := range want {
		c, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if c.Edge != w {
			t.Errorf("pop %d = %v, want %v", i, c.Edge, w)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on drained queue returned a candidate")
	}
}

func TestPopTieBreak(t *testing.T) {
	q := NewQueue(10)
	q.Push(cand(3, 4, 1))
	q.Push(cand(1, 9, 1))
	q.Push(cand(1, 5, 1))
	q.Push(cand(2, 3, 1))

	want := []mesh.Edge{{A: 1, B: 5}, {A: 1, B: 9}, {A: 2, B: 3}, {A: 3, B: 4}}
	for i, w := range want {
		c, _ := q.Pop()
		if c.Edge != w {
			t.Errorf("pop %d = %v, want %v", i, c.Edge, w)
		}
	}
}

func TestInvalidateSkipsStale(t *testing.T) {
	q := NewQueue(4)
	q.Push(cand(0, 1, 1))
	q.Push(cand(1, 2, 2))
	q.Push(cand(2, 3, 3))

	q.Invalidate(1)
	q.Push(cand(0, 1, 5))

	c, ok := q.Pop()
	if !ok || c.Edge != (mesh.Edge{A: 2, B: 3}) {
		t.Fatalf("Pop() = %v, %v, want edge 2-3", c.Edge, ok)
	}
	c, ok = q.Pop()
	if !ok || c.Edge != (mesh.Edge{A: 0, B: 1}) || c.Cost != 5 {
		t.Fatalf("Pop() = %+v, want refreshed 0-1 at cost 5", c)
	}
	if _, ok := q.Pop(); ok {
		t.Error("stale entries were returned")
	}
}

func TestStale(t *testing.T) {
	q := NewQueue(3)
	q.Push(cand(0, 2, 1))
	c, _ := q.Pop()
	if q.Stale(c) {
		t.Error("fresh candidate reported stale")
	}
	q.Invalidate(2)
	if !q.Stale(c) {
		t.Error("candidate not stale after endpoint invalidation")
	}
}

func TestDeferred(t *testing.T) {
	q := NewQueue(8)
	q.Defer(mesh.MakeEdge(3, 1))
	q.Defer(mesh.MakeEdge(1, 3))
	q.Defer(mesh.MakeEdge(5, 6))
	q.Defer(mesh.MakeEdge(0, 3))

	if q.Deferred() != 3 {
		t.Fatalf("Deferred() = %d, want 3", q.Deferred())
	}
	got := q.TakeDeferred(3, 7)
	want := []mesh.Edge{{A: 0, B: 3}, {A: 1, B: 3}}
	if len(got) != len(want) {
		t.Fatalf("TakeDeferred(3) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TakeDeferred(3)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := q.TakeDeferred(1); len(got) != 0 {
		t.Errorf("edge returned twice: %v", got)
	}
	if q.Deferred() != 1 {
		t.Errorf("Deferred() = %d, want 1", q.Deferred())
	}
}

func TestCostOptimal(t *testing.T) {
	qa := quadric.FromPlane(r3.Vec{X: 1}, -1).Add(quadric.FromPlane(r3.Vec{Y: 1}, -2))
	qb := quadric.FromPlane(r3.Vec{Z: 1}, -3)
	cost, p := Cost(qa, qb, r3.Vec{}, r3.Vec{X: 4}, Placement{Optimal: true})
	if cost > 1e-9 {
		t.Errorf("cost = %v, want 0", cost)
	}
	if r3.Norm(r3.Sub(p, r3.Vec{X: 1, Y: 2, Z: 3})) > 1e-9 {
		t.Errorf("target = %v, want (1,2,3)", p)
	}
}

func TestCostMidpointFallback(t *testing.T) {
	plane := quadric.FromPlane(r3.Vec{Z: 1}, 0)
	pa, pb := r3.Vec{Z: 1}, r3.Vec{X: 2, Z: 3}

	for _, pl := range []Placement{{Optimal: true}, {Optimal: false}} {
		cost, p := Cost(plane, plane, pa, pb, pl)
		if p != (r3.Vec{X: 1, Z: 2}) {
			t.Errorf("%+v: target = %v, want midpoint", pl, p)
		}
		if math.Abs(cost-8) > 1e-9 {
			t.Errorf("%+v: cost = %v, want 8", pl, cost)
		}
	}
}

// Package simplify reduces triangle meshes by quadric-error edge collapse.
//
// A Simplifier owns a private copy of its input mesh together with the
// adjacency index, per-vertex quadrics and candidate queue built from it.
// Each Step applies the cheapest legal collapse; Run steps until the target
// face count is reached or no legal collapse remains. A finished Simplifier
// can be given a lower target with Retarget and run again, reusing all of
// its accumulated state.
package simplify

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/lodsmith/pkg/collapse"
	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is the lifecycle stage of a Simplifier.
type State int

const (
	Ready State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one pass.
type Result struct {
	// Mesh is a compacted snapshot owned by the caller.
	Mesh      *mesh.Mesh
	Requested int
	Achieved  int
	Collapses int
	Rejected  int
	// Reached reports whether Achieved is at or below Requested.
	Reached bool
}

// Simplifier runs edge collapses on a private working mesh. It is not safe
// for concurrent use; independent Simplifiers share nothing.
type Simplifier struct {
	opts  Options
	log   *zap.Logger
	state State

	m   *mesh.Mesh
	adj *mesh.Adjacency
	q   []quadric.Quadric
	pq  *collapse.Queue

	target    int
	collapses int
	rejected  int
	result    *Result
}

// verdict classifies a popped candidate.
type verdict int

const (
	legal verdict = iota
	// gone: the edge no longer exists; the candidate is dropped.
	gone
	// illegal: the collapse is currently forbidden; the edge is parked
	// until its neighborhood changes.
	illegal
)

// New validates opts, repairs a private copy of src and prepares the
// adjacency, quadrics and candidate queue.
func New(src *mesh.Mesh, opts Options) (*Simplifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("simplify: %w", err)
	}
	if src == nil || src.LiveFaceCount() == 0 {
		return nil, fmt.Errorf("simplify: %w: mesh has no faces", mesh.ErrInvalidInput)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := src.Clone()
	if rep := mesh.Repair(m, mesh.RepairOptions{AreaEpsilon: opts.areaEpsilon()}); rep.Changed() {
		log.Debug("repaired input",
			zap.Int("degenerate_faces", rep.DegenerateFaces),
			zap.Int("duplicate_vertices", rep.DuplicateVertices),
			zap.Int("unreferenced_vertices", rep.UnreferencedVertices))
	}
	if m.LiveFaceCount() == 0 {
		return nil, fmt.Errorf("simplify: %w: no faces survive repair", mesh.ErrInvalidInput)
	}

	s := &Simplifier{
		opts:   opts,
		log:    log,
		m:      m,
		adj:    mesh.BuildAdjacency(m),
		pq:     collapse.NewQueue(len(m.Vertices)),
		target: opts.TargetFaces,
	}
	s.q = quadric.Initialize(m, s.adj, quadric.Options{
		BoundaryWeight:       opts.BoundaryQuadricWeight,
		QualityQuadric:       opts.QualityQuadric,
		QualityQuadricWeight: opts.QualityQuadricWeight,
		AreaWeighted:         opts.AreaWeighted,
	})
	for _, e := range s.adj.Edges() {
		s.pq.Push(s.score(e))
	}
	return s, nil
}

// State returns the current lifecycle stage.
func (s *Simplifier) State() State { return s.state }

// LiveFaces returns the current live face count of the working mesh.
func (s *Simplifier) LiveFaces() int { return s.m.LiveFaceCount() }

// Target returns the face count the current pass aims for.
func (s *Simplifier) Target() int { return s.target }

// Quadric returns the accumulated quadric of vertex v.
func (s *Simplifier) Quadric(v int) quadric.Quadric { return s.q[v] }

// Snapshot returns a compacted copy of the working mesh.
func (s *Simplifier) Snapshot() *mesh.Mesh {
	c := s.m.Clone()
	c.Compact()
	return c
}

// Retarget sets a new target face count. If the working mesh is above it,
// the Simplifier returns to Running so further Steps continue reducing from
// where the previous pass stopped.
func (s *Simplifier) Retarget(n int) {
	if n < 0 {
		n = 0
	}
	s.target = n
	s.result = nil
	if s.state == Done && s.m.LiveFaceCount() > n {
		s.state = Running
	}
}

// Run steps until the pass is done and returns its result.
func (s *Simplifier) Run() *Result {
	for s.Step() {
	}
	if s.result == nil {
		s.finish()
	}
	return s.result
}

// Step applies at most one collapse. It returns false once the pass is
// done, either because the target was reached or because no legal
// collapse remains.
func (s *Simplifier) Step() bool {
	switch s.state {
	case Done:
		return false
	case Ready:
		s.state = Running
		s.log.Debug("simplification started",
			zap.Int("faces", s.m.LiveFaceCount()),
			zap.Int("vertices", s.m.LiveVertexCount()),
			zap.Int("target", s.target))
	}

	if s.m.LiveFaceCount() <= s.target {
		s.finish()
		return false
	}
	for {
		c, ok := s.pq.Pop()
		if !ok {
			s.finish()
			return false
		}
		switch s.check(c) {
		case gone:
			continue
		case illegal:
			s.rejected++
			s.pq.Defer(c.Edge)
			continue
		}
		s.apply(c)
		s.collapses++
		if s.m.LiveFaceCount() <= s.target {
			s.finish()
		}
		return true
	}
}

func (s *Simplifier) finish() {
	s.state = Done
	out := s.Snapshot()
	if s.opts.PostRepair {
		mesh.Repair(out, mesh.RepairOptions{AreaEpsilon: s.opts.areaEpsilon()})
	}
	r := &Result{
		Mesh:      out,
		Requested: s.target,
		Achieved:  out.LiveFaceCount(),
		Collapses: s.collapses,
		Rejected:  s.rejected,
	}
	r.Reached = r.Achieved <= r.Requested
	s.result = r

	s.log.Debug("simplification finished",
		zap.Int("requested", r.Requested),
		zap.Int("achieved", r.Achieved),
		zap.Int("collapses", r.Collapses),
		zap.Int("rejected", r.Rejected),
		zap.Int("deferred", s.pq.Deferred()))
	if s.opts.Observer != nil {
		s.opts.Observer.OnComplete(*r)
	}
}

// endpoints returns the surviving and removed vertex of a collapse of e.
// The lower index survives unless boundary preservation pins the other.
func (s *Simplifier) endpoints(e mesh.Edge) (keep, drop int) {
	if s.opts.PreserveBoundary && !s.boundary(e.A) && s.boundary(e.B) {
		return e.B, e.A
	}
	return e.A, e.B
}

func (s *Simplifier) boundary(v int) bool {
	return s.adj.IsBoundaryVertex(s.m, v)
}

// score computes the cost and merge position of collapsing e.
func (s *Simplifier) score(e mesh.Edge) collapse.Candidate {
	pa, pb := s.m.Vertices[e.A].Pos, s.m.Vertices[e.B].Pos
	qa, qb := s.q[e.A], s.q[e.B]

	var cost float64
	var target r3.Vec
	pinned := false
	if s.opts.PreserveBoundary {
		ba, bb := s.boundary(e.A), s.boundary(e.B)
		if ba != bb {
			target = pa
			if bb {
				target = pb
			}
			cost = quadric.Merge(qa, qb).Eval(target)
			pinned = true
		}
	}
	if !pinned {
		cost, target = collapse.Cost(qa, qb, pa, pb, collapse.Placement{
			Optimal:      s.opts.OptimalPlacement,
			MaxCondition: s.opts.MaxCondition,
		})
	}

	if thr := s.opts.QualityThreshold; thr > 0 {
		if minQ := s.worstQuality(e, target); minQ < thr {
			cost = math.Max(cost, 1e-11) * thr / math.Max(minQ, 1e-6)
		}
	}
	return collapse.Candidate{Edge: e, Cost: cost, Target: target}
}

// moved calls fn for every live face that survives collapsing e, with the
// face's current corners and its corners after the endpoint moves to p.
func (s *Simplifier) moved(e mesh.Edge, p r3.Vec, fn func(fi int, after [3]r3.Vec) bool) {
	visit := func(v int) bool {
		for _, fi := range s.adj.VertexFaces(v) {
			f := &s.m.Faces[fi]
			// Faces on the edge itself disappear, and every other face
			// holds only one endpoint so it is visited once.
			if f.Has(e.A) && f.Has(e.B) {
				continue
			}
			var after [3]r3.Vec
			for c, u := range f.V {
				if u == e.A || u == e.B {
					after[c] = p
				} else {
					after[c] = s.m.Vertices[u].Pos
				}
			}
			if !fn(fi, after) {
				return false
			}
		}
		return true
	}
	if visit(e.A) {
		visit(e.B)
	}
}

func (s *Simplifier) worstQuality(e mesh.Edge, p r3.Vec) float64 {
	worst := 1.0
	s.moved(e, p, func(_ int, t [3]r3.Vec) bool {
		worst = math.Min(worst, mesh.TriangleQuality(t[0], t[1], t[2]))
		return true
	})
	return worst
}

// check decides whether c may be applied to the current mesh.
func (s *Simplifier) check(c collapse.Candidate) verdict {
	e := c.Edge
	if !s.m.Vertices[e.A].Live || !s.m.Vertices[e.B].Live {
		return gone
	}
	faces := s.adj.EdgeFaces(e)
	if len(faces) == 0 {
		return gone
	}
	if len(faces) > 2 {
		return illegal
	}

	if s.opts.PreserveBoundary && s.boundary(e.A) && s.boundary(e.B) {
		return illegal
	}
	if s.opts.PreserveTopology && !s.linkCondition(e, len(faces)) {
		return illegal
	}

	eps := s.opts.areaEpsilon()
	cosLimit := math.Cos(s.opts.NormalDeviationLimit)
	hard := s.opts.HardQualityThreshold
	ok := true
	s.moved(e, c.Target, func(fi int, t [3]r3.Vec) bool {
		if mesh.TriangleArea(t[0], t[1], t[2]) <= eps {
			ok = false
			return false
		}
		if hard > 0 && mesh.TriangleQuality(t[0], t[1], t[2]) < hard {
			ok = false
			return false
		}
		if s.opts.NormalDeviationLimit > 0 {
			before := s.m.FaceNormal(fi)
			after := mesh.TriangleNormal(t[0], t[1], t[2])
			if before != (r3.Vec{}) && r3.Dot(before, after) < cosLimit {
				ok = false
				return false
			}
		}
		return true
	})
	if !ok {
		return illegal
	}
	return legal
}

// linkCondition reports whether the endpoints of e share exactly the
// vertices opposite e in its faces, and that an interior edge does not
// join two boundary vertices.
func (s *Simplifier) linkCondition(e mesh.Edge, edgeFaces int) bool {
	na := s.adj.Neighbors(s.m, e.A)
	nb := s.adj.Neighbors(s.m, e.B)
	var common []int
	for i, j := 0, 0; i < len(na) && j < len(nb); {
		switch {
		case na[i] < nb[j]:
			i++
		case na[i] > nb[j]:
			j++
		default:
			common = append(common, na[i])
			i++
			j++
		}
	}

	opp := s.adj.OppositeVertices(s.m, e)
	sort.Ints(opp)
	if len(common) != len(opp) {
		return false
	}
	for i := range opp {
		if common[i] != opp[i] {
			return false
		}
	}

	if edgeFaces == 2 && s.boundary(e.A) && s.boundary(e.B) {
		return false
	}
	return true
}

// apply performs the collapse and refreshes the affected neighborhood.
func (s *Simplifier) apply(c collapse.Candidate) {
	keep, drop := s.endpoints(c.Edge)
	ev := CollapseEvent{
		Edge:           c.Edge,
		Kept:           keep,
		Removed:        drop,
		Position:       c.Target,
		Cost:           c.Cost,
		KeptQuadric:    s.q[keep],
		RemovedQuadric: s.q[drop],
	}

	s.m.Vertices[keep].Pos = c.Target
	s.q[keep] = quadric.Merge(s.q[keep], s.q[drop])
	ev.Merged = s.q[keep]

	var orphans []int
	before := s.m.LiveFaceCount()
	for _, fi := range append([]int(nil), s.adj.VertexFaces(drop)...) {
		f := &s.m.Faces[fi]
		if f.Has(keep) {
			for _, u := range f.V {
				if u != keep && u != drop {
					orphans = append(orphans, u)
				}
			}
			s.m.KillFace(fi)
			continue
		}
		f.V[f.Corner(drop)] = keep
	}
	s.m.KillVertex(drop)
	s.adj.Update(s.m, keep, drop)

	for _, v := range append(orphans, keep) {
		if s.m.Vertices[v].Live && len(s.adj.VertexFaces(v)) == 0 {
			s.m.KillVertex(v)
			s.pq.Invalidate(v)
		}
	}

	s.pq.Invalidate(keep)
	s.pq.Invalidate(drop)

	var neighbors []int
	if s.m.Vertices[keep].Live {
		neighbors = s.adj.Neighbors(s.m, keep)
	}
	revived := s.pq.TakeDeferred(append([]int{keep, drop}, neighbors...)...)

	// The faces around every neighbor changed shape, so the quality
	// penalty on their other edges is out of date.
	rescored := map[mesh.Edge]bool{}
	if s.opts.QualityThreshold > 0 {
		for _, n := range neighbors {
			s.pq.Invalidate(n)
		}
	}
	for _, n := range neighbors {
		s.pq.Push(s.score(mesh.MakeEdge(keep, n)))
	}
	if s.opts.QualityThreshold > 0 {
		for _, n := range neighbors {
			for _, x := range s.adj.Neighbors(s.m, n) {
				e := mesh.MakeEdge(n, x)
				if x == keep || rescored[e] {
					continue
				}
				rescored[e] = true
				s.pq.Push(s.score(e))
			}
		}
	}
	for _, e := range revived {
		if e.A == keep || e.B == keep || e.A == drop || e.B == drop || rescored[e] {
			continue
		}
		if !s.m.Vertices[e.A].Live || !s.m.Vertices[e.B].Live {
			continue
		}
		s.pq.Push(s.score(e))
	}

	ev.FacesRemoved = before - s.m.LiveFaceCount()
	ev.LiveFaces = s.m.LiveFaceCount()
	if s.opts.Observer != nil {
		s.opts.Observer.OnCollapse(ev)
	}
}

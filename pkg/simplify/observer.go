package simplify

import (
	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// CollapseEvent describes one applied collapse.
type CollapseEvent struct {
	Edge     mesh.Edge
	Kept     int
	Removed  int
	Position r3.Vec
	Cost     float64

	// KeptQuadric and RemovedQuadric are the endpoint quadrics before the
	// collapse; Merged is their sum, now held by Kept.
	KeptQuadric    quadric.Quadric
	RemovedQuadric quadric.Quadric
	Merged         quadric.Quadric

	FacesRemoved int
	LiveFaces    int
}

// Observer receives progress notifications. Implementations must not
// modify the simplifier they observe.
type Observer interface {
	OnCollapse(CollapseEvent)
	OnComplete(Result)
}

// LogObserver writes collapses at debug level and pass completion at info.
type LogObserver struct {
	Log *zap.Logger
}

var _ Observer = LogObserver{}

func (o LogObserver) OnCollapse(ev CollapseEvent) {
	o.Log.Debug("collapse",
		zap.Int("kept", ev.Kept),
		zap.Int("removed", ev.Removed),
		zap.Float64("cost", ev.Cost),
		zap.Int("faces_removed", ev.FacesRemoved),
		zap.Int("live_faces", ev.LiveFaces))
}

func (o LogObserver) OnComplete(r Result) {
	o.Log.Info("simplification pass complete",
		zap.Int("requested", r.Requested),
		zap.Int("achieved", r.Achieved),
		zap.Int("collapses", r.Collapses),
		zap.Int("rejected", r.Rejected),
		zap.Bool("reached", r.Reached))
}

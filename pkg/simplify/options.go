package simplify

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrInvalidOptions is wrapped by every error returned from Options.Validate.
var ErrInvalidOptions = errors.New("invalid simplify options")

// Options configures one simplification run. The value is copied into the
// Simplifier; later changes by the caller have no effect on a run.
type Options struct {
	// TargetFaces is the live face count at which the run stops.
	TargetFaces int

	// PreserveBoundary forbids collapses that would move or remove a
	// boundary vertex.
	PreserveBoundary bool
	// BoundaryQuadricWeight scales the extra quadric placed on boundary
	// edges. Zero disables it.
	BoundaryQuadricWeight float64

	// QualityThreshold penalizes, but does not forbid, collapses that leave
	// a triangle with shape quality below this value. Zero disables it.
	QualityThreshold float64
	// HardQualityThreshold forbids collapses that leave a triangle with
	// shape quality below this value. Zero disables it.
	HardQualityThreshold float64
	// QualityQuadric adds a low-weight perpendicular quadric on every edge.
	QualityQuadric       bool
	QualityQuadricWeight float64

	// NormalDeviationLimit, in radians, rejects collapses that rotate any
	// surviving face normal by more than this angle. Zero disables it.
	NormalDeviationLimit float64
	// PreserveTopology enforces the link condition, which keeps closed
	// manifolds manifold.
	PreserveTopology bool

	// OptimalPlacement solves for the error-minimizing merge position;
	// otherwise the edge midpoint is used.
	OptimalPlacement bool
	// MaxCondition bounds the condition number of the placement solve.
	MaxCondition float64
	// AreaWeighted scales face plane quadrics by face area.
	AreaWeighted bool

	// PostRepair runs mesh.Repair on every result.
	PostRepair bool
	// AreaEpsilon is the degenerate-face area used by repair and by the
	// collapse guard. Zero selects mesh.DefaultAreaEpsilon.
	AreaEpsilon float64

	// Logger receives run-level diagnostics. Nil discards them.
	Logger *zap.Logger
	// Observer, when set, is told about every collapse and every
	// completed pass.
	Observer Observer
}

// DefaultOptions returns the standard configuration with no target.
func DefaultOptions() Options {
	return Options{
		BoundaryQuadricWeight: 0.5,
		QualityThreshold:      0.3,
		QualityQuadricWeight:  0.001,
		PreserveTopology:      true,
		OptimalPlacement:      true,
		MaxCondition:          quadric.DefaultMaxCondition,
		PostRepair:            true,
		AreaEpsilon:           mesh.DefaultAreaEpsilon,
	}
}

// Validate reports every out-of-range field.
func (o Options) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidOptions}, args...)...))
	}
	if o.TargetFaces < 0 {
		bad("target faces %d is negative", o.TargetFaces)
	}
	if o.BoundaryQuadricWeight < 0 || math.IsNaN(o.BoundaryQuadricWeight) {
		bad("boundary quadric weight %v must be >= 0", o.BoundaryQuadricWeight)
	}
	if o.QualityQuadricWeight < 0 || math.IsNaN(o.QualityQuadricWeight) {
		bad("quality quadric weight %v must be >= 0", o.QualityQuadricWeight)
	}
	if o.QualityThreshold < 0 || o.QualityThreshold > 1 || math.IsNaN(o.QualityThreshold) {
		bad("quality threshold %v must be in [0,1]", o.QualityThreshold)
	}
	if o.HardQualityThreshold < 0 || o.HardQualityThreshold > 1 || math.IsNaN(o.HardQualityThreshold) {
		bad("hard quality threshold %v must be in [0,1]", o.HardQualityThreshold)
	}
	if o.NormalDeviationLimit < 0 || o.NormalDeviationLimit > math.Pi || math.IsNaN(o.NormalDeviationLimit) {
		bad("normal deviation limit %v must be in [0,pi]", o.NormalDeviationLimit)
	}
	if o.MaxCondition < 0 || math.IsNaN(o.MaxCondition) {
		bad("max condition %v must be >= 0", o.MaxCondition)
	}
	if o.AreaEpsilon < 0 || math.IsNaN(o.AreaEpsilon) {
		bad("area epsilon %v must be >= 0", o.AreaEpsilon)
	}
	return errs
}

func (o Options) areaEpsilon() float64 {
	if o.AreaEpsilon > 0 {
		return o.AreaEpsilon
	}
	return mesh.DefaultAreaEpsilon
}

// Package lod builds level-of-detail chains by progressive simplification.
package lod

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/simplify"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidOptions is wrapped by every error returned from Options.Validate.
var ErrInvalidOptions = errors.New("invalid lod options")

// Options configures a chain.
type Options struct {
	// Levels is the maximum number of reduced levels, not counting the
	// source.
	Levels int
	// Factor scales the face count from one level to the next.
	Factor float64
	// MinFaces stops the chain before a level would target fewer faces.
	MinFaces int
	// Workers bounds how many chains BuildChains runs at once. Zero uses
	// GOMAXPROCS.
	Workers int
	// Simplify configures every pass. TargetFaces is ignored. A shared
	// Observer must be safe for concurrent use under BuildChains.
	Simplify simplify.Options
}

// DefaultOptions returns a three-level halving chain.
func DefaultOptions() Options {
	return Options{
		Levels:   3,
		Factor:   0.5,
		MinFaces: 4,
		Simplify: simplify.DefaultOptions(),
	}
}

// Validate reports every out-of-range field.
func (o Options) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidOptions}, args...)...))
	}
	if o.Levels < 1 {
		bad("levels %d must be at least 1", o.Levels)
	}
	if !(o.Factor > 0 && o.Factor < 1) {
		bad("reduction factor %v must be in (0,1)", o.Factor)
	}
	if o.MinFaces < 0 {
		bad("min faces %d is negative", o.MinFaces)
	}
	if o.Workers < 0 {
		bad("workers %d is negative", o.Workers)
	}
	return errs
}

// Level is one reduced mesh of a chain. Index 1 is the first reduction.
type Level struct {
	Index     int
	Mesh      *mesh.Mesh
	Requested int
	Achieved  int
}

// BuildChain simplifies src progressively: every level continues from the
// state the previous level left behind, targeting Factor times its face
// count. The chain ends early when a target would fall below MinFaces or a
// pass removes nothing. Levels are ordered finest to coarsest.
func BuildChain(src *mesh.Mesh, opts Options) ([]Level, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("lod: %w", err)
	}
	log := opts.Simplify.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sopts := opts.Simplify
	if src != nil {
		sopts.TargetFaces = src.LiveFaceCount()
	}
	s, err := simplify.New(src, sopts)
	if err != nil {
		return nil, fmt.Errorf("lod: %w", err)
	}

	var levels []Level
	current := s.LiveFaces()
	for i := 1; i <= opts.Levels; i++ {
		target := int(math.Round(float64(current) * opts.Factor))
		if target < opts.MinFaces {
			log.Debug("chain stopped at minimum face count",
				zap.Int("level", i), zap.Int("target", target), zap.Int("min_faces", opts.MinFaces))
			break
		}

		s.Retarget(target)
		res := s.Run()
		if s.LiveFaces() >= current {
			log.Debug("chain stalled", zap.Int("level", i), zap.Int("faces", current))
			break
		}
		levels = append(levels, Level{
			Index:     i,
			Mesh:      res.Mesh,
			Requested: target,
			Achieved:  res.Achieved,
		})
		log.Info("lod level built",
			zap.Int("level", i),
			zap.Int("requested", target),
			zap.Int("achieved", res.Achieved))
		current = s.LiveFaces()
	}
	return levels, nil
}

// BuildChains builds one chain per source concurrently, with at most
// Workers chains in flight. Results are indexed like sources. The first
// failure cancels chains not yet started.
func BuildChains(ctx context.Context, sources []*mesh.Mesh, opts Options) ([][]Level, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("lod: %w", err)
	}
	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Simplify.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := make([][]Level, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o := opts
			o.Simplify.Logger = log.With(zap.Int("source", i))
			levels, err := BuildChain(src, o)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			out[i] = levels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

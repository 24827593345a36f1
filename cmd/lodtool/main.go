// lodtool builds simplified meshes and LOD chains from JSON meshes or
// shape scripts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/lodsmith/internal/config"
	"github.com/chazu/lodsmith/internal/logger"
	"github.com/chazu/lodsmith/pkg/engine"
	"github.com/chazu/lodsmith/pkg/kernel/sdfx"
	"github.com/chazu/lodsmith/pkg/lod"
	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/simplify"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "shape":
		err = cmdShape(args)
	case "simplify", "s":
		err = cmdSimplify(args)
	case "chain":
		err = cmdChain(args)
	case "batch":
		err = cmdBatch(args)
	case "info":
		err = cmdInfo(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lodtool - mesh simplification and LOD chain builder

Usage:
  lodtool <command> [options]

Commands:
  shape    -script f.lisp -out m.json      Tessellate a shape script
  simplify -in m.json -out s.json -target N Simplify one mesh
  chain    -in m.json -out-dir dir         Build lod0..lodN for one mesh
  batch    -out-dir dir a.json b.json ...  Build chains for many meshes
  info     m.json                          Show mesh statistics
  config   [-write lodtool.yaml]           Print or save the effective settings

Common options:
  -config file   YAML settings (default lodtool.yaml if present)
  -debug         Debug logging
  -log-file f    Also log to a rotating file

Examples:
  lodtool shape -script bracket.lisp -out bracket.json -cells 128
  lodtool simplify -in bracket.json -out small.json -target 500 -stl small.stl
  lodtool chain -in bracket.json -out-dir lods -levels 4 -factor 0.5`)
}

// setup loads settings and starts logging for a subcommand.
func setup(f *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	return cfg, nil
}

func cmdShape(args []string) error {
	fs := flag.NewFlagSet("shape", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	script := fs.String("script", "", "Shape script path")
	out := fs.String("out", "", "Output mesh (.json)")
	cells := fs.Int("cells", 64, "Marching cubes resolution")
	fs.Parse(args)

	if *script == "" || *out == "" {
		return errors.New("usage: lodtool shape -script <file> -out <mesh.json>")
	}
	if _, err := setup(&f); err != nil {
		return err
	}
	log := logger.Named("shape")

	src, err := os.ReadFile(*script)
	if err != nil {
		return err
	}

	start := time.Now()
	k := sdfx.NewWithCells(*cells)
	solid, evalErrs, err := engine.NewEngine(k).Evaluate(string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Error("script error", zap.Int("line", e.Line), zap.String("message", e.Message))
		}
		return fmt.Errorf("%s: %w", *script, evalErrs[0])
	}
	if solid == nil {
		return fmt.Errorf("%s: script produced no solid", *script)
	}

	km, err := k.ToMesh(solid)
	if err != nil {
		return err
	}
	m, err := mesh.FromKernel(km)
	if err != nil {
		return err
	}
	// Marching cubes emits a triangle soup; weld it before storing.
	rep := mesh.Repair(m, mesh.RepairOptions{})
	log.Info("tessellated",
		zap.Int("faces", m.LiveFaceCount()),
		zap.Int("welded_vertices", rep.DuplicateVertices),
		zap.Duration("elapsed", time.Since(start)))

	return writeMesh(*out, baseName(*script), m)
}

func cmdSimplify(args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	f.RegisterSimplify(fs)
	in := fs.String("in", "", "Input mesh (.json)")
	out := fs.String("out", "", "Output mesh (.json)")
	stl := fs.String("stl", "", "Also write binary STL")
	fs.Parse(args)

	if *in == "" || *out == "" {
		return errors.New("usage: lodtool simplify -in <mesh.json> -out <mesh.json> -target N")
	}
	cfg, err := setup(&f)
	if err != nil {
		return err
	}
	log := logger.Named("simplify")

	m, err := readMesh(*in)
	if err != nil {
		return err
	}

	opts := cfg.SimplifyOptions(log)
	if f.Debug {
		opts.Observer = simplify.LogObserver{Log: log}
	}
	start := time.Now()
	s, err := simplify.New(m, opts)
	if err != nil {
		return err
	}
	res := s.Run()
	log.Info("simplified",
		zap.String("in", *in),
		zap.Int("requested", res.Requested),
		zap.Int("achieved", res.Achieved),
		zap.Bool("reached", res.Reached),
		zap.Duration("elapsed", time.Since(start)))
	if !res.Reached {
		log.Warn("target not reached; remaining collapses were illegal", zap.Int("rejected", res.Rejected))
	}

	if err := writeMesh(*out, baseName(*in), res.Mesh); err != nil {
		return err
	}
	if *stl != "" {
		return sdfx.WriteSTL(*stl, res.Mesh.ToKernel(baseName(*in)))
	}
	return nil
}

func cmdChain(args []string) error {
	fs := flag.NewFlagSet("chain", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	f.RegisterLOD(fs)
	in := fs.String("in", "", "Input mesh (.json)")
	outDir := fs.String("out-dir", "lods", "Output directory")
	fs.Parse(args)

	if *in == "" {
		return errors.New("usage: lodtool chain -in <mesh.json> [-out-dir dir]")
	}
	cfg, err := setup(&f)
	if err != nil {
		return err
	}
	log := logger.Named("chain")

	m, err := readMesh(*in)
	if err != nil {
		return err
	}
	start := time.Now()
	levels, err := lod.BuildChain(m, cfg.LODOptions(log))
	if err != nil {
		return err
	}
	if err := writeChain(*outDir, baseName(*in), m, levels); err != nil {
		return err
	}
	log.Info("chain written",
		zap.String("dir", *outDir),
		zap.Int("levels", len(levels)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	f.RegisterLOD(fs)
	outDir := fs.String("out-dir", "lods", "Output directory; one subdirectory per input")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return errors.New("usage: lodtool batch [-out-dir dir] <mesh.json>...")
	}
	cfg, err := setup(&f)
	if err != nil {
		return err
	}
	log := logger.Named("batch")

	paths := fs.Args()
	sources := make([]*mesh.Mesh, len(paths))
	for i, p := range paths {
		if sources[i], err = readMesh(p); err != nil {
			return err
		}
	}

	start := time.Now()
	chains, err := lod.BuildChains(context.Background(), sources, cfg.LODOptions(log))
	if err != nil {
		return err
	}
	for i, p := range paths {
		name := baseName(p)
		if err := writeChain(filepath.Join(*outDir, name), name, sources[i], chains[i]); err != nil {
			return err
		}
	}
	log.Info("batch complete",
		zap.Int("sources", len(paths)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: lodtool info <mesh.json>")
	}
	m, err := readMesh(args[0])
	if err != nil {
		return err
	}
	adj := mesh.BuildAdjacency(m)
	boundary := 0
	nonManifold := 0
	edges := adj.Edges()
	for _, e := range edges {
		switch n := len(adj.EdgeFaces(e)); {
		case n == 1:
			boundary++
		case n > 2:
			nonManifold++
		}
	}
	lo, hi := m.Bounds()

	fmt.Printf("Mesh:         %s\n", args[0])
	fmt.Printf("Vertices:     %d\n", m.LiveVertexCount())
	fmt.Printf("Faces:        %d\n", m.LiveFaceCount())
	fmt.Printf("Edges:        %d (%d boundary, %d non-manifold)\n", len(edges), boundary, nonManifold)
	fmt.Printf("Bounds:       (%.4g, %.4g, %.4g) - (%.4g, %.4g, %.4g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
	return nil
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	f.RegisterSimplify(fs)
	f.RegisterLOD(fs)
	write := fs.String("write", "", "Save the settings to this file instead of printing them")
	fs.Parse(args)

	cfg, err := config.Load(&f)
	if err != nil {
		return err
	}
	if *write != "" {
		if err := cfg.SaveTo(*write); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *write)
		return nil
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// writeChain stores the source as lod0 followed by every reduced level.
func writeChain(dir, name string, src *mesh.Mesh, levels []lod.Level) error {
	if err := writeMesh(levelPath(dir, 0), name, src); err != nil {
		return err
	}
	for _, l := range levels {
		if err := writeMesh(levelPath(dir, l.Index), fmt.Sprintf("%s_lod%d", name, l.Index), l.Mesh); err != nil {
			return err
		}
	}
	return nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

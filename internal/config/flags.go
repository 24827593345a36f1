package config

import "flag"

// Flags are the command-line overrides shared by lodtool subcommands. Zero
// values leave the loaded setting alone.
type Flags struct {
	Config  string
	Debug   bool
	LogFile string

	Target           int
	PreserveBoundary bool
	Levels           int
	Factor           float64
	Workers          int
}

// Register adds the common flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to YAML config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this rotating file")
}

// RegisterSimplify adds flags that tune a single simplification.
func (f *Flags) RegisterSimplify(fs *flag.FlagSet) {
	fs.IntVar(&f.Target, "target", 0, "Target face count")
	f.registerBoundary(fs)
}

// RegisterLOD adds flags that shape a chain.
func (f *Flags) RegisterLOD(fs *flag.FlagSet) {
	fs.IntVar(&f.Levels, "levels", 0, "Number of reduced levels")
	fs.Float64Var(&f.Factor, "factor", 0, "Face count ratio between levels")
	fs.IntVar(&f.Workers, "workers", 0, "Chains built in parallel (batch)")
	f.registerBoundary(fs)
}

// registerBoundary is shared by the simplify and LOD flag groups.
func (f *Flags) registerBoundary(fs *flag.FlagSet) {
	if fs.Lookup("preserve-boundary") != nil {
		return
	}
	fs.BoolVar(&f.PreserveBoundary, "preserve-boundary", false, "Keep boundary vertices fixed")
}

func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Target > 0 {
		cfg.Simplify.TargetFaces = f.Target
	}
	if f.PreserveBoundary {
		cfg.Simplify.PreserveBoundary = true
	}
	if f.Levels > 0 {
		cfg.LOD.Levels = f.Levels
	}
	if f.Factor > 0 {
		cfg.LOD.ReductionFactor = f.Factor
	}
	if f.Workers > 0 {
		cfg.LOD.Workers = f.Workers
	}
}

// Package config loads lodtool settings from defaults, an optional YAML
// file and command-line flags, in increasing priority.
package config

import (
	"math"

	"github.com/chazu/lodsmith/pkg/lod"
	"github.com/chazu/lodsmith/pkg/mesh"
	"github.com/chazu/lodsmith/pkg/quadric"
	"github.com/chazu/lodsmith/pkg/simplify"
	"go.uber.org/zap"
)

// Config holds all lodtool settings.
type Config struct {
	Simplify SimplifyConfig `yaml:"simplify"`
	LOD      LODConfig      `yaml:"lod"`
	Repair   RepairConfig   `yaml:"repair"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SimplifyConfig mirrors simplify.Options.
type SimplifyConfig struct {
	TargetFaces              int     `yaml:"target_faces"`
	PreserveBoundary         bool    `yaml:"preserve_boundary"`
	BoundaryQuadricWeight    float64 `yaml:"boundary_quadric_weight"`
	QualityThreshold         float64 `yaml:"quality_threshold"`
	HardQualityThreshold     float64 `yaml:"hard_quality_threshold"`
	QualityQuadric           bool    `yaml:"quality_quadric"`
	QualityQuadricWeight     float64 `yaml:"quality_quadric_weight"`
	NormalDeviationLimitDeg  float64 `yaml:"normal_deviation_limit_deg"`
	PreserveTopology         bool    `yaml:"preserve_topology"`
	OptimalPlacement         bool    `yaml:"optimal_placement"`
	AreaWeighted             bool    `yaml:"area_weighted"`
	MaxCondition             float64 `yaml:"max_condition"`
	PostRepair               bool    `yaml:"post_repair"`
}

// LODConfig mirrors lod.Options.
type LODConfig struct {
	Levels          int     `yaml:"levels"`
	ReductionFactor float64 `yaml:"reduction_factor"`
	MinFaces        int     `yaml:"min_faces"`
	Workers         int     `yaml:"workers"`
}

// RepairConfig holds mesh cleanup settings.
type RepairConfig struct {
	AreaEpsilon float64 `yaml:"area_epsilon"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the library defaults.
func Default() *Config {
	return &Config{
		Simplify: SimplifyConfig{
			BoundaryQuadricWeight: 0.5,
			QualityThreshold:      0.3,
			QualityQuadricWeight:  0.001,
			PreserveTopology:      true,
			OptimalPlacement:      true,
			MaxCondition:          quadric.DefaultMaxCondition,
			PostRepair:            true,
		},
		LOD: LODConfig{
			Levels:          3,
			ReductionFactor: 0.5,
			MinFaces:        4,
		},
		Repair: RepairConfig{
			AreaEpsilon: mesh.DefaultAreaEpsilon,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SimplifyOptions converts the settings to simplify.Options. The normal
// deviation limit is given in degrees in the file and radians in the
// options.
func (c *Config) SimplifyOptions(log *zap.Logger) simplify.Options {
	s := c.Simplify
	return simplify.Options{
		TargetFaces:           s.TargetFaces,
		PreserveBoundary:      s.PreserveBoundary,
		BoundaryQuadricWeight: s.BoundaryQuadricWeight,
		QualityThreshold:      s.QualityThreshold,
		HardQualityThreshold:  s.HardQualityThreshold,
		QualityQuadric:        s.QualityQuadric,
		QualityQuadricWeight:  s.QualityQuadricWeight,
		NormalDeviationLimit:  s.NormalDeviationLimitDeg * math.Pi / 180,
		PreserveTopology:      s.PreserveTopology,
		OptimalPlacement:      s.OptimalPlacement,
		AreaWeighted:          s.AreaWeighted,
		MaxCondition:          s.MaxCondition,
		PostRepair:            s.PostRepair,
		AreaEpsilon:           c.Repair.AreaEpsilon,
		Logger:                log,
	}
}

// LODOptions converts the settings to lod.Options.
func (c *Config) LODOptions(log *zap.Logger) lod.Options {
	return lod.Options{
		Levels:   c.LOD.Levels,
		Factor:   c.LOD.ReductionFactor,
		MinFaces: c.LOD.MinFaces,
		Workers:  c.LOD.Workers,
		Simplify: c.SimplifyOptions(log),
	}
}

// Package discover is the engine that enumerates candidate rules over the
// constraint graph and scores them against the data. A run is driven by
// the caller through a lazy iterator; the engine is single-threaded and
// cooperative, suspending only between rule yields.
package discover

import (
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/Fran-cois/MATILDA/internal/core"
)

var (
	// ErrConfig reports invalid discovery parameters. It is surfaced
	// before any work starts.
	ErrConfig = errors.NewKind("discover: invalid configuration: %s")
	// ErrSchema reports a schema-level problem that prevents a run.
	ErrSchema = errors.NewKind("discover: schema error: %s")
	// ErrCancelled reports a run stopped by its context.
	ErrCancelled = errors.NewKind("discover: cancelled")
	// ErrResourceBound reports a frontier that outgrew its cap. The engine
	// recovers by downgrading to depth-first traversal.
	ErrResourceBound = errors.NewKind("discover: frontier exceeded %d entries")
)

// Traversal strategy names.
const (
	StrategyDFS   = "dfs"
	StrategyBFS   = "bfs"
	StrategyAStar = "astar"
)

// HybridWeights are the component weights of the hybrid heuristic.
type HybridWeights struct {
	Naive           float64 `json:"naive" toml:"naive" yaml:"naive"`
	TableSize       float64 `json:"table_size" toml:"table_size" yaml:"table_size"`
	JoinSelectivity float64 `json:"join_selectivity" toml:"join_selectivity" yaml:"join_selectivity"`
}

// Config gathers every tunable of a discovery run. All numeric thresholds
// live here; the engine itself carries no literal tuning values.
type Config struct {
	// MaxTables (the user-visible parameter N) caps the distinct
	// (table, occurrence) pairs of a rule.
	MaxTables int `json:"max_tables" toml:"max_tables" yaml:"max_tables"`
	// MaxVars caps the distinct JIAs (variables) of a rule.
	MaxVars int `json:"max_vars" toml:"max_vars" yaml:"max_vars"`
	// MaxOccurrence caps how many times one table may appear in a rule.
	MaxOccurrence int `json:"max_occurrence" toml:"max_occurrence" yaml:"max_occurrence"`

	// Strategy selects the traversal: dfs, bfs or astar.
	Strategy string `json:"strategy" toml:"strategy" yaml:"strategy"`
	// Heuristic names the scoring function best-first traversal uses.
	Heuristic string `json:"heuristic" toml:"heuristic" yaml:"heuristic"`

	// OverlapThreshold is the minimum value-overlap ratio counting as
	// domain evidence for attribute compatibility.
	OverlapThreshold float64 `json:"overlap_threshold" toml:"overlap_threshold" yaml:"overlap_threshold"`
	// OverlapFloor is the minimum absolute shared-value count.
	OverlapFloor int `json:"overlap_floor" toml:"overlap_floor" yaml:"overlap_floor"`
	// SupportThreshold is the minimum support for a rule to be emitted.
	SupportThreshold float64 `json:"support_threshold" toml:"support_threshold" yaml:"support_threshold"`
	// ConfidenceThreshold is the minimum confidence for a rule to be
	// emitted.
	ConfidenceThreshold float64 `json:"confidence_threshold" toml:"confidence_threshold" yaml:"confidence_threshold"`

	// Weights parameterizes the hybrid heuristic.
	Weights HybridWeights `json:"hybrid_weights" toml:"hybrid_weights" yaml:"hybrid_weights"`

	// MaxFrontier caps the best-first priority queue. On overflow the run
	// downgrades to depth-first and continues.
	MaxFrontier int `json:"max_frontier" toml:"max_frontier" yaml:"max_frontier"`

	// ResultsDir, when non-empty, receives the compatibility, graph-metric
	// and timing side files. Empty skips them.
	ResultsDir string `json:"results_dir" toml:"results_dir" yaml:"results_dir"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxTables:           3,
		MaxVars:             6,
		MaxOccurrence:       3,
		Strategy:            StrategyDFS,
		Heuristic:           HeuristicHybrid,
		OverlapThreshold:    0.5,
		OverlapFloor:        3,
		SupportThreshold:    0.1,
		ConfidenceThreshold: 0.5,
		Weights:             HybridWeights{Naive: 0.3, TableSize: 0.4, JoinSelectivity: 0.3},
		MaxFrontier:         1 << 18,
	}
}

// Validate rejects out-of-range parameters and unknown strategy or
// heuristic names before a run starts.
func (c Config) Validate() error {
	if c.MaxTables < 1 {
		return ErrConfig.New("max_tables must be at least 1")
	}
	if c.MaxVars < 1 {
		return ErrConfig.New("max_vars must be at least 1")
	}
	if c.MaxOccurrence < 1 || c.MaxOccurrence > core.MaxOccurrenceLimit {
		return ErrConfig.New("max_occurrence out of range")
	}
	switch c.Strategy {
	case StrategyDFS, StrategyBFS, StrategyAStar:
	default:
		return ErrConfig.New("unknown strategy " + c.Strategy)
	}
	if _, ok := heuristics[c.Heuristic]; !ok {
		return ErrConfig.New("unknown heuristic " + c.Heuristic)
	}
	for _, v := range []float64{c.OverlapThreshold, c.SupportThreshold, c.ConfidenceThreshold} {
		if v < 0 || v > 1 {
			return ErrConfig.New("thresholds must be within [0, 1]")
		}
	}
	if c.OverlapFloor < 0 {
		return ErrConfig.New("overlap_floor must be non-negative")
	}
	if c.MaxFrontier < 1 {
		return ErrConfig.New("max_frontier must be positive")
	}
	return nil
}

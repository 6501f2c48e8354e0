// Package config loads discovery parameters from a TOML or YAML file on
// top of the built-in defaults. The file format is picked by extension;
// scalar values are coerced leniently, so "0.5" and 0.5 both work.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/Fran-cois/MATILDA/internal/discover"
)

// Load reads path into a discover.Config seeded with the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (discover.Config, error) {
	cfg := discover.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s; use .toml, .yaml or .yml", filepath.Ext(path))
	}

	if err := apply(&cfg, raw); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func apply(cfg *discover.Config, raw map[string]any) error {
	for key, v := range raw {
		var err error
		switch key {
		case "max_tables":
			cfg.MaxTables, err = cast.ToIntE(v)
		case "max_vars":
			cfg.MaxVars, err = cast.ToIntE(v)
		case "max_occurrence":
			cfg.MaxOccurrence, err = cast.ToIntE(v)
		case "strategy":
			cfg.Strategy, err = cast.ToStringE(v)
		case "heuristic":
			cfg.Heuristic, err = cast.ToStringE(v)
		case "overlap_threshold":
			cfg.OverlapThreshold, err = cast.ToFloat64E(v)
		case "overlap_floor":
			cfg.OverlapFloor, err = cast.ToIntE(v)
		case "support_threshold":
			cfg.SupportThreshold, err = cast.ToFloat64E(v)
		case "confidence_threshold":
			cfg.ConfidenceThreshold, err = cast.ToFloat64E(v)
		case "max_frontier":
			cfg.MaxFrontier, err = cast.ToIntE(v)
		case "results_dir":
			cfg.ResultsDir, err = cast.ToStringE(v)
		case "hybrid_weights":
			err = applyWeights(&cfg.Weights, v)
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

func applyWeights(w *discover.HybridWeights, v any) error {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return err
	}
	for key, val := range m {
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return err
		}
		switch key {
		case "naive":
			w.Naive = f
		case "table_size":
			w.TableSize = f
		case "join_selectivity":
			w.JoinSelectivity = f
		default:
			return fmt.Errorf("unknown hybrid weight: %s", key)
		}
	}
	return nil
}

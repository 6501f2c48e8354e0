package discover

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Fran-cois/MATILDA/internal/cg"
	"github.com/Fran-cois/MATILDA/internal/compat"
	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

// Run initializes one discovery run over insp and returns its lazy rule
// iterator. Initialization performs the schema snapshot, the
// compatibility analysis and the constraint graph build; an empty graph
// is an empty-result success, not an error. The context cancels both
// initialization and the traversal.
func Run(ctx context.Context, insp inspect.Inspector, dbName string, cfg Config, log *logrus.Entry) (*Iterator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("db", dbName)

	sum := &Summary{
		RunID:        uuid.NewString(),
		Database:     dbName,
		Strategy:     cfg.Strategy,
		RulesSkipped: make(map[string]int),
	}
	if cfg.Strategy == StrategyAStar {
		sum.Heuristic = cfg.Heuristic
	}

	db, err := inspect.Snapshot(ctx, insp, dbName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	interner := core.NewInterner(db)
	sum.InitTimes.TimeToComputeIndexed = time.Since(start).Seconds()

	start = time.Now()
	rel, err := compat.Analyze(ctx, insp, interner, db, compat.Config{
		OverlapThreshold: cfg.OverlapThreshold,
		OverlapFloor:     cfg.OverlapFloor,
	}, log)
	if err != nil {
		return nil, err
	}
	sum.InitTimes.TimeComputeCompatible = time.Since(start).Seconds()

	start = time.Now()
	graph, err := cg.Build(interner, rel.Compatible, cg.Config{
		MaxOccurrence: cfg.MaxOccurrence,
		MaxTables:     cfg.MaxTables,
	})
	sum.InitTimes.TimeBuildingCG = time.Since(start).Seconds()

	if err != nil {
		if cg.ErrGraphEmpty.Is(err) {
			log.Info("constraint graph has no roots, no candidates")
			sum.GraphEmpty = true
			writeSideFiles(cfg.ResultsDir, dbName, rel, cg.Metrics{}, sum.InitTimes, log)
			return emptyIterator(sum), nil
		}
		return nil, err
	}

	m := graph.Metrics()
	log.WithFields(logrus.Fields{
		"nodes": m.Nodes,
		"edges": m.Edges,
		"roots": m.Roots,
	}).Info("constraint graph built")
	writeSideFiles(cfg.ResultsDir, dbName, rel, m, sum.InitTimes, log)

	return newIterator(ctx, cfg, insp, graph, log, sum), nil
}

// Collect drains an iterator into a slice. It is a convenience for
// callers that do not need the stream lazily.
func Collect(it *Iterator) []*rule.TGD {
	var out []*rule.TGD
	for {
		t, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

package discover

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Fran-cois/MATILDA/internal/cg"
	"github.com/Fran-cois/MATILDA/internal/compat"
)

// writeSideFiles persists the compatibility relation, graph metrics and
// initialization timings next to the results. An empty directory skips
// every file; failures are warnings, never fatal: a run must not die on
// its own bookkeeping.
func writeSideFiles(dir, db string, rel *compat.Relation, metrics cg.Metrics, times InitTimes, log *logrus.Entry) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Warn("results directory unavailable, side files skipped")
		return
	}
	write := func(name string, v any) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			log.WithError(err).Warnf("side file %s skipped", name)
			return
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.WithError(err).Warnf("side file %s skipped", name)
		}
	}
	write(fmt.Sprintf("compatibility_%s.json", db), rel)
	write(fmt.Sprintf("cg_metrics_%s.json", db), metrics)
	write(fmt.Sprintf("init_time_metrics_%s.json", db), times)
}

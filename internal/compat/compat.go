// Package compat decides which attribute pairs may share a variable in a
// candidate rule. The outcome is a symmetric relation over interned
// attribute ids, computed once per run and read-only afterwards.
package compat

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Fran-cois/MATILDA/internal/core"
	"github.com/Fran-cois/MATILDA/internal/inspect"
)

// Config carries the tunables of the analysis.
type Config struct {
	// OverlapThreshold is the minimum overlap ratio that counts as domain
	// evidence when no foreign key links the pair.
	OverlapThreshold float64
	// OverlapFloor is the minimum absolute number of shared values; it
	// rejects tiny-cardinality noise that clears the ratio by accident.
	OverlapFloor int
}

// Relation is the symmetric compatibility relation over interned
// attributes.
type Relation struct {
	interner *core.Interner
	pairs    map[pairKey]bool
}

type pairKey struct {
	lo, hi core.AttrID
}

func key(a, b core.AttrID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Compatible reports whether two attributes may share a variable. It is
// symmetric by construction, and identical attributes are always
// compatible so that self-joins stay expressible.
func (r *Relation) Compatible(a, b core.AttrID) bool {
	if a == b {
		return true
	}
	return r.pairs[key(a, b)]
}

// Pairs returns the number of distinct compatible pairs (a ≠ b).
func (r *Relation) Pairs() int { return len(r.pairs) }

// Analyze computes the relation for every unordered attribute pair.
// Inspector failures on a pair demote it to incompatible and the analysis
// continues; only nothing at all being computable is worth surfacing, and
// that shows up later as an empty graph.
func Analyze(ctx context.Context, insp inspect.Inspector, in *core.Interner, db *core.Database, cfg Config, log *logrus.Entry) (*Relation, error) {
	rel := &Relation{interner: in, pairs: make(map[pairKey]bool)}

	// Distinct counts drive both the empty-attribute rejection and the
	// overlap floor; cache them on the interner up front.
	for id := 0; id < in.Len(); id++ {
		a := in.Attr(core.AttrID(id))
		n, err := insp.DistinctCount(ctx, a.Table, a.Column)
		if err != nil {
			log.WithError(err).WithField("attribute", a.Key()).
				Debug("distinct count unavailable, attribute treated as empty")
			n = 0
		}
		in.SetDistinct(core.AttrID(id), n)
	}

	fk := foreignKeyPairs(in, db)

	for i := 0; i < in.Len(); i++ {
		for j := i + 1; j < in.Len(); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			a, b := core.AttrID(i), core.AttrID(j)
			ok, err := compatible(ctx, insp, in, fk, cfg, a, b)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"a": in.Attr(a).Key(),
					"b": in.Attr(b).Key(),
				}).Debug("pair rejected after inspector failure")
				continue
			}
			if ok {
				rel.pairs[key(a, b)] = true
			}
		}
	}

	log.WithField("pairs", rel.Pairs()).Info("compatibility analysis done")
	return rel, nil
}

func compatible(ctx context.Context, insp inspect.Inspector, in *core.Interner, fk map[pairKey]bool, cfg Config, a, b core.AttrID) (bool, error) {
	aa, ab := in.Attr(a), in.Attr(b)

	// Empty attributes join nothing.
	if aa.Distinct == 0 || ab.Distinct == 0 {
		return false, nil
	}
	if aa.Class != ab.Class {
		return false, nil
	}
	if fk[key(a, b)] {
		return true, nil
	}

	ratio, err := insp.OverlapRatio(ctx, aa, ab)
	if err != nil {
		return false, err
	}
	if ratio < cfg.OverlapThreshold {
		return false, nil
	}
	shared := ratio * float64(min(aa.Distinct, ab.Distinct))
	return shared >= float64(cfg.OverlapFloor), nil
}

func foreignKeyPairs(in *core.Interner, db *core.Database) map[pairKey]bool {
	out := make(map[pairKey]bool)
	for _, t := range db.Tables {
		for _, f := range t.ForeignKeys {
			a, ok1 := in.Lookup(t.Name, f.Column)
			b, ok2 := in.Lookup(f.ReferencedTable, f.ReferencedColumn)
			if ok1 && ok2 {
				out[key(a, b)] = true
			}
		}
	}
	return out
}

// MarshalJSON renders the relation as {attribute_key: [compatible keys]},
// the shape the compatibility side file uses.
func (r *Relation) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string)
	for p := range r.pairs {
		ka := r.interner.Attr(p.lo).Key()
		kb := r.interner.Attr(p.hi).Key()
		out[ka] = append(out[ka], kb)
		out[kb] = append(out[kb], ka)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return json.Marshal(out)
}

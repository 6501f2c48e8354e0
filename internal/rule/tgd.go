package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/Fran-cois/MATILDA/internal/core"
)

// Metrics carries the data-dependent scores of an emitted rule.
type Metrics struct {
	Support    float64
	Confidence float64
	// Accuracy is a structural validity gate: 1 when the rule type-checks
	// against the schema, 0 otherwise.
	Accuracy float64
}

// TGD is one emitted tuple-generating dependency with its metric
// annotations, in the shape the JSON output uses.
type TGD struct {
	Type       string   `json:"type"`
	Body       []string `json:"body"`
	Head       []string `json:"head"`
	Display    string   `json:"display"`
	Accuracy   float64  `json:"accuracy"`
	Confidence float64  `json:"confidence"`
	Support    float64  `json:"support"`
	// Hash is the stable deduplication key over the canonical JIA set and
	// split point. It is not part of the serialized record.
	Hash uint64 `json:"-"`
}

// Materialize converts an accepted (candidate, split) pair into its TGD
// record. Variable naming is positional: table occurrences get X ids in
// first-appearance order, JIAs get Y ids by sequence position.
func Materialize(c *Candidate, split int, in *core.Interner, m Metrics) (*TGD, error) {
	occIdx := make(map[core.TableOcc]int)
	for i, o := range c.TableOccurrences(in) {
		occIdx[o] = i
	}

	var body, head []string
	for vi, j := range c.JIAs {
		for _, mem := range j.Members() {
			a := in.Attr(mem.Attr())
			to := core.TableOcc{Table: a.Table, Occurrence: mem.Occurrence()}
			p := fmt.Sprintf("Predicate(variable1='X%d', relation='%s', variable2='Y%d')",
				occIdx[to], a.Key(), vi)
			if vi < split {
				body = append(body, p)
			} else {
				head = append(head, p)
			}
		}
	}

	hash, err := Fingerprint(c, split)
	if err != nil {
		return nil, err
	}

	return &TGD{
		Type:       "TGDRule",
		Body:       body,
		Head:       head,
		Display:    display(c, split, in, occIdx),
		Accuracy:   m.Accuracy,
		Confidence: m.Confidence,
		Support:    m.Support,
		Hash:       hash,
	}, nil
}

// Fingerprint computes the stable deduplication hash of a (rule, split)
// pair: the canonicalized (sorted) JIA key set plus the split point.
// Materializing the same pair twice yields identical hashes.
func Fingerprint(c *Candidate, split int) (uint64, error) {
	keys := make([]string, len(c.JIAs))
	for i, j := range c.JIAs {
		keys[i] = j.Key()
	}
	sort.Strings(keys)
	return hashstructure.Hash(struct {
		Keys  []string
		Split int
	}{Keys: keys, Split: split}, hashstructure.FormatV2, nil)
}

// display renders the rule "head :- body" with one atom per table
// occurrence on each side, listing only that side's column bindings.
func display(c *Candidate, split int, in *core.Interner, occIdx map[core.TableOcc]int) string {
	render := func(from, to int) string {
		type atomKey struct {
			occ   core.TableOcc
			index int
		}
		bindings := make(map[atomKey][]string)
		var order []atomKey
		for vi := from; vi < to; vi++ {
			for _, mem := range c.JIAs[vi].Members() {
				a := in.Attr(mem.Attr())
				k := atomKey{
					occ:   core.TableOcc{Table: a.Table, Occurrence: mem.Occurrence()},
					index: occIdx[core.TableOcc{Table: a.Table, Occurrence: mem.Occurrence()}],
				}
				if _, ok := bindings[k]; !ok {
					order = append(order, k)
				}
				bindings[k] = append(bindings[k], fmt.Sprintf("%s=Y%d", a.Column, vi))
			}
		}
		sort.Slice(order, func(i, j int) bool { return order[i].index < order[j].index })
		parts := make([]string, len(order))
		for i, k := range order {
			parts[i] = fmt.Sprintf("%s_%d(%s)", k.occ.Table, k.occ.Occurrence,
				strings.Join(bindings[k], ", "))
		}
		return strings.Join(parts, ", ")
	}
	return render(split, c.Len()) + " :- " + render(0, split)
}

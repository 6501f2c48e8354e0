package inspect

import (
	"fmt"
	"strings"

	"github.com/Fran-cois/MATILDA/internal/core"
)

// Quoter renders an identifier in a backend's quoting style.
type Quoter func(ident string) string

// BacktickQuoter quotes identifiers MySQL-style.
func BacktickQuoter(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// DoubleQuoter quotes identifiers per the SQL standard (SQLite, Postgres).
func DoubleQuoter(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// MatchCountSQL renders the counting query for one atom list of a rule
// query: the number of distinct body-variable bindings the pattern admits.
//
//	SELECT COUNT(*) FROM (
//	  SELECT DISTINCT a0.`x` AS v0, ...
//	  FROM `t` AS a0, `u` AS a1
//	  WHERE a0.`x` = a1.`y` AND ...
//	) AS m
//
// Head-only variables stay unprojected, which gives them the existential
// reading a TGD head requires.
func MatchCountSQL(atoms []core.QueryAtom, varRefs []core.ColRef, quote Quoter) string {
	var sel strings.Builder
	for i, ref := range varRefs {
		if i > 0 {
			sel.WriteString(", ")
		}
		fmt.Fprintf(&sel, "a%d.%s AS v%d", ref.Atom, quote(ref.Column), i)
	}

	var from strings.Builder
	for i, a := range atoms {
		if i > 0 {
			from.WriteString(", ")
		}
		fmt.Fprintf(&from, "%s AS a%d", quote(a.Table), i)
	}

	var where strings.Builder
	for i, p := range core.EqualityPairs(atoms) {
		if i > 0 {
			where.WriteString(" AND ")
		}
		fmt.Fprintf(&where, "a%d.%s = a%d.%s",
			p[0].Atom, quote(p[0].Column), p[1].Atom, quote(p[1].Column))
	}

	q := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT DISTINCT %s FROM %s", sel.String(), from.String())
	if where.Len() > 0 {
		q += " WHERE " + where.String()
	}
	return q + ") AS m"
}

// OverlapSQL renders the shared-value count between two attributes.
func OverlapSQL(a, b core.Attribute, quote Quoter) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT DISTINCT x.%s AS v FROM %s AS x INNER JOIN %s AS y ON x.%s = y.%s) AS o",
		quote(a.Column), quote(a.Table), quote(b.Table), quote(a.Column), quote(b.Column))
}

// DistinctSQL renders the distinct-value count of one attribute.
func DistinctSQL(table, column string, quote Quoter) string {
	return fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", quote(column), quote(table))
}

// RowCountSQL renders the tuple count of one table.
func RowCountSQL(table string, quote Quoter) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", quote(table))
}

// Package sqlscan pulls candidate entity names out of editor SQL text.
//
// It is a regex heuristic, not a parser: CTE names will be
// misclassified as tables and quoted identifiers embedding keywords
// will confuse it. That trade-off is deliberate; the result only seeds
// entity resolution, which tolerates misses.
package sqlscan

import (
	"regexp"
	"sort"
	"strings"
)

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// fromJoin captures the identifier after FROM/JOIN with up to two
	// dotted qualifiers (db.schema.table).
	fromJoin = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w$]*(?:\.[A-Za-z_][\w$]*){0,2})`)

	// nameEquals captures the literal in "NAME" = 'x' predicates, the
	// shape the entity tables are filtered by.
	nameEquals = regexp.MustCompile(`(?i)"NAME"\s*=\s*'([^']+)'`)
)

// keywordBlacklist holds identifiers that follow FROM/JOIN in valid SQL
// without naming a table. Explicit list, per-token.
var keywordBlacklist = map[string]struct{}{
	"SELECT":   {},
	"WHERE":    {},
	"ON":       {},
	"USING":    {},
	"LATERAL":  {},
	"UNNEST":   {},
	"VALUES":   {},
	"DUAL":     {},
	"TABLE":    {},
	"GENERATE": {},
}

// Extract returns the uppercased candidate entity names referenced by
// sql, sorted and deduplicated.
func Extract(sql string) []string {
	stripped := blockComment.ReplaceAllString(sql, " ")
	stripped = lineComment.ReplaceAllString(stripped, " ")

	seen := make(map[string]struct{})

	for _, m := range fromJoin.FindAllStringSubmatch(stripped, -1) {
		ident := m[1]
		// Keep only the final segment of db.schema.table.
		if idx := strings.LastIndex(ident, "."); idx >= 0 {
			ident = ident[idx+1:]
		}
		upper := strings.ToUpper(ident)
		if _, blocked := keywordBlacklist[upper]; blocked {
			continue
		}
		seen[upper] = struct{}{}
	}

	for _, m := range nameEquals.FindAllStringSubmatch(stripped, -1) {
		seen[strings.ToUpper(m[1])] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

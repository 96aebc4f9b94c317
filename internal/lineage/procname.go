// Package lineage builds column-banded lineage graphs from MDLH
// process records.
//
// A graph has three column bands: upstream sources (0), the focal
// entity (1), and downstream targets (2). Edges only ever connect
// adjacent bands. The package also decodes the free-text summary names
// process records carry ("A and 2 more → B") and can promote arbitrary
// lineage-shaped query results straight to a graph.
package lineage

import (
	"regexp"
	"strings"
)

// arrowTokens are the glyph variants accepted as the source→target
// separator in process names. Kept as an explicit list so the accepted
// formats are auditable.
var arrowTokens = []string{"→", "->"}

// andNMore matches the "<text> and <N> more" suffix on either side of
// the arrow.
var andNMore = regexp.MustCompile(`^(.*?)\s+and\s+(\d+)\s+more$`)

// ParsedProcessName is the structured reading of a process summary
// name. Derived on demand, never stored.
type ParsedProcessName struct {
	// PrimarySource is the last '/'-segment of the source text, the
	// label used for the graph node.
	PrimarySource string `json:"primary_source"`
	PrimaryTarget string `json:"primary_target"`

	// SourceCount is how many sources the name claims (1 + N from the
	// "and N more" suffix), 0 when the side is absent.
	SourceCount int `json:"source_count"`
	TargetCount int `json:"target_count"`

	// FullSourceText and FullTargetText keep the undecoded side text
	// for detail display.
	FullSourceText string `json:"full_source_text"`
	FullTargetText string `json:"full_target_text"`

	Raw string `json:"raw"`
}

// ParseProcessName decodes a process summary name. The format is
// heuristic: an arrow separates sources from targets, each side may
// carry an "and N more" suffix, and labels are '/'-delimited paths.
// Unrecognized formats degrade to a single-source reading; the function
// never fails.
func ParseProcessName(raw string) ParsedProcessName {
	parsed := ParsedProcessName{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return parsed
	}

	var sourceText, targetText string
	var hasTarget bool
	for _, arrow := range arrowTokens {
		if idx := strings.Index(trimmed, arrow); idx >= 0 {
			sourceText = strings.TrimSpace(trimmed[:idx])
			targetText = strings.TrimSpace(trimmed[idx+len(arrow):])
			hasTarget = true
			break
		}
	}
	if !hasTarget {
		// No arrow: the whole string is a single source.
		sourceText = trimmed
	}

	parsed.FullSourceText = sourceText
	parsed.PrimarySource, parsed.SourceCount = parseSide(sourceText)

	if hasTarget {
		parsed.FullTargetText = targetText
		parsed.PrimaryTarget, parsed.TargetCount = parseSide(targetText)
	}
	return parsed
}

// parseSide decodes one side of the arrow: strip the "and N more"
// suffix, then take the last path segment as the label.
func parseSide(text string) (label string, count int) {
	if text == "" {
		return "", 0
	}

	count = 1
	if m := andNMore.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
		count += atoi(m[2])
	}

	if idx := strings.LastIndex(text, "/"); idx >= 0 {
		text = text[idx+1:]
	}
	label = strings.TrimSpace(text)
	if label == "" {
		count = 0
	}
	return label, count
}

// atoi parses digits the regexp already validated.
func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

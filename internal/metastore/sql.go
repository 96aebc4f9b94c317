package metastore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// QuoteIdent returns name safe for interpolation into a SQL statement
// as an identifier. Plain identifiers pass through; anything else is
// double-quoted with embedded quotes doubled.
func QuoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	if strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) && len(name) >= 2 {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral returns s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QualifiedTable builds a dotted table reference, skipping empty parts.
func QualifiedTable(database, schema, table string) string {
	parts := make([]string, 0, 3)
	if database != "" {
		parts = append(parts, QuoteIdent(database))
	}
	if schema != "" {
		parts = append(parts, QuoteIdent(schema))
	}
	parts = append(parts, QuoteIdent(table))
	return strings.Join(parts, ".")
}

// resolveSQL builds the per-collection entity probe. The match is
// case-insensitive on NAME and exact on GUID.
func resolveSQL(database, schema, collection, nameOrID string) string {
	lit := QuoteLiteral(nameOrID)
	return fmt.Sprintf(
		`SELECT "GUID", "NAME", "QUALIFIEDNAME", "TYPENAME" FROM %s WHERE UPPER("NAME") = UPPER(%s) OR "GUID" = %s LIMIT 1`,
		QualifiedTable(database, schema, collection), lit, lit)
}

// processSQL builds the process fetch for one direction. Upstream means
// the entity appears in OUTPUTS, downstream in INPUTS.
func processSQL(database, schema string, direction Direction, entityID string, limit int) string {
	arrayCol := `"OUTPUTS"`
	if direction == Downstream {
		arrayCol = `"INPUTS"`
	}
	return fmt.Sprintf(
		`SELECT "GUID", "NAME", "TYPENAME", "INPUTS", "OUTPUTS", "POPULARITYSCORE" FROM %s WHERE ARRAY_CONTAINS(%s, %s) ORDER BY "POPULARITYSCORE" DESC NULLS LAST LIMIT %d`,
		QualifiedTable(database, schema, "PROCESS_ENTITY"), arrayCol, QuoteLiteral(entityID), limit)
}

// DecodeIDList normalizes an INPUTS/OUTPUTS cell into a GUID slice.
// Drivers hand the column back as a native list, a JSON array string,
// or NULL depending on the engine.
func DecodeIDList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "[") {
			var parsed []string
			if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
				return nil
			}
			return parsed
		}
		if trimmed == "" {
			return nil
		}
		// Fall back to a comma-separated list.
		parts := strings.Split(trimmed, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// decodeScore normalizes a POPULARITYSCORE cell. NULL and unparseable
// values come back as nil.
func decodeScore(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case string:
		var f float64
		if _, err := fmt.Sscanf(val, "%g", &f); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// asString converts a scanned cell to its string form, empty for NULL.
func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// columnIndex finds a column by case-insensitive name, -1 if absent.
func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

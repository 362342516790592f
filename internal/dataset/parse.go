package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// parseIntOr parses a string as an integer, returning def if parsing fails or the string is empty.
// Integral floats such as "882.0" (pandas writes nullable int columns this way) are accepted.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return def
	}
	return int(f)
}

// parseOptionalInt parses a nullable integer column. Empty and NaN cells are nil.
func parseOptionalInt(s string) *int {
	const missing = math.MinInt
	v := parseIntOr(s, missing)
	if v == missing {
		return nil
	}
	return &v
}

// parseFloat64Or parses a string as a float64, returning def if parsing fails or the value is not finite.
func parseFloat64Or(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// parseFloat64 parses a required numeric cell.
func parseFloat64(s string) (float64, bool) {
	v := parseFloat64Or(s, math.NaN())
	return v, !math.IsNaN(v)
}

// normalizeCol strips parentheses, folds underscores to spaces and lowercases
// so "Item_Code", "Item Code" and "item code" all match.
// "Item Code (CPC)" → "item code cpc"
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// columns maps normalized header names to their index.
type columns map[string]int

// mapColumnsNormalized builds a normalized column name → index map.
// The first occurrence of a duplicated name wins.
func mapColumnsNormalized(header []string) columns {
	m := make(columns, len(header))
	for i, col := range header {
		key := normalizeCol(col)
		if _, ok := m[key]; !ok {
			m[key] = i
		}
	}
	return m
}

// has reports whether any of the names is present.
func (c columns) has(names ...string) bool {
	_, ok := c.index(names...)
	return ok
}

func (c columns) index(names ...string) (int, bool) {
	for _, n := range names {
		if idx, ok := c[normalizeCol(n)]; ok {
			return idx, true
		}
	}
	return 0, false
}

// get returns the value of the first present column, or "".
func (c columns) get(record []string, names ...string) string {
	idx, ok := c.index(names...)
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// require fails when a required column (or all of its aliases) is absent.
func (c columns) require(table string, names ...[]string) error {
	var missing []string
	for _, aliases := range names {
		if !c.has(aliases...) {
			missing = append(missing, aliases[0])
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("dataset: %s: missing columns %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// col is shorthand for a column alias list.
func col(aliases ...string) []string {
	return aliases
}

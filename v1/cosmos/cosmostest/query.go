package cosmostest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

var (
	selectPattern = regexp.MustCompile(`(?is)^\s*SELECT\s+(\*|VALUE\s+COUNT\(\s*1\s*\))\s+FROM\s+c(?:\s+WHERE\s+(.+?))?\s*;?\s*$`)
	andPattern    = regexp.MustCompile(`(?i)\s+AND\s+`)
	condPattern   = regexp.MustCompile(`^\s*c\.([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*=\s*(.+?)\s*$`)
)

type condition struct {
	path  []string
	value cosmos.Value
}

type query struct {
	count      bool
	conditions []condition
}

// parseQuery understands SELECT * and SELECT VALUE COUNT(1) over the alias c
// with an optional conjunction of equality filters.
func parseQuery(sql string, params []cosmos.QueryParameter) (query, error) {
	m := selectPattern.FindStringSubmatch(sql)
	if m == nil {
		return query{}, fmt.Errorf("syntax error, unsupported query %q", sql)
	}
	q := query{count: m[1] != "*"}
	if strings.TrimSpace(m[2]) == "" {
		return q, nil
	}

	for _, part := range andPattern.Split(m[2], -1) {
		cm := condPattern.FindStringSubmatch(part)
		if cm == nil {
			return query{}, fmt.Errorf("syntax error near %q", part)
		}
		v, err := parseLiteral(cm[2], params)
		if err != nil {
			return query{}, err
		}
		q.conditions = append(q.conditions, condition{path: strings.Split(cm[1], "."), value: v})
	}
	return q, nil
}

func parseLiteral(lit string, params []cosmos.QueryParameter) (cosmos.Value, error) {
	switch {
	case strings.HasPrefix(lit, "@"):
		for _, p := range params {
			if p.Name == lit {
				return cosmos.ValueOf(p.Value)
			}
		}
		return cosmos.Value{}, fmt.Errorf("parameter %s is not bound", lit)
	case len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'':
		return cosmos.String(lit[1 : len(lit)-1]), nil
	default:
		var v cosmos.Value
		if err := v.UnmarshalJSON([]byte(lit)); err != nil {
			return cosmos.Value{}, fmt.Errorf("invalid literal %s", lit)
		}
		return v, nil
	}
}

func (q query) matches(doc *cosmos.Document) bool {
	for _, cond := range q.conditions {
		v, ok := lookup(doc, cond.path)
		if !ok || !v.Equal(cond.value) {
			return false
		}
	}
	return true
}

func lookup(doc *cosmos.Document, path []string) (cosmos.Value, bool) {
	cur := doc
	for i, p := range path {
		v, ok := cur.Get(p)
		if !ok {
			return cosmos.Value{}, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if cur, ok = v.AsObject(); !ok {
			return cosmos.Value{}, false
		}
	}
	return cosmos.Value{}, false
}

package store

import (
	"fmt"
	"strings"
)

// CheckReadOnly rejects anything but a single query statement. Ad-hoc SQL
// from the CLI and the tool server goes through it.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return fmt.Errorf("empty query")
	}
	if strings.Contains(q, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	first := strings.ToUpper(strings.Fields(q)[0])
	switch first {
	case "SELECT", "WITH", "EXPLAIN":
		return nil
	}
	return fmt.Errorf("only read queries are allowed, got %s", first)
}

// PositionalArgs orders params keyed "1", "2", ... into query arguments.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		if val, ok := params[fmt.Sprint(i)]; ok {
			args = append(args, val)
		}
	}
	return args
}

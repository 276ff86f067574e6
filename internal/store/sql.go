package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNotReadOnly = errors.New("only read-only queries are allowed")

// CheckReadOnly rejects anything but a single SELECT, WITH or EXPLAIN
// statement. RunSQL is exposed to agents, so writes go through snapshots.
func CheckReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if trimmed == "" {
		return fmt.Errorf("%w: empty query", ErrNotReadOnly)
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	first := strings.ToUpper(strings.Fields(trimmed)[0])
	switch first {
	case "SELECT", "WITH", "EXPLAIN":
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotReadOnly, first)
}

// PositionalArgs orders params keyed "1", "2", ... into an argument list.
// Numbering stops at the first missing key.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; ; i++ {
		val, ok := params[strconv.Itoa(i)]
		if !ok {
			return args
		}
		args = append(args, val)
	}
}

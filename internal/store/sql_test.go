package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReadOnly(t *testing.T) {
	for _, q := range []string{
		"SELECT name FROM entities",
		"  with x AS (SELECT 1) SELECT * FROM x;",
		"explain SELECT 1",
	} {
		assert.NoError(t, CheckReadOnly(q), q)
	}
	for _, q := range []string{
		"",
		"DELETE FROM entities",
		"SELECT 1; DROP TABLE snapshots",
		"PRAGMA foreign_keys = OFF",
	} {
		assert.ErrorIs(t, CheckReadOnly(q), ErrNotReadOnly, q)
	}
}

func TestPositionalArgs(t *testing.T) {
	assert.Equal(t, []any{"agent", 3}, PositionalArgs(map[string]any{"2": 3, "1": "agent"}))
	assert.Equal(t, []any{"a"}, PositionalArgs(map[string]any{"1": "a", "3": "c"}))
	assert.Empty(t, PositionalArgs(nil))
}

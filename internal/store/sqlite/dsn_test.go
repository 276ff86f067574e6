package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "sqlite://:memory:", expected: ":memory:"},
		{input: "sqlite:///var/lib/scribl/snapshots.db", expected: "/var/lib/scribl/snapshots.db"},
		{input: "sqlite://./db_snapshots/snapshots.db", expected: "./db_snapshots/snapshots.db"},
		{input: "sqlite://db_snapshots/snapshots.db", expected: "./db_snapshots/snapshots.db"},
		{input: "sqlite://my%20db/snapshots.db?_pragma=busy_timeout(5000)", expected: "./my db/snapshots.db?_pragma=busy_timeout(5000)"},
		{input: "db_snapshots/snapshots.db", expected: "./db_snapshots/snapshots.db"},
		{input: "postgres://localhost/scribl", wantErr: true},
		{input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

package store

import (
	"testing"
	"time"
)

func TestSplitTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTime bool
		wantRaw  string
	}{
		{name: "rfc3339", input: "2025-01-15T09:30:00Z", wantTime: true},
		{name: "date only", input: "2025-01-15", wantTime: true},
		{name: "no zone", input: "2025-01-15T09:30:00", wantTime: true},
		{name: "microseconds no zone", input: "2024-11-29T00:00:00.000000", wantTime: true},
		{name: "degraded value kept raw", input: "sometime next week", wantRaw: "sometime next week"},
		{name: "empty is double null", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, raw := splitTimestamp(tt.input)
			if ts.Valid != tt.wantTime {
				t.Errorf("timestamp valid = %v, want %v", ts.Valid, tt.wantTime)
			}
			if raw.Valid != (tt.wantRaw != "") {
				t.Errorf("raw valid = %v, want %v", raw.Valid, tt.wantRaw != "")
			}
			if raw.String != tt.wantRaw {
				t.Errorf("raw = %q, want %q", raw.String, tt.wantRaw)
			}
			if ts.Valid && raw.Valid {
				t.Error("a value must not be both parsed and raw")
			}
		})
	}
}

func TestSplitTimestampDay(t *testing.T) {
	ts, _ := splitTimestamp("2025-01-15")
	if got := ts.Time.Format(time.DateOnly); got != "2025-01-15" {
		t.Errorf("parsed day = %s", got)
	}
}

func TestNullText(t *testing.T) {
	if v := nullText(""); v.Valid {
		t.Error("empty string should map to NULL")
	}
	v := nullText("Acme")
	if !v.Valid || v.String != "Acme" {
		t.Errorf("nullText(Acme) = %+v", v)
	}
}

package service

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	if m.Year != 2025 || m.Month != time.March {
		t.Errorf("got %v, want 2025 March", m)
	}
	if m.String() != "2025-03" {
		t.Errorf("String: got %q, want %q", m.String(), "2025-03")
	}
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025", "2025-13", "03-2025", "2025-3", "garbage"} {
		if _, err := ParseMonth(s); err == nil {
			t.Errorf("ParseMonth(%q): expected error", s)
		}
	}
}

func TestNumDays(t *testing.T) {
	tests := []struct {
		month string
		want  int
	}{
		{"2024-02", 29}, // leap year
		{"2025-02", 28},
		{"2025-01", 31},
		{"2025-04", 30},
		{"2025-12", 31},
	}
	for _, tt := range tests {
		m, err := ParseMonth(tt.month)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.month, err)
		}
		if got := m.NumDays(); got != tt.want {
			t.Errorf("%s: NumDays got %d, want %d", tt.month, got, tt.want)
		}
	}
}

func TestDays_ChronologicalAndComplete(t *testing.T) {
	m := Month{Year: 2025, Month: time.February}
	days := m.Days()
	if len(days) != 28 {
		t.Fatalf("got %d days, want 28", len(days))
	}
	if days[0].Day() != 1 || days[len(days)-1].Day() != 28 {
		t.Errorf("bounds: first %v, last %v", days[0], days[len(days)-1])
	}
	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			t.Errorf("days not in chronological order at index %d", i)
		}
	}
}

func TestWorkingDays_ExcludeSundays(t *testing.T) {
	// September 2025: 30 days, Sundays on the 7th, 14th, 21st, 28th.
	m := Month{Year: 2025, Month: time.September}
	days := WorkingDays(m, ExcludeSundays)
	if len(days) != 26 {
		t.Fatalf("got %d working days, want 26", len(days))
	}
	for _, d := range days {
		if d.Weekday() == time.Sunday {
			t.Errorf("Sunday %v not excluded", d)
		}
	}
}

func TestWorkingDays_CustomPolicy(t *testing.T) {
	m := Month{Year: 2025, Month: time.June}

	everyDay := func(time.Time) bool { return true }
	if got := len(WorkingDays(m, everyDay)); got != 30 {
		t.Errorf("every-day policy: got %d, want 30", got)
	}

	noDay := func(time.Time) bool { return false }
	if got := len(WorkingDays(m, noDay)); got != 0 {
		t.Errorf("no-day policy: got %d, want 0", got)
	}
}

func TestDistributeEvenly(t *testing.T) {
	tests := []struct {
		name string
		q    int32
		n    int
	}{
		{"exact division", 100, 25},
		{"with remainder", 500, 26},
		{"quota below slots", 5, 26},
		{"zero quota", 0, 26},
		{"single slot", 17, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := distributeEvenly(tt.q, tt.n)
			if len(shares) != tt.n {
				t.Fatalf("got %d shares, want %d", len(shares), tt.n)
			}
			var sum int32
			for i, s := range shares {
				sum += s
				if i > 0 && s > shares[i-1] {
					t.Errorf("share %d (%d) exceeds share %d (%d): extras must be front-loaded", i, s, i-1, shares[i-1])
				}
			}
			if sum != tt.q {
				t.Errorf("shares sum to %d, want exactly %d", sum, tt.q)
			}
		})
	}
}

func TestDistributeEvenly_FrontLoadedShape(t *testing.T) {
	// 500 over 26 slots: base 19, remainder 6, so the first 6 slots get 20.
	shares := distributeEvenly(500, 26)
	for i := 0; i < 6; i++ {
		if shares[i] != 20 {
			t.Errorf("share %d: got %d, want 20", i, shares[i])
		}
	}
	for i := 6; i < 26; i++ {
		if shares[i] != 19 {
			t.Errorf("share %d: got %d, want 19", i, shares[i])
		}
	}
}

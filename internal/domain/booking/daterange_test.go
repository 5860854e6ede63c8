package booking

import (
	"encoding/json"
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	s, err := ParseDate(start)
	if err != nil {
		t.Fatalf("parse %q: %v", start, err)
	}
	e, err := ParseDate(end)
	if err != nil {
		t.Fatalf("parse %q: %v", end, err)
	}
	return DateRange{Start: s, End: e}
}

func TestDateRange_Overlaps(t *testing.T) {
	existing := mustRange(t, "2024-01-01", "2024-01-04")

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"starts_inside", mustRange(t, "2024-01-03", "2024-01-05"), true},
		{"ends_inside", mustRange(t, "2023-12-30", "2024-01-02"), true},
		{"contains_existing", mustRange(t, "2023-12-31", "2024-01-10"), true},
		{"contained_by_existing", mustRange(t, "2024-01-02", "2024-01-03"), true},
		{"identical", mustRange(t, "2024-01-01", "2024-01-04"), true},
		{"adjacent_after", mustRange(t, "2024-01-04", "2024-01-06"), false},
		{"adjacent_before", mustRange(t, "2023-12-29", "2024-01-01"), false},
		{"disjoint", mustRange(t, "2024-02-01", "2024-02-03"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := existing.Overlaps(tt.other); got != tt.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", existing, tt.other, got, tt.want)
			}
			// symmetric
			if got := tt.other.Overlaps(existing); got != tt.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tt.other, existing, got, tt.want)
			}
		})
	}
}

func TestDateRange_DaysAndPrice(t *testing.T) {
	r := mustRange(t, "2024-01-01", "2024-01-04")

	if r.Days() != 3 {
		t.Fatalf("expected 3 days, got %d", r.Days())
	}
	if got := TotalPrice(50, r); got != 150 {
		t.Fatalf("expected total 150, got %v", got)
	}
	if got := TotalPrice(19.99, r); got != 59.97 {
		t.Fatalf("expected total 59.97, got %v", got)
	}

	// crosses a DST boundary in most zones, still whole days in UTC
	dst := mustRange(t, "2024-03-09", "2024-03-12")
	if dst.Days() != 3 {
		t.Fatalf("expected 3 days across DST, got %d", dst.Days())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "2024-13-01", "01/02/2024", "2024-01-01T00:00:00Z"} {
		if _, err := ParseDate(raw); err != ErrInvalidDate {
			t.Fatalf("ParseDate(%q) err = %v, want ErrInvalidDate", raw, err)
		}
	}
}

func TestDay_UsesLocation(t *testing.T) {
	// 23:30 UTC on Jan 1 is already Jan 2 in Athens
	ts := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	athens := time.FixedZone("EET", 2*60*60)

	if got := Day(ts, time.UTC); got.Format(DateLayout) != "2024-01-01" {
		t.Fatalf("utc day = %s", got.Format(DateLayout))
	}
	if got := Day(ts, athens); got.Format(DateLayout) != "2024-01-02" {
		t.Fatalf("athens day = %s", got.Format(DateLayout))
	}
}

func TestDate_JSON(t *testing.T) {
	b := Booking{ID: 7, StartDate: NewDate(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC))}

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["start_date"] != "2024-01-01" {
		t.Fatalf("start_date = %v, want 2024-01-01", out["start_date"])
	}
	if out["end_date"] != nil {
		t.Fatalf("zero end_date should be null, got %v", out["end_date"])
	}
}

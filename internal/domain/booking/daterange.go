package booking

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// DateRange is a half-open span of whole days [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Day truncates t to its calendar day in loc and returns it as midnight UTC, so
// it compares directly with values from ParseDate.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r DateRange) Valid() bool {
	return r.Start.Before(r.End)
}

// Overlaps is the half-open intersection test: ranges that only touch at a
// boundary day do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Days is the exact whole-day span between start and end.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// TotalPrice is pricePerDay times the day count, rounded to cents.
func TotalPrice(pricePerDay float64, r DateRange) float64 {
	return math.Round(pricePerDay*float64(r.Days())*100) / 100
}

// Date is a calendar day that travels as YYYY-MM-DD in JSON and maps onto a
// Postgres DATE column.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	*d = NewDate(v.Time)
	return nil
}

func (d Date) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.Time, Valid: !d.IsZero()}, nil
}

// Scan keeps scanners that go through database/sql (and scany's struct
// mapping) treating Date as a single column.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		t, err := ParseDate(v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	default:
		return fmt.Errorf("booking: cannot scan %T into Date", src)
	}
}

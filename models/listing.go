package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RawAd holds the unprocessed field map scraped from a single ad page.
// Keys are the page's data-testid values plus the synthetic ID and URL.
type RawAd struct {
	ID        string
	URL       string
	Fields    map[string]string
	ScrapedAt time.Time
}

// Kind discriminates the type held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindTime
)

// Value is a tagged optional table cell. A column may hold text in one row
// and an integer in another (fields are only coerced when a rule matches
// their key), so every cell carries its own type instead of the table
// declaring one per column.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Flag bool
	Tim  time.Time
}

func Missing() Value         { return Value{Kind: KindMissing} }
func Text(s string) Value    { return Value{Kind: KindText, Str: s} }
func Int(n int64) Value      { return Value{Kind: KindInt, Num: float64(n)} }
func Float(f float64) Value  { return Value{Kind: KindFloat, Num: f} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Flag: b} }
func Time(t time.Time) Value { return Value{Kind: KindTime, Tim: t} }

// IsMissing reports whether the cell has no value.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Int64 returns the integer value and whether the cell holds one.
func (v Value) Int64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return int64(v.Num), true
}

// Float64 returns a numeric view of the cell (int or float).
func (v Value) Float64() (float64, bool) {
	if v.Kind != KindInt && v.Kind != KindFloat {
		return 0, false
	}
	return v.Num, true
}

// TextValue returns the text content; empty for non-text kinds.
func (v Value) TextValue() string {
	if v.Kind != KindText {
		return ""
	}
	return v.Str
}

// String renders the cell for CSV output and logs. Missing renders empty.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindInt:
		return strconv.FormatInt(int64(v.Num), 10)
	case KindFloat:
		return strconv.FormatFloat(v.Num, 'f', 2, 64)
	case KindBool:
		return strconv.FormatBool(v.Flag)
	case KindTime:
		return v.Tim.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON emits the native JSON type per kind; missing becomes null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Str)
	case KindInt:
		return json.Marshal(int64(v.Num))
	case KindFloat:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Flag)
	case KindTime:
		return json.Marshal(v.Tim)
	case KindMissing:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.Kind)
	}
}

// Row maps column name to cell. An absent key and an explicit missing cell
// are equivalent for readers going through Get.
type Row map[string]Value

// Get returns the cell for col, or a missing value when the row lacks it.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Missing()
}

// Table is the assembled listing set: one row per retained finnkode, in
// discovery order, with Columns the union of keys across rows in
// first-seen order.
type Table struct {
	Columns []string
	Rows    []Row
}

// AddColumn appends col to the column list if not already present.
func (t *Table) AddColumn(col string) {
	for _, c := range t.Columns {
		if c == col {
			return
		}
	}
	t.Columns = append(t.Columns, col)
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Rows) }

// SummaryReport holds the aggregates printed after a pipeline run.
type SummaryReport struct {
	TotalListings  int
	SoldCount      int
	GeocodedCount  int
	MinTotalPrice  int64
	MaxTotalPrice  int64
	AvgTotalPrice  float64
	AvgSqmPrice    float64
	CheapestPerSqm Row
	ByEnergyGrade  map[string]int
}

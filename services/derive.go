package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"finn-scraper/models"
	"finn-scraper/utils"
)

var (
	// viewingColRegexp matches the numbered viewing-slot columns.
	viewingColRegexp = regexp.MustCompile(`^viewings-(\d+)$`)
	// viewingTextRegexp splits "5. mars12:00" into day, month name, time.
	viewingTextRegexp = regexp.MustCompile(`(\d{1,2})\. (\w+)(\d{2}:\d{2})`)
)

// norwegianMonths translates the portal's month names.
var norwegianMonths = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"mars":      time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"desember":  time.December,
}

const soldMarker = "solgt"

// Deriver computes the derived columns of the listing table. Every
// derivation is per-row and per-field: a malformed source field leaves
// the derived cell missing and the row intact.
type Deriver struct {
	year   int
	logger *utils.Logger
}

// NewDeriver creates a Deriver. Viewing texts carry no year, so all
// parsed timestamps land in the given one.
func NewDeriver(year int, logger *utils.Logger) *Deriver {
	return &Deriver{year: year, logger: logger}
}

// Derive attaches the derived columns to every row. The transform is
// column-additive: no row is removed and no source column is touched.
func (d *Deriver) Derive(table *models.Table) *models.Table {
	viewingCols := viewingColumns(table.Columns)
	for i := range viewingCols {
		table.AddColumn(fmt.Sprintf("Visning %d", i))
	}
	table.AddColumn("sold")
	table.AddColumn("usable-area")
	table.AddColumn("balkong-area")
	table.AddColumn("square-meter-price")
	table.AddColumn("Energikarakter")
	table.AddColumn("Oppvarmingskarakter")

	for _, row := range table.Rows {
		for i, col := range viewingCols {
			row[fmt.Sprintf("Visning %d", i)] = d.parseViewing(row.Get(col))
		}

		title := row.Get(titleColumn).TextValue()
		row["sold"] = models.Bool(strings.Contains(strings.ToLower(title), soldMarker))

		row["usable-area"] = coalesce(row, "info-usable-area", "info-usable-i-area")
		row["balkong-area"] = coalesce(row, "info-open-area", "info-usable-b-area")

		row["square-meter-price"] = squareMeterPrice(
			row.Get("pricing-total-price"), row.Get("usable-area"))

		grade, heating := splitEnergyLabel(row.Get("energy-label-info"))
		row["Energikarakter"] = grade
		row["Oppvarmingskarakter"] = heating
	}

	d.logger.Info("[derive] Computed derived columns for %d rows (%d viewing slots)",
		len(table.Rows), len(viewingCols))
	return table
}

// viewingColumns returns the numbered viewing columns ordered by slot
// number, so "Visning 0" always maps to the lowest-numbered source slot.
func viewingColumns(columns []string) []string {
	type slot struct {
		col string
		n   int
	}
	var slots []slot
	for _, col := range columns {
		m := viewingColRegexp.FindStringSubmatch(col)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slots = append(slots, slot{col, n})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].n < slots[j].n })

	cols := make([]string, len(slots))
	for i, s := range slots {
		cols[i] = s.col
	}
	return cols
}

// parseViewing extracts a timestamp from text like
// "Søndag 5. mars12:00 - 13:00". Anything unparsable is missing.
func (d *Deriver) parseViewing(v models.Value) models.Value {
	text := v.TextValue()
	if text == "" {
		return models.Missing()
	}

	m := viewingTextRegexp.FindStringSubmatch(text)
	if m == nil {
		return models.Missing()
	}

	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return models.Missing()
	}
	month, ok := norwegianMonths[strings.ToLower(m[2])]
	if !ok {
		return models.Missing()
	}
	clock := strings.SplitN(m[3], ":", 2)
	hour, err1 := strconv.Atoi(clock[0])
	minute, err2 := strconv.Atoi(clock[1])
	if err1 != nil || err2 != nil {
		return models.Missing()
	}

	return models.Time(time.Date(d.year, month, day, hour, minute, 0, 0, time.Local))
}

// coalesce returns the first non-missing of the named columns.
func coalesce(row models.Row, cols ...string) models.Value {
	for _, col := range cols {
		if v := row.Get(col); !v.IsMissing() {
			return v
		}
	}
	return models.Missing()
}

// squareMeterPrice divides total price by usable area. Missing operands
// or a non-finite quotient (area coerced to zero) yield a missing value.
func squareMeterPrice(price, area models.Value) models.Value {
	p, ok := price.Float64()
	if !ok {
		return models.Missing()
	}
	a, ok := area.Float64()
	if !ok {
		return models.Missing()
	}

	q := p / a
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return models.Missing()
	}
	return models.Float(q)
}

// splitEnergyLabel splits the combined "C - Gul" label into the energy
// grade and the heating grade. A label without the separator keeps its
// text as the grade and leaves the heating grade missing.
func splitEnergyLabel(v models.Value) (models.Value, models.Value) {
	text := v.TextValue()
	if text == "" {
		return models.Missing(), models.Missing()
	}

	parts := strings.SplitN(text, " - ", 2)
	grade := models.Text(strings.TrimSpace(parts[0]))
	if len(parts) < 2 {
		return grade, models.Missing()
	}
	return grade, models.Text(strings.TrimSpace(parts[1]))
}

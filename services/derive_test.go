package services

import (
	"math"
	"testing"
	"time"

	"finn-scraper/models"
)

func derivedTable(rows ...models.Row) *models.Table {
	a := NewAssembler(newTestLogger())
	d := NewDeriver(2025, newTestLogger())
	return d.Derive(a.Assemble(rows))
}

func TestDeriveSoldFlag(t *testing.T) {
	table := derivedTable(
		models.Row{"ID": models.Text("1"), "object-title": models.Text("3-roms selveierleilighet")},
		models.Row{"ID": models.Text("2"), "object-title": models.Text("SOLGT: 2-roms andelsleilighet")},
	)

	if v := table.Rows[0].Get("sold"); v.Kind != models.KindBool || v.Flag {
		t.Errorf("row 0 sold: got %v, want false", v)
	}
	if v := table.Rows[1].Get("sold"); v.Kind != models.KindBool || !v.Flag {
		t.Errorf("row 1 sold: got %v, want true", v)
	}
}

func TestDeriveSquareMeterPrice(t *testing.T) {
	table := derivedTable(models.Row{
		"ID":                  models.Text("1"),
		"object-title":        models.Text("Leilighet"),
		"info-usable-area":    models.Int(85),
		"pricing-total-price": models.Int(6000000),
	})

	got, ok := table.Rows[0].Get("square-meter-price").Float64()
	if !ok {
		t.Fatal("square-meter-price should be set")
	}
	if math.Abs(got-70588.24) > 0.01 {
		t.Errorf("square-meter-price: got %.2f, want ≈70588.24", got)
	}
}

func TestDeriveSquareMeterPriceMissingOrZeroArea(t *testing.T) {
	table := derivedTable(
		models.Row{
			"ID":                  models.Text("1"),
			"object-title":        models.Text("Uten areal"),
			"pricing-total-price": models.Int(6000000),
		},
		models.Row{
			"ID":                  models.Text("2"),
			"object-title":        models.Text("Null areal"),
			"info-usable-area":    models.Int(0),
			"pricing-total-price": models.Int(6000000),
		},
		models.Row{
			"ID":               models.Text("3"),
			"object-title":     models.Text("Uten pris"),
			"info-usable-area": models.Int(85),
		},
	)

	for i, row := range table.Rows {
		if v := row.Get("square-meter-price"); !v.IsMissing() {
			t.Errorf("row %d square-meter-price: got %v, want missing", i, v)
		}
	}
}

func TestDeriveAreaCoalescing(t *testing.T) {
	table := derivedTable(
		models.Row{
			"ID":                 models.Text("1"),
			"object-title":       models.Text("A"),
			"info-usable-i-area": models.Int(72),
			"info-usable-b-area": models.Int(5),
		},
		models.Row{
			"ID":               models.Text("2"),
			"object-title":     models.Text("B"),
			"info-usable-area": models.Int(85),
			"info-open-area":   models.Int(8),
		},
	)

	if got, _ := table.Rows[0].Get("usable-area").Int64(); got != 72 {
		t.Errorf("row 0 usable-area: got %d, want fallback field 72", got)
	}
	if got, _ := table.Rows[0].Get("balkong-area").Int64(); got != 5 {
		t.Errorf("row 0 balkong-area: got %d, want 5", got)
	}
	if got, _ := table.Rows[1].Get("usable-area").Int64(); got != 85 {
		t.Errorf("row 1 usable-area: got %d, want primary field 85", got)
	}
	if got, _ := table.Rows[1].Get("balkong-area").Int64(); got != 8 {
		t.Errorf("row 1 balkong-area: got %d, want 8", got)
	}
}

func TestDeriveEnergyLabelSplit(t *testing.T) {
	table := derivedTable(
		models.Row{
			"ID":                models.Text("1"),
			"object-title":      models.Text("A"),
			"energy-label-info": models.Text("C - Gul"),
		},
		models.Row{
			"ID":                models.Text("2"),
			"object-title":      models.Text("B"),
			"energy-label-info": models.Text("D"),
		},
		models.Row{
			"ID":           models.Text("3"),
			"object-title": models.Text("C"),
		},
	)

	if got := table.Rows[0].Get("Energikarakter").TextValue(); got != "C" {
		t.Errorf("Energikarakter: got %q, want C", got)
	}
	if got := table.Rows[0].Get("Oppvarmingskarakter").TextValue(); got != "Gul" {
		t.Errorf("Oppvarmingskarakter: got %q, want Gul", got)
	}

	// No separator: the grade keeps the text, heating grade stays missing.
	if got := table.Rows[1].Get("Energikarakter").TextValue(); got != "D" {
		t.Errorf("Energikarakter without separator: got %q, want D", got)
	}
	if !table.Rows[1].Get("Oppvarmingskarakter").IsMissing() {
		t.Error("Oppvarmingskarakter without separator should be missing")
	}

	// No label at all: both missing.
	if !table.Rows[2].Get("Energikarakter").IsMissing() {
		t.Error("Energikarakter without label should be missing")
	}
	if !table.Rows[2].Get("Oppvarmingskarakter").IsMissing() {
		t.Error("Oppvarmingskarakter without label should be missing")
	}
}

func TestDeriveViewingTimestamps(t *testing.T) {
	table := derivedTable(
		models.Row{
			"ID":           models.Text("1"),
			"object-title": models.Text("A"),
			"viewings-0":   models.Text("Søndag 5. mars12:00 - 13:00"),
			"viewings-1":   models.Text("ingen visning"),
		},
	)

	v := table.Rows[0].Get("Visning 0")
	if v.Kind != models.KindTime {
		t.Fatalf("Visning 0: got %v, want timestamp", v)
	}
	want := time.Date(2025, time.March, 5, 12, 0, 0, 0, time.Local)
	if !v.Tim.Equal(want) {
		t.Errorf("Visning 0: got %v, want %v", v.Tim, want)
	}

	if !table.Rows[0].Get("Visning 1").IsMissing() {
		t.Error("unparsable viewing text should yield a missing timestamp")
	}
}

func TestDeriveViewingSlotOrdering(t *testing.T) {
	table := derivedTable(
		models.Row{
			"ID":           models.Text("1"),
			"object-title": models.Text("A"),
			"viewings-1":   models.Text("6. april13:00"),
			"viewings-0":   models.Text("5. mars12:00"),
		},
	)

	v0 := table.Rows[0].Get("Visning 0")
	if v0.Kind != models.KindTime || v0.Tim.Month() != time.March {
		t.Errorf("Visning 0 should map the lowest-numbered slot, got %v", v0)
	}
	v1 := table.Rows[0].Get("Visning 1")
	if v1.Kind != models.KindTime || v1.Tim.Month() != time.April {
		t.Errorf("Visning 1: got %v", v1)
	}
}

func TestDeriveIsColumnAdditive(t *testing.T) {
	row := models.Row{
		"ID":                  models.Text("1"),
		"object-title":        models.Text("A"),
		"pricing-total-price": models.Int(5000000),
	}
	table := derivedTable(row)

	if table.Len() != 1 {
		t.Fatalf("derive must not drop rows, got %d", table.Len())
	}
	if got, _ := table.Rows[0].Get("pricing-total-price").Int64(); got != 5000000 {
		t.Error("derive must not touch source columns")
	}
}

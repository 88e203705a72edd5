package services

import (
	"testing"

	"finn-scraper/models"
)

func locatedRow(id string, lat, lon float64) models.Row {
	return models.Row{
		"ID":           models.Text(id),
		"object-title": models.Text("Leilighet " + id),
		"latitude":     models.Float(lat),
		"longitude":    models.Float(lon),
	}
}

func TestSelectNearBoundingBox(t *testing.T) {
	buffer := BufferDegrees(60) // ≈ 0.00054 degrees

	table := &models.Table{
		Columns: []string{"ID", "latitude", "longitude"},
		Rows: []models.Row{
			locatedRow("center", 59.92, 10.75),
			locatedRow("close", 59.92+buffer/2, 10.75-buffer/2),
			locatedRow("far-lat", 59.92+buffer*3, 10.75),
			locatedRow("far-lon", 59.92, 10.75+buffer*3),
		},
	}

	got := SelectNear(table, 59.92, 10.75, buffer)

	if got.Len() != 2 {
		t.Fatalf("rows: got %d, want 2", got.Len())
	}
	if got.Rows[0].Get("ID").TextValue() != "center" || got.Rows[1].Get("ID").TextValue() != "close" {
		t.Error("retained rows should keep input order")
	}
}

func TestSelectNearSkipsUnlocatedRows(t *testing.T) {
	table := &models.Table{
		Rows: []models.Row{
			{"ID": models.Text("1"), "object-title": models.Text("Uten koordinater")},
			locatedRow("2", 59.92, 10.75),
		},
	}

	got := SelectNear(table, 59.92, 10.75, BufferDegrees(60))
	if got.Len() != 1 || got.Rows[0].Get("ID").TextValue() != "2" {
		t.Errorf("expected only the located row, got %d rows", got.Len())
	}
}

func TestSelectNearIsPureFilter(t *testing.T) {
	table := &models.Table{Rows: []models.Row{locatedRow("1", 59.92, 10.75)}}

	got := SelectNear(table, 59.92, 10.75, BufferDegrees(60))

	// Retained rows are the same Row values, not copies.
	if len(got.Rows) != 1 {
		t.Fatalf("rows: got %d, want 1", len(got.Rows))
	}
	got.Rows[0]["marker"] = models.Bool(true)
	if table.Rows[0].Get("marker").IsMissing() {
		t.Error("filter should share row identity with the input table")
	}
	delete(got.Rows[0], "marker")

	if lat, _ := table.Rows[0].Get("latitude").Float64(); lat != 59.92 {
		t.Error("input row mutated")
	}
}

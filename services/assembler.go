package services

import (
	"sort"

	"finn-scraper/models"
	"finn-scraper/utils"
)

// titleColumn is the mandatory field: a row without it is not a listing.
const titleColumn = "object-title"

// Assembler folds normalized rows into the listing table.
type Assembler struct {
	logger *utils.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(logger *utils.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble builds the table: rows in input (discovery) order, columns the
// union of keys in first-seen order. Rows whose title is missing or empty
// are removed after the fold.
func (a *Assembler) Assemble(rows []models.Row) *models.Table {
	table := &models.Table{}

	for _, row := range rows {
		table.AddColumn("ID")
		table.AddColumn("URL")
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			table.AddColumn(key)
		}
		table.Rows = append(table.Rows, row)
	}

	kept := table.Rows[:0]
	dropped := 0
	for _, row := range table.Rows {
		title := row.Get(titleColumn)
		if title.IsMissing() || title.TextValue() == "" {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	table.Rows = kept

	if dropped > 0 {
		a.logger.Warn("[assembler] Dropped %d rows without %s", dropped, titleColumn)
	}
	a.logger.Info("[assembler] Table: %d rows, %d columns", len(table.Rows), len(table.Columns))
	return table
}

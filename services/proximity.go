package services

import "finn-scraper/models"

// MetersPerDegree approximates one degree of latitude (and, near 60°N
// where this tool points, roughly one degree of longitude too — the
// original tuning bakes the same constant into both axes). The buffer
// this produces is a flat bounding box, not a geodesic radius; it is
// only meant for selections a few tens of meters across.
const MetersPerDegree = 111000.0

// BufferDegrees converts a real-world distance to the degree buffer used
// by SelectNear.
func BufferDegrees(meters float64) float64 {
	return meters / MetersPerDegree
}

// SelectNear returns the rows whose coordinates fall within ±buffer
// degrees of the reference point on both axes. It is a pure filter: rows
// are shared with the input table, never copied or mutated, and keep
// their relative order. Rows without coordinates never match.
func SelectNear(table *models.Table, lat, lon, bufferDegrees float64) *models.Table {
	out := &models.Table{Columns: table.Columns}

	for _, row := range table.Rows {
		rlat, ok := row.Get("latitude").Float64()
		if !ok {
			continue
		}
		rlon, ok := row.Get("longitude").Float64()
		if !ok {
			continue
		}

		if rlat >= lat-bufferDegrees && rlat <= lat+bufferDegrees &&
			rlon >= lon-bufferDegrees && rlon <= lon+bufferDegrees {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

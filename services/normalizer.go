package services

import (
	"regexp"
	"strconv"
	"strings"

	"finn-scraper/models"
	"finn-scraper/utils"
)

// digitRunRegexp captures runs of digits inside a field's text.
var digitRunRegexp = regexp.MustCompile(`\d+`)

// Normalizer turns raw attribute maps into typed records: drop-listed
// keys removed, prefix-matched fields coerced to integers, everything
// else passed through as text.
type Normalizer struct {
	rules  *Rules
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given rule set.
func NewNormalizer(rules *Rules, logger *utils.Logger) *Normalizer {
	return &Normalizer{rules: rules, logger: logger}
}

// NormalizeAll normalizes every raw ad. It also watches for schema
// drift: a non-empty run where no key ever matched an integer prefix
// means the portal renamed its fields and the table would silently lose
// all numeric columns.
func (n *Normalizer) NormalizeAll(ads []*models.RawAd) []models.Row {
	rows := make([]models.Row, 0, len(ads))
	coerced := 0

	for _, ad := range ads {
		row, c := n.Normalize(ad)
		coerced += c
		rows = append(rows, row)
	}

	if len(rows) > 0 && coerced == 0 {
		n.logger.Warn("[normalizer] No field matched any integer prefix across %d listings — portal markup may have changed", len(rows))
	}
	return rows
}

// Normalize applies the drop-list and the prefix coercion rules to one
// ad. The second return value counts coerced fields.
func (n *Normalizer) Normalize(ad *models.RawAd) (models.Row, int) {
	row := models.Row{
		"ID":  models.Text(ad.ID),
		"URL": models.Text(ad.URL),
	}

	coerced := 0
	for key, value := range ad.Fields {
		if n.dropped(key) {
			continue
		}
		if n.numericKey(key) {
			v := coerceInt(value)
			row[key] = v
			if v.Kind == models.KindInt {
				coerced++
			}
			continue
		}
		row[key] = models.Text(value)
	}
	return row, coerced
}

func (n *Normalizer) dropped(key string) bool {
	for _, drop := range n.rules.DropKeys {
		if key == drop {
			return true
		}
	}
	return false
}

func (n *Normalizer) numericKey(key string) bool {
	for _, prefix := range n.rules.IntPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// coerceInt concatenates every digit run in the text and parses the
// result. "120 m²" becomes 120; "3-4" becomes 34 — separate numbers
// collapse into one, which is the intended simplification for fields
// that carry a unit or a range. Text with no digits stays an empty text
// value, never missing.
func coerceInt(text string) models.Value {
	digits := strings.Join(digitRunRegexp.FindAllString(text, -1), "")
	if digits == "" {
		return models.Text("")
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// Longer than int64 (garbage field) — keep the raw text.
		return models.Text(text)
	}
	return models.Int(n)
}

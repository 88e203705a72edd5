package services

import (
	"fmt"
	"sort"
	"strings"

	"finn-scraper/models"
	"finn-scraper/utils"
)

// SummaryService aggregates the finished table into the post-run report.
type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

func (s *SummaryService) Generate(table *models.Table) *models.SummaryReport {
	report := &models.SummaryReport{
		ByEnergyGrade: make(map[string]int),
	}

	if table.Len() == 0 {
		return report
	}

	report.TotalListings = table.Len()

	var priceTotal, sqmTotal float64
	var priced, sqmPriced int
	var cheapestSqm float64

	for _, row := range table.Rows {
		if v := row.Get("sold"); v.Kind == models.KindBool && v.Flag {
			report.SoldCount++
		}
		if _, ok := row.Get("latitude").Float64(); ok {
			report.GeocodedCount++
		}

		if price, ok := row.Get("pricing-total-price").Int64(); ok && price > 0 {
			priced++
			priceTotal += float64(price)
			if report.MinTotalPrice == 0 || price < report.MinTotalPrice {
				report.MinTotalPrice = price
			}
			if price > report.MaxTotalPrice {
				report.MaxTotalPrice = price
			}
		}

		if sqm, ok := row.Get("square-meter-price").Float64(); ok {
			sqmPriced++
			sqmTotal += sqm
			if report.CheapestPerSqm == nil || sqm < cheapestSqm {
				cheapestSqm = sqm
				report.CheapestPerSqm = row
			}
		}

		if grade := row.Get("Energikarakter").TextValue(); grade != "" {
			report.ByEnergyGrade[grade]++
		}
	}

	if priced > 0 {
		report.AvgTotalPrice = priceTotal / float64(priced)
	}
	if sqmPriced > 0 {
		report.AvgSqmPrice = sqmTotal / float64(sqmPriced)
	}

	return report
}

func (s *SummaryService) Print(r *models.SummaryReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  BOLIG SCRAPE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings in table : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Marked sold       : \033[1m%d\033[0m\n", r.SoldCount)
	fmt.Printf("  Geocoded          : \033[1m%d\033[0m\n", r.GeocodedCount)
	fmt.Println()

	fmt.Printf("\033[1;33m  Total Price (kr)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AvgTotalPrice > 0 {
		fmt.Printf("  Average : \033[1;32m%.0f\033[0m\n", r.AvgTotalPrice)
		fmt.Printf("  Minimum : \033[1;32m%d\033[0m\n", r.MinTotalPrice)
		fmt.Printf("  Maximum : \033[1;32m%d\033[0m\n", r.MaxTotalPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Square-Meter Price\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AvgSqmPrice > 0 {
		fmt.Printf("  Average : \033[1;32m%.0f kr/m²\033[0m\n", r.AvgSqmPrice)
	}
	if r.CheapestPerSqm != nil {
		title := r.CheapestPerSqm.Get("object-title").TextValue()
		sqm, _ := r.CheapestPerSqm.Get("square-meter-price").Float64()
		fmt.Printf("  Cheapest: %s (\033[1;32m%.0f kr/m²\033[0m)\n", truncate(title, 40), sqm)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Energy Grades\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByEnergyGrade) == 0 {
		fmt.Printf("  No energy label data\n")
	} else {
		grades := make([]string, 0, len(r.ByEnergyGrade))
		for g := range r.ByEnergyGrade {
			grades = append(grades, g)
		}
		sort.Strings(grades)
		for _, g := range grades {
			bar := strings.Repeat("█", r.ByEnergyGrade[g])
			fmt.Printf("  %-4s %s (%d)\n", g, bar, r.ByEnergyGrade[g])
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

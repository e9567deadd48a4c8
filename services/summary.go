package services

import (
	"sort"

	"foreclosure-ingest/models"
	"foreclosure-ingest/utils"
)

// RunReport holds the aggregate view of one ingestion run, written into the
// run log before the flush so the backup artifact ends with a summary.
type RunReport struct {
	TotalListings      int
	ListingsByProvider map[string]int
	DeliveredCount     int
	MinBasePrice       int64
	MaxBasePrice       int64
	AverageBasePrice   float64
}

// SummaryService computes the end-of-run report.
type SummaryService struct{}

// NewSummaryService creates a SummaryService.
func NewSummaryService() *SummaryService {
	return &SummaryService{}
}

// Generate aggregates the run's canonical listings.
func (s *SummaryService) Generate(listings []models.Listing) RunReport {
	report := RunReport{
		ListingsByProvider: make(map[string]int),
	}
	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)
	report.MinBasePrice = listings[0].BasePrice

	var sum int64
	for _, l := range listings {
		report.ListingsByProvider[l.Provider]++
		if l.DeliveryStatus == models.Delivered {
			report.DeliveredCount++
		}
		if l.BasePrice < report.MinBasePrice {
			report.MinBasePrice = l.BasePrice
		}
		if l.BasePrice > report.MaxBasePrice {
			report.MaxBasePrice = l.BasePrice
		}
		sum += l.BasePrice
	}
	report.AverageBasePrice = float64(sum) / float64(len(listings))

	return report
}

// Log writes the report into the run log.
func (s *SummaryService) Log(report RunReport, runlog *utils.RunLog) {
	runlog.Logf("[summary] total listings: %d (delivered: %d)",
		report.TotalListings, report.DeliveredCount)

	providers := make([]string, 0, len(report.ListingsByProvider))
	for p := range report.ListingsByProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	for _, p := range providers {
		runlog.Logf("[summary] %s: %d listings", p, report.ListingsByProvider[p])
	}

	if report.TotalListings > 0 {
		runlog.Logf("[summary] base price — min: %d | max: %d | avg: %.0f",
			report.MinBasePrice, report.MaxBasePrice, report.AverageBasePrice)
	}
}

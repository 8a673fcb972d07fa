package analytics

import (
	"time"

	"gorm.io/gorm"

	"ideabank/internal/visits"
)

// Dashboard is the full snapshot behind one admin dashboard render.
type Dashboard struct {
	Totals       ContentTotals
	Windows      WindowCounts
	UniqueIPs    int64
	TopPages     []MetricCountResult
	TopBrowsers  []MetricCountResult
	TopDevices   []MetricCountResult
	TopCountries []MetricCountResult
	Traffic      TrafficSources
	Bounce       BounceStats
	Conversion   float64
	Sessions     SessionEstimates
	VisitPage    visits.Page
}

// BuildDashboard runs every dashboard query inside one transaction so all
// figures come from the same database snapshot.
func BuildDashboard(db *gorm.DB, now time.Time, page int) (Dashboard, error) {
	var d Dashboard
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if d.Totals, err = GetContentTotals(tx, now); err != nil {
			return err
		}
		if d.Windows, err = VisitWindowCounts(tx, now); err != nil {
			return err
		}
		if d.UniqueIPs, err = UniqueVisitors(tx); err != nil {
			return err
		}
		if d.TopPages, err = GetTopPages(tx, TopPagesLimit); err != nil {
			return err
		}
		if d.TopBrowsers, err = GetTopBrowsers(tx); err != nil {
			return err
		}
		if d.TopDevices, err = GetTopDevices(tx); err != nil {
			return err
		}
		if d.TopCountries, err = GetTopCountries(tx); err != nil {
			return err
		}
		if d.Traffic, err = GetTrafficSources(tx); err != nil {
			return err
		}
		if d.Bounce, err = GetBounceRate(tx); err != nil {
			return err
		}
		if d.Conversion, err = GetConversionRate(tx); err != nil {
			return err
		}
		if d.Sessions, err = GetSessionEstimates(tx); err != nil {
			return err
		}
		if d.VisitPage, err = visits.ListPage(tx, page); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// GetTopBrowsers counts visits grouped by browser label, most common first.
func GetTopBrowsers(db *gorm.DB) ([]MetricCountResult, error) {
	return groupedVisitCounts(db, "browser")
}

// GetTopDevices counts visits grouped by device category, most common first.
func GetTopDevices(db *gorm.DB) ([]MetricCountResult, error) {
	return groupedVisitCounts(db, "device_type")
}

// GetTopCountries counts visits grouped by GeoLite2 country code. Rows
// without enrichment are skipped.
func GetTopCountries(db *gorm.DB) ([]MetricCountResult, error) {
	var rawResults []struct {
		Country string
		Count   int64
	}

	query := `
    SELECT
        country as country,
        COUNT(*) as count
    FROM visits
    WHERE country <> ''
    GROUP BY country
    ORDER BY count DESC
    `

	if err := db.Raw(query).Scan(&rawResults).Error; err != nil {
		return nil, fmt.Errorf("error fetching top countries: %w", err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Country, Count: r.Count}
	}
	return results, nil
}

// GetTopPages returns the most visited page paths, capped at limit.
func GetTopPages(db *gorm.DB, limit int) ([]MetricCountResult, error) {
	if limit <= 0 {
		limit = TopPagesLimit
	}

	var rawResults []struct {
		PagePath string
		Count    int64
	}

	query := `
    SELECT
        page_path as page_path,
        COUNT(*) as count
    FROM visits
    GROUP BY page_path
    ORDER BY count DESC
    LIMIT ?
    `

	if err := db.Raw(query, limit).Scan(&rawResults).Error; err != nil {
		return nil, fmt.Errorf("error fetching top pages: %w", err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.PagePath, Count: r.Count}
	}
	return results, nil
}

func groupedVisitCounts(db *gorm.DB, column string) ([]MetricCountResult, error) {
	var rawResults []struct {
		Name  string
		Count int64
	}

	// column is one of the fixed callers above, never user input.
	query := fmt.Sprintf(`
    SELECT
        %s as name,
        COUNT(*) as count
    FROM visits
    GROUP BY %s
    ORDER BY count DESC
    `, column, column)

	if err := db.Raw(query).Scan(&rawResults).Error; err != nil {
		return nil, fmt.Errorf("error fetching visit breakdown by %s: %w", column, err)
	}

	results := make([]MetricCountResult, len(rawResults))
	for i, r := range rawResults {
		results[i] = MetricCountResult{Name: r.Name, Count: r.Count}
	}
	return results, nil
}

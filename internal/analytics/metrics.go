package analytics

import (
	"fmt"

	"gorm.io/gorm"
)

// Search-engine referrer tokens. A visit whose referrer contains any of
// these counts as organic traffic.
var searchEngineTokens = []string{"google", "bing", "yahoo", "yandex", "duckduckgo", "baidu"}

// Bounce rate rating thresholds (half-open: exactly 40 is "good",
// exactly 60 is "needs improvement").
const (
	bounceExcellentBelow = 40.0
	bounceGoodBelow      = 60.0
)

// TrafficSources buckets every visit into organic, direct or referral.
type TrafficSources struct {
	Organic  int64 `json:"organic"`
	Direct   int64 `json:"direct"`
	Referral int64 `json:"referral"`
	Total    int64 `json:"total"`

	OrganicPercent  float64 `json:"organic_percent"`
	DirectPercent   float64 `json:"direct_percent"`
	ReferralPercent float64 `json:"referral_percent"`
}

// GetTrafficSources classifies referrers: empty (or missing) is direct,
// a known search-engine domain token is organic, anything else is a
// referral. With zero visits every percentage is 0.
func GetTrafficSources(db *gorm.DB) (TrafficSources, error) {
	organicCond := ""
	for i, token := range searchEngineTokens {
		if i > 0 {
			organicCond += " OR "
		}
		organicCond += fmt.Sprintf("referrer LIKE '%%%s%%'", token)
	}

	var raw struct {
		Total   int64
		Direct  int64
		Organic int64
	}

	query := fmt.Sprintf(`
    SELECT
        COUNT(*) as total,
        SUM(CASE WHEN referrer IS NULL OR referrer = '' THEN 1 ELSE 0 END) as direct,
        SUM(CASE WHEN referrer IS NOT NULL AND referrer <> '' AND (%s) THEN 1 ELSE 0 END) as organic
    FROM visits
    `, organicCond)

	if err := db.Raw(query).Scan(&raw).Error; err != nil {
		return TrafficSources{}, fmt.Errorf("error classifying traffic sources: %w", err)
	}

	sources := TrafficSources{
		Organic:  raw.Organic,
		Direct:   raw.Direct,
		Referral: raw.Total - raw.Direct - raw.Organic,
		Total:    raw.Total,
	}
	if raw.Total > 0 {
		sources.OrganicPercent = float64(sources.Organic) / float64(raw.Total) * 100
		sources.DirectPercent = float64(sources.Direct) / float64(raw.Total) * 100
		sources.ReferralPercent = float64(sources.Referral) / float64(raw.Total) * 100
	}
	return sources, nil
}

// BounceStats holds the bounce rate and its human rating.
type BounceStats struct {
	Rate   float64 `json:"rate"`
	Rating string  `json:"rating"`
}

// GetBounceRate computes the percentage of distinct IPs with exactly one
// recorded visit. With no distinct IPs the rate is 0.
func GetBounceRate(db *gorm.DB) (BounceStats, error) {
	var raw struct {
		UniqueIps int64
		Bounced   int64
	}

	query := `
    SELECT
        COUNT(*) as unique_ips,
        SUM(CASE WHEN visit_count = 1 THEN 1 ELSE 0 END) as bounced
    FROM (
        SELECT ip_address, COUNT(*) as visit_count
        FROM visits
        GROUP BY ip_address
    )
    `

	if err := db.Raw(query).Scan(&raw).Error; err != nil {
		return BounceStats{}, fmt.Errorf("error computing bounce rate: %w", err)
	}

	rate := 0.0
	if raw.UniqueIps > 0 {
		rate = float64(raw.Bounced) / float64(raw.UniqueIps) * 100
	}
	return BounceStats{Rate: rate, Rating: rateBounce(rate)}, nil
}

func rateBounce(rate float64) string {
	switch {
	case rate < bounceExcellentBelow:
		return "excellent"
	case rate < bounceGoodBelow:
		return "good"
	default:
		return "needs improvement"
	}
}

// GetConversionRate returns the percentage of visits made by logged-in
// users over all visits; 0 when there are no visits.
func GetConversionRate(db *gorm.DB) (float64, error) {
	var raw struct {
		Total     int64
		Converted int64
	}

	query := `
    SELECT
        COUNT(*) as total,
        SUM(CASE WHEN user_id IS NOT NULL THEN 1 ELSE 0 END) as converted
    FROM visits
    `

	if err := db.Raw(query).Scan(&raw).Error; err != nil {
		return 0, fmt.Errorf("error computing conversion rate: %w", err)
	}
	if raw.Total == 0 {
		return 0, nil
	}
	return float64(raw.Converted) / float64(raw.Total) * 100, nil
}

// SessionEstimates are derived approximations, not measurements. The
// duration figure is pages-per-session times a fixed multiplier of 2 and
// carries no unit; it exists only to rank periods against each other.
type SessionEstimates struct {
	PagesPerSession    float64 `json:"pages_per_session"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
}

// GetSessionEstimates divides total visits by unique IPs; 0 when there are
// no unique IPs.
func GetSessionEstimates(db *gorm.DB) (SessionEstimates, error) {
	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM visits").Scan(&total).Error; err != nil {
		return SessionEstimates{}, fmt.Errorf("error counting visits: %w", err)
	}
	unique, err := UniqueVisitors(db)
	if err != nil {
		return SessionEstimates{}, err
	}

	if unique == 0 {
		return SessionEstimates{}, nil
	}
	pages := float64(total) / float64(unique)
	return SessionEstimates{
		PagesPerSession:    pages,
		AvgSessionDuration: pages * 2,
	}, nil
}

// Package analytics contains the read-only aggregation queries behind the
// admin dashboard. Every function is deterministic over the database
// snapshot it runs against; BuildDashboard wraps the full set in a single
// read transaction so one render never mixes snapshots.
package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MetricCountResult is one row of a grouped breakdown.
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TopPagesLimit caps the most-visited-pages breakdown.
const TopPagesLimit = 10

// WindowCounts holds visit counts for the three dashboard time windows.
type WindowCounts struct {
	Today int64 `json:"today"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
}

// VisitWindowCounts counts visits since start of today (UTC), since 7 days
// ago and since 30 days ago. The windows nest, so Today <= Week <= Month.
func VisitWindowCounts(db *gorm.DB, now time.Time) (WindowCounts, error) {
	now = now.UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var counts WindowCounts
	for _, w := range []struct {
		cutoff time.Time
		dest   *int64
	}{
		{startOfToday, &counts.Today},
		{now.AddDate(0, 0, -7), &counts.Week},
		{now.AddDate(0, 0, -30), &counts.Month},
	} {
		if err := db.Raw(
			"SELECT COUNT(*) FROM visits WHERE created_at >= ?", w.cutoff,
		).Scan(w.dest).Error; err != nil {
			return WindowCounts{}, fmt.Errorf("error counting visits in window: %w", err)
		}
	}
	return counts, nil
}

// UniqueVisitors counts distinct client IPs across all visits.
func UniqueVisitors(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Raw("SELECT COUNT(DISTINCT ip_address) FROM visits").Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("error counting unique visitors: %w", err)
	}
	return count, nil
}

// ContentTotals holds the site-wide entity counts shown on the dashboard.
type ContentTotals struct {
	Users          int64 `json:"users"`
	Ideas          int64 `json:"ideas"`
	Comments       int64 `json:"comments"`
	Visits         int64 `json:"visits"`
	NewUsersMonth  int64 `json:"new_users_month"`
	NewIdeasMonth  int64 `json:"new_ideas_month"`
}

// GetContentTotals counts users, ideas, comments and visits, plus the
// accounts and ideas created in the last 30 days.
func GetContentTotals(db *gorm.DB, now time.Time) (ContentTotals, error) {
	monthAgo := now.UTC().AddDate(0, 0, -30)

	var totals ContentTotals
	for _, q := range []struct {
		query string
		args  []interface{}
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM users", nil, &totals.Users},
		{"SELECT COUNT(*) FROM ideas", nil, &totals.Ideas},
		{"SELECT COUNT(*) FROM comments", nil, &totals.Comments},
		{"SELECT COUNT(*) FROM visits", nil, &totals.Visits},
		{"SELECT COUNT(*) FROM users WHERE created_at >= ?", []interface{}{monthAgo}, &totals.NewUsersMonth},
		{"SELECT COUNT(*) FROM ideas WHERE created_at >= ?", []interface{}{monthAgo}, &totals.NewIdeasMonth},
	} {
		if err := db.Raw(q.query, q.args...).Scan(q.dest).Error; err != nil {
			return ContentTotals{}, fmt.Errorf("error fetching content totals: %w", err)
		}
	}
	return totals, nil
}

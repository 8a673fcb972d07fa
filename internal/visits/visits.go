// Package visits stores one immutable row per tracked inbound request.
// Rows are only ever inserted (or removed when their owning user is
// deleted); the aggregation queries in internal/analytics read them.
package visits

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ideabank/internal/clientinfo"
	"ideabank/internal/pkg/geoip"
	"ideabank/internal/users"
)

// PageSize is the fixed page size for the dashboard visit listing.
const PageSize = 20

type Visit struct {
	ID         uint   `gorm:"primaryKey"`
	IPAddress  string `gorm:"size:45;not null;index"`
	UserAgent  string
	Browser    string `gorm:"size:100;index"`
	DeviceType string `gorm:"size:50;index"`
	PagePath   string `gorm:"size:500;index"`
	Referrer   string `gorm:"size:500"`
	Country    string `gorm:"size:2"` // ISO code from GeoLite2, empty when unavailable
	UserID     *uint  `gorm:"index"`
	User       *users.User
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

// RecordInput carries the request-scoped data captured by the tracker
// middleware. Browser, device and country are derived here, not by callers.
type RecordInput struct {
	IPAddress string
	UserAgent string
	PagePath  string
	Referrer  string
	UserID    *uint // nil for anonymous visits
}

// Record classifies the client and inserts exactly one visit row.
func Record(db *gorm.DB, logger *slog.Logger, input RecordInput) error {
	browser, device := clientinfo.Classify(input.UserAgent)

	visit := Visit{
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Browser:    browser,
		DeviceType: device,
		PagePath:   input.PagePath,
		Referrer:   input.Referrer,
		Country:    geoip.CountryCode(input.IPAddress),
		UserID:     input.UserID,
		// Stored in UTC; the window queries bind UTC cutoffs.
		CreatedAt: time.Now().UTC(),
	}

	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&visit).Error
	}); err != nil {
		logger.Error("Failed to record visit",
			slog.String("path", input.PagePath),
			slog.Any("error", err))
		return err
	}
	return nil
}

// Page is one page of the visit listing plus pagination metadata.
type Page struct {
	Visits      []Visit
	CurrentPage int
	TotalPages  int
	TotalItems  int64
}

// ListPage returns visits ordered newest first. Pages are 1-indexed and
// fixed at PageSize rows; out-of-range pages yield an empty page.
func ListPage(db *gorm.DB, page int) (Page, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := db.Model(&Visit{}).Count(&total).Error; err != nil {
		return Page{}, err
	}

	var items []Visit
	if err := db.Order("created_at DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&items).Error; err != nil {
		return Page{}, err
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	return Page{
		Visits:      items,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
	}, nil
}

// CountSince counts visits recorded at or after the cutoff.
func CountSince(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Model(&Visit{}).Where("created_at >= ?", cutoff).Count(&count).Error
	return count, err
}

// Count returns the total number of visits.
func Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Visit{}).Count(&count).Error
	return count, err
}

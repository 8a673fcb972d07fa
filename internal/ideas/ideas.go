// Package ideas holds the idea post model and its persistence operations.
package ideas

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ideabank/internal/users"
)

type Idea struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:100;not null"`
	Description string `gorm:"not null"`
	Category    string `gorm:"size:50;not null;index"`
	Views       int    `gorm:"not null;default:0"`
	UserID      uint   `gorm:"not null;index"`
	User        users.User
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

// ErrIdeaNotFound is returned when an idea lookup fails.
var ErrIdeaNotFound = gorm.ErrRecordNotFound

// ErrMissingFields is returned when a required field is empty.
var ErrMissingFields = errors.New("title, description and category are required")

// Create publishes a new idea owned by userID.
func Create(db *gorm.DB, userID uint, title, description, category string) (*Idea, error) {
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	if title == "" || strings.TrimSpace(description) == "" || category == "" {
		return nil, ErrMissingFields
	}

	idea := Idea{
		Title:       title,
		Description: description,
		Category:    category,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	}
	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&idea).Error
	}); err != nil {
		return nil, err
	}
	return &idea, nil
}

// FindByID retrieves an idea with its author preloaded.
func FindByID(db *gorm.DB, id uint) (*Idea, error) {
	var idea Idea
	if err := db.Preload("User").Where("id = ?", id).First(&idea).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

// IncrementViews bumps the view counter with a single atomic UPDATE so
// concurrent reads never lose increments. The counter only ever grows.
func IncrementViews(db *gorm.DB, id uint) error {
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&Idea{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + 1")).Error
	})
}

// Latest returns all ideas, newest first.
func Latest(db *gorm.DB) ([]Idea, error) {
	var items []Idea
	err := db.Preload("User").Order("created_at DESC").Find(&items).Error
	return items, err
}

// MostViewed returns all ideas ordered by view count descending.
func MostViewed(db *gorm.DB) ([]Idea, error) {
	var items []Idea
	err := db.Preload("User").Order("views DESC").Find(&items).Error
	return items, err
}

// MostCommented returns ideas that have comments, ordered by comment count.
func MostCommented(db *gorm.DB) ([]Idea, error) {
	var ids []uint
	err := db.Raw(`
        SELECT i.id
        FROM ideas i
        JOIN comments c ON c.idea_id = i.id
        GROUP BY i.id
        ORDER BY COUNT(c.id) DESC
    `).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Idea{}, nil
	}

	var items []Idea
	if err := db.Preload("User").Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}

	// Find does not keep the ranking order; restore it.
	byID := make(map[uint]Idea, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	ordered := make([]Idea, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

// ByUser returns a user's ideas, newest first.
func ByUser(db *gorm.DB, userID uint) ([]Idea, error) {
	var items []Idea
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}

// Update applies an edit to an idea's content fields.
func Update(db *gorm.DB, idea *Idea, title, description, category string) error {
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	if title == "" || strings.TrimSpace(description) == "" || category == "" {
		return ErrMissingFields
	}
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(idea).Updates(map[string]interface{}{
			"title":       title,
			"description": description,
			"category":    category,
		}).Error
	})
}

// CountSince counts ideas created at or after the cutoff.
func CountSince(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Model(&Idea{}).Where("created_at >= ?", cutoff).Count(&count).Error
	return count, err
}

// Count returns the total number of ideas.
func Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Idea{}).Count(&count).Error
	return count, err
}

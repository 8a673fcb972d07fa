// Package comments holds the comment model, its persistence operations and
// the visibility rule: an idea's owner sees every comment on their idea,
// everyone else only sees published ones.
package comments

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"ideabank/internal/ideas"
	"ideabank/internal/users"
)

type Comment struct {
	ID          uint   `gorm:"primaryKey"`
	Content     string `gorm:"not null"`
	IsPublished bool   `gorm:"not null;default:true"`
	UserID      uint `gorm:"not null;index"`
	User        users.User
	IdeaID      uint `gorm:"not null;index"`
	Idea        ideas.Idea
	CreatedAt   time.Time    `gorm:"autoCreateTime"`
	UpdatedAt   sql.NullTime // only set on edits, not on creation
}

// ErrCommentNotFound is returned when a comment lookup fails.
var ErrCommentNotFound = gorm.ErrRecordNotFound

// ErrEmptyContent is returned when a comment body is blank.
var ErrEmptyContent = errors.New("comment content cannot be empty")

// Create attaches a new published comment to an idea.
func Create(db *gorm.DB, ideaID, userID uint, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	comment := Comment{
		Content:     content,
		IsPublished: true,
		UserID:      userID,
		IdeaID:      ideaID,
		CreatedAt:   time.Now().UTC(),
	}
	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&comment).Error
	}); err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindByID retrieves a comment by ID.
func FindByID(db *gorm.DB, id uint) (*Comment, error) {
	var comment Comment
	if err := db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update replaces a comment's content and stamps UpdatedAt.
func Update(db *gorm.DB, comment *Comment, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(comment).Updates(map[string]interface{}{
			"content":    content,
			"updated_at": sql.NullTime{Time: time.Now().UTC(), Valid: true},
		}).Error
	})
}

// Delete removes a comment.
func Delete(db *gorm.DB, id uint) error {
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Delete(&Comment{}, id).Error
	})
}

// TogglePublished flips the published flag and returns the new state.
func TogglePublished(db *gorm.DB, comment *Comment) (bool, error) {
	next := !comment.IsPublished
	logger := slog.Default()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(comment).Update("is_published", next).Error
	})
	if err != nil {
		return comment.IsPublished, err
	}
	comment.IsPublished = next
	return next, nil
}

// VisibleTo lists an idea's comments as seen by viewerID. The idea's owner
// sees unpublished comments too; pass viewerID 0 for anonymous readers.
// Comment authors do not get special treatment: an unpublished comment is
// hidden even from the person who wrote it.
func VisibleTo(db *gorm.DB, ideaID, ideaOwnerID, viewerID uint) ([]Comment, error) {
	query := db.Preload("User").Where("idea_id = ?", ideaID)
	if viewerID == 0 || viewerID != ideaOwnerID {
		query = query.Where("is_published = ?", true)
	}
	var items []Comment
	err := query.Order("created_at ASC").Find(&items).Error
	return items, err
}

// Count returns the total number of comments.
func Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Comment{}).Count(&count).Error
	return count, err
}

// Package users holds the user account model and its persistence operations.
package users

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

type User struct {
	ID                uint           `gorm:"primaryKey"`
	Username          string         `gorm:"uniqueIndex;size:80;not null"`
	Email             string         `gorm:"uniqueIndex;size:120;not null"`
	EncryptedPassword sql.NullString // empty for accounts created through Google login
	GoogleID          sql.NullString `gorm:"uniqueIndex"`
	FullName          string         `gorm:"size:100"`
	Bio               string
	Location          string `gorm:"size:100"`
	Website           string `gorm:"size:200"`
	ProfilePicture    string `gorm:"size:200"`
	IsAdmin           bool   `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// ErrUsernameTaken is returned when the username is already registered.
var ErrUsernameTaken = errors.New("username already taken")

// ErrEmailTaken is returned when the email is already registered.
var ErrEmailTaken = errors.New("email already taken")

// ErrMissingFields is returned when a required registration field is empty.
var ErrMissingFields = errors.New("username, email and password are required")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

// NewUserInput carries the fields accepted when creating an account.
type NewUserInput struct {
	Username string
	Email    string
	Password string // empty allowed only for external-identity accounts
	FullName string
	Bio      string
	Location string
	Website  string
	IsAdmin  bool
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves a user by username.
func FindByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID retrieves a user linked to the given Google subject id.
func FindByGoogleID(db *gorm.DB, googleID string) (*User, error) {
	var user User
	if err := db.Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a new local account. Username and email must be unused.
func Create(db *gorm.DB, input NewUserInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if err := checkAvailability(db, username, email); err != nil {
		return nil, err
	}

	hashed, err := crypto.GeneratePasswordHash(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:          username,
		Email:             email,
		EncryptedPassword: sql.NullString{String: string(hashed), Valid: true},
		FullName:          input.FullName,
		Bio:               input.Bio,
		Location:          input.Location,
		Website:           input.Website,
		IsAdmin:           input.IsAdmin,
		CreatedAt:         time.Now().UTC(),
	}

	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExternalUserInput carries the profile fields arriving with an external
// identity. GoogleID is the provider's stable subject id.
type ExternalUserInput struct {
	Username       string
	Email          string
	FullName       string
	GoogleID       string
	ProfilePicture string
}

// CreateExternal registers an account backed by an external identity only.
// No password is stored; login happens through the provider.
func CreateExternal(db *gorm.DB, input ExternalUserInput) (*User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" || input.GoogleID == "" {
		return nil, ErrMissingFields
	}
	if err := checkAvailability(db, username, email); err != nil {
		return nil, err
	}

	user := User{
		Username:       username,
		Email:          email,
		FullName:       input.FullName,
		ProfilePicture: input.ProfilePicture,
		GoogleID:       sql.NullString{String: input.GoogleID, Valid: true},
		CreatedAt:      time.Now().UTC(),
	}

	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

func checkAvailability(db *gorm.DB, username, email string) error {
	if _, err := FindByUsername(db, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := FindByEmail(db, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// VerifyPassword checks a login attempt against the stored hash. Accounts
// without a local password (external identity only) never match.
func (u *User) VerifyPassword(password string) bool {
	if !u.EncryptedPassword.Valid {
		return false
	}
	return crypto.VerifyPassword(u.EncryptedPassword.String, password)
}

// LinkGoogleID attaches a Google subject id to an existing account.
func LinkGoogleID(db *gorm.DB, user *User, googleID string) error {
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Update("google_id", sql.NullString{String: googleID, Valid: true}).Error
	})
}

// ProfileInput carries the self-service editable profile fields.
type ProfileInput struct {
	FullName string
	Bio      string
	Location string
	Website  string
	// ProfilePicture is the stored filename; empty means keep the current one.
	ProfilePicture string
}

// UpdateProfile applies the profile fields a user may edit about themselves.
// It returns the previously stored picture name when it was replaced, so the
// caller can remove the old file.
func UpdateProfile(db *gorm.DB, user *User, input ProfileInput) (string, error) {
	replaced := ""
	updates := map[string]interface{}{
		"full_name": input.FullName,
		"bio":       input.Bio,
		"location":  input.Location,
		"website":   input.Website,
	}
	if input.ProfilePicture != "" {
		replaced = user.ProfilePicture
		updates["profile_picture"] = input.ProfilePicture
	}

	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Updates(updates).Error
	}); err != nil {
		return "", err
	}
	return replaced, nil
}

// ChangePassword replaces a user's local password.
func ChangePassword(db *gorm.DB, user *User, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	hashed, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", sql.NullString{String: string(hashed), Valid: true}).Error
	})
}

// SetAdmin flips the admin flag. Self-protection is enforced by the caller
// through the authz predicates; this is the raw persistence operation.
func SetAdmin(db *gorm.DB, userID uint, isAdmin bool) error {
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(&User{}).Where("id = ?", userID).Update("is_admin", isAdmin).Error
	})
}

// AdminUpdateInput carries the fields an administrator may edit on any
// account. The admin flag is applied by the caller through SetAdmin so the
// self-protection predicate stays in one place.
type AdminUpdateInput struct {
	Username       string
	Email          string
	FullName       string
	Bio            string
	Location       string
	Website        string
	Password       string // empty means keep the current password
	ProfilePicture string // stored filename; empty means keep the current one
}

// AdminUpdate applies an administrator edit to a user. Returns the replaced
// profile picture name, if any.
func AdminUpdate(db *gorm.DB, user *User, input AdminUpdateInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username != "" && username != user.Username {
		if _, err := FindByUsername(db, username); err == nil {
			return "", ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	} else {
		username = user.Username
	}
	if email != "" && email != user.Email {
		if _, err := FindByEmail(db, email); err == nil {
			return "", ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	} else {
		email = user.Email
	}

	updates := map[string]interface{}{
		"username":  username,
		"email":     email,
		"full_name": input.FullName,
		"bio":       input.Bio,
		"location":  input.Location,
		"website":   input.Website,
	}
	if input.Password != "" {
		hashed, err := crypto.GeneratePasswordHash(input.Password)
		if err != nil {
			return "", err
		}
		updates["encrypted_password"] = sql.NullString{String: string(hashed), Valid: true}
	}
	replaced := ""
	if input.ProfilePicture != "" {
		replaced = user.ProfilePicture
		updates["profile_picture"] = input.ProfilePicture
	}

	logger := slog.Default()
	if err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(user).Updates(updates).Error
	}); err != nil {
		return "", err
	}
	return replaced, nil
}

// Delete removes a user together with their ideas, comments and visits.
// Comments left by others on the deleted ideas go too, keeping every
// comment pointing at an existing idea. Returns the stored profile picture
// name (if any) so the caller can remove the file.
func Delete(db *gorm.DB, userID uint) (string, error) {
	user, err := FindByID(db, userID)
	if err != nil {
		return "", err
	}
	picture := user.ProfilePicture

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM comments WHERE idea_id IN (SELECT id FROM ideas WHERE user_id = ?)", userID,
		).Error; err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM comments WHERE user_id = ?",
			"DELETE FROM ideas WHERE user_id = ?",
			"DELETE FROM visits WHERE user_id = ?",
			"DELETE FROM oauth_identities WHERE user_id = ?",
			"DELETE FROM users WHERE id = ?",
		} {
			if err := tx.Exec(stmt, userID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return picture, nil
}

// CountSince counts accounts created at or after the cutoff.
func CountSince(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Model(&User{}).Where("created_at >= ?", cutoff).Count(&count).Error
	return count, err
}

// Count returns the total number of accounts.
func Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&User{}).Count(&count).Error
	return count, err
}

// WithStats pairs a user with their content counts for the admin listing.
type WithStats struct {
	User
	IdeasCount    int64 `json:"ideas_count"`
	CommentsCount int64 `json:"comments_count"`
	VisitsCount   int64 `json:"visits_count"`
}

// ListWithStats returns every account with per-user idea, comment and visit
// counts, ordered by creation time.
func ListWithStats(db *gorm.DB) ([]WithStats, error) {
	var results []WithStats
	err := db.Raw(`
        SELECT u.*,
            (SELECT COUNT(*) FROM ideas i WHERE i.user_id = u.id)    AS ideas_count,
            (SELECT COUNT(*) FROM comments c WHERE c.user_id = u.id) AS comments_count,
            (SELECT COUNT(*) FROM visits v WHERE v.user_id = u.id)   AS visits_count
        FROM users u
        ORDER BY u.created_at ASC
    `).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

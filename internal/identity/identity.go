// Package identity stores external OAuth identities and resolves them to
// local accounts. Google is the only provider today; the model keeps the
// provider name as a column so a second one only adds rows.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"ideabank/internal/users"
)

// ProviderGoogle is the provider column value for Google identities.
const ProviderGoogle = "google"

var ErrIdentityNotFound = gorm.ErrRecordNotFound

// OAuthIdentity links one external account to one local user.
type OAuthIdentity struct {
	ID             uint   `gorm:"primaryKey"`
	Provider       string `gorm:"size:50;not null;uniqueIndex:idx_provider_subject"`
	ProviderUserID string `gorm:"size:191;not null;uniqueIndex:idx_provider_subject"`
	UserID         uint   `gorm:"not null;index"`
	User           users.User
	Token          string // last token payload, JSON
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (OAuthIdentity) TableName() string {
	return "oauth_identities"
}

// Profile is the provider-agnostic subset of an external user profile that
// account resolution needs.
type Profile struct {
	Subject string // provider's stable user id
	Email   string
	Name    string
	Picture string
}

// FindOrCreateUser resolves an external profile to a local user:
//  1. an existing identity (or legacy google_id) wins,
//  2. otherwise an account with the same email gets the identity linked,
//  3. otherwise a fresh account is created with a username derived from
//     the email local part, uniquified with a numeric suffix.
func FindOrCreateUser(db *gorm.DB, logger *slog.Logger, provider string, profile Profile, token *oauth2.Token) (*users.User, error) {
	if profile.Subject == "" {
		return nil, errors.New("external profile has no subject")
	}

	var ident OAuthIdentity
	err := db.Where("provider = ? AND provider_user_id = ?", provider, profile.Subject).First(&ident).Error
	if err == nil {
		if err := storeToken(db, logger, &ident, token); err != nil {
			logger.Warn("Failed to refresh stored OAuth token", slog.Any("error", err))
		}
		return users.FindByID(db, ident.UserID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := resolveAccount(db, provider, profile)
	if err != nil {
		return nil, err
	}

	ident = OAuthIdentity{
		Provider:       provider,
		ProviderUserID: profile.Subject,
		UserID:         user.ID,
	}
	if err := storeToken(db, logger, &ident, token); err != nil {
		return nil, err
	}
	return user, nil
}

func resolveAccount(db *gorm.DB, provider string, profile Profile) (*users.User, error) {
	if provider == ProviderGoogle {
		if user, err := users.FindByGoogleID(db, profile.Subject); err == nil {
			return user, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if profile.Email != "" {
		user, err := users.FindByEmail(db, profile.Email)
		if err == nil {
			if provider == ProviderGoogle && !user.GoogleID.Valid {
				if err := users.LinkGoogleID(db, user, profile.Subject); err != nil {
					return nil, err
				}
			}
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	username, err := availableUsername(db, profile)
	if err != nil {
		return nil, err
	}
	return users.CreateExternal(db, users.ExternalUserInput{
		Username:       username,
		Email:          profile.Email,
		FullName:       profile.Name,
		GoogleID:       profile.Subject,
		ProfilePicture: profile.Picture,
	})
}

// availableUsername derives a username from the email local part (falling
// back to the provider subject) and appends a counter until it is free.
func availableUsername(db *gorm.DB, profile Profile) (string, error) {
	base := profile.Subject
	if at := strings.Index(profile.Email, "@"); at > 0 {
		base = profile.Email[:at]
	}
	base = sanitizeUsername(base)

	candidate := base
	for i := 1; ; i++ {
		_, err := users.FindByUsername(db, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func storeToken(db *gorm.DB, logger *slog.Logger, ident *OAuthIdentity, token *oauth2.Token) error {
	if token != nil {
		payload, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("error serializing OAuth token: %w", err)
		}
		ident.Token = string(payload)
	}
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Save(ident).Error
	})
}

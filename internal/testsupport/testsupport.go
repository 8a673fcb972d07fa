// Package testsupport holds the shared database setup and fixtures used by
// the package tests.
package testsupport

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ideabank/internal/comments"
	"ideabank/internal/identity"
	"ideabank/internal/ideas"
	"ideabank/internal/users"
	"ideabank/internal/visits"
)

// testDBCache caches test databases by test name so multiple calls within
// the same test share one database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

// TestDBManager wraps cartridge's TestDBManager.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager.
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

func allModels() []any {
	return []any{
		&users.User{},
		&identity.OAuthIdentity{},
		&ideas.Idea{},
		&comments.Comment{},
		&visits.Visit{},
	}
}

// SetupTestDB creates a migrated test database. It uses a named in-memory
// database with cache=shared so multiple connections within a test see the
// same data, and caches the handle per root test name.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport.
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	t.Helper()
	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a quiet test logger.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestUser creates a regular account with a bcrypt-hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string) *users.User {
	t.Helper()

	var existing users.User
	if db.Where("email = ?", email).First(&existing).Error == nil {
		return &existing
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &users.User{
		Username:          username,
		Email:             email,
		EncryptedPassword: sql.NullString{String: string(hashed), Valid: true},
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestAdmin creates an account with the admin flag set.
func CreateTestAdmin(t *testing.T, db *gorm.DB, username, email, password string) *users.User {
	t.Helper()
	user := CreateTestUser(t, db, username, email, password)
	require.NoError(t, db.Model(user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

// CreateTestIdea creates an idea owned by userID.
func CreateTestIdea(t *testing.T, db *gorm.DB, userID uint, title string) *ideas.Idea {
	t.Helper()
	idea := &ideas.Idea{
		Title:       title,
		Description: "description for " + title,
		Category:    "general",
		UserID:      userID,
	}
	require.NoError(t, db.Create(idea).Error)
	return idea
}

// CreateTestComment creates a comment; published controls the publish flag.
func CreateTestComment(t *testing.T, db *gorm.DB, ideaID, userID uint, content string, published bool) *comments.Comment {
	t.Helper()
	comment := &comments.Comment{
		Content:     content,
		IsPublished: published,
		UserID:      userID,
		IdeaID:      ideaID,
	}
	require.NoError(t, db.Create(comment).Error)
	if !published {
		// default:true on the column overrides a zero-value field on insert
		require.NoError(t, db.Model(comment).Update("is_published", false).Error)
	}
	return comment
}

// VisitFixture describes one visit row to insert.
type VisitFixture struct {
	IP        string
	UserAgent string
	Path      string
	Referrer  string
	UserID    *uint
	CreatedAt time.Time
}

// CreateTestVisit inserts a visit row directly, bypassing classification.
func CreateTestVisit(t *testing.T, db *gorm.DB, f VisitFixture) *visits.Visit {
	t.Helper()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	visit := &visits.Visit{
		IPAddress:  f.IP,
		UserAgent:  f.UserAgent,
		Browser:    "Chrome",
		DeviceType: "Desktop",
		PagePath:   f.Path,
		Referrer:   f.Referrer,
		UserID:     f.UserID,
		CreatedAt:  f.CreatedAt,
	}
	require.NoError(t, db.Create(visit).Error)
	return visit
}

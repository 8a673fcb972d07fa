package visits_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideabank/internal/testsupport"
	"ideabank/internal/visits"
)

func TestRecord(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("classifies the client and stores one row", func(t *testing.T) {
		err := visits.Record(db, logger, visits.RecordInput{
			IPAddress: "203.0.113.9",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
			PagePath:  "/idea/1",
			Referrer:  "https://google.com/search?q=ideas",
		})
		require.NoError(t, err)

		var visit visits.Visit
		require.NoError(t, db.Where("ip_address = ?", "203.0.113.9").First(&visit).Error)
		assert.Equal(t, "Chrome", visit.Browser)
		assert.Equal(t, "Desktop", visit.DeviceType)
		assert.Equal(t, "/idea/1", visit.PagePath)
		assert.Nil(t, visit.UserID)
	})

	t.Run("keeps the user id for signed-in visitors", func(t *testing.T) {
		user := testsupport.CreateTestUser(t, db, "visiting", "visiting@example.com", "password123")
		err := visits.Record(db, logger, visits.RecordInput{
			IPAddress: "203.0.113.10",
			UserAgent: "Mozilla/5.0 (iPhone) Safari/604.1",
			PagePath:  "/",
			UserID:    &user.ID,
		})
		require.NoError(t, err)

		var visit visits.Visit
		require.NoError(t, db.Where("ip_address = ?", "203.0.113.10").First(&visit).Error)
		require.NotNil(t, visit.UserID)
		assert.Equal(t, user.ID, *visit.UserID)
		assert.Equal(t, "Mobile", visit.DeviceType)
	})

	// Rows must compare correctly against UTC cutoffs regardless of the
	// host timezone, so the stored timestamp has to be UTC itself.
	t.Run("a cutoff in the future counts nothing", func(t *testing.T) {
		err := visits.Record(db, logger, visits.RecordInput{
			IPAddress: "203.0.113.11",
			UserAgent: "Mozilla/5.0 (X11; Linux) Firefox/121.0",
			PagePath:  "/timed",
		})
		require.NoError(t, err)

		count, err := visits.CountSince(db, time.Now().UTC().Add(6*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = visits.CountSince(db, time.Now().UTC().Add(-time.Minute))
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})
}

func TestForeignKeys(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	var refs []struct {
		Table string
		From  string
	}
	require.NoError(t, db.Raw("PRAGMA foreign_key_list(visits)").Scan(&refs).Error)

	found := false
	for _, ref := range refs {
		if ref.Table == "users" && ref.From == "user_id" {
			found = true
		}
	}
	assert.True(t, found, "visits.user_id should reference users")
}

func TestListPage(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	const total = 45 // two full pages and a remainder of 5
	for i := 0; i < total; i++ {
		testsupport.CreateTestVisit(t, db, testsupport.VisitFixture{
			IP:   fmt.Sprintf("10.1.0.%d", i),
			Path: fmt.Sprintf("/page-%d", i),
		})
	}

	t.Run("first page holds PageSize rows", func(t *testing.T) {
		page, err := visits.ListPage(db, 1)
		require.NoError(t, err)
		assert.Len(t, page.Visits, visits.PageSize)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Equal(t, 3, page.TotalPages)
		assert.EqualValues(t, total, page.TotalItems)
	})

	t.Run("last page holds the remainder", func(t *testing.T) {
		page, err := visits.ListPage(db, 3)
		require.NoError(t, err)
		assert.Len(t, page.Visits, 5)
	})

	t.Run("out-of-range page is empty, not an error", func(t *testing.T) {
		page, err := visits.ListPage(db, 99)
		require.NoError(t, err)
		assert.Empty(t, page.Visits)
		assert.Equal(t, 99, page.CurrentPage)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("page below one is clamped to the first page", func(t *testing.T) {
		page, err := visits.ListPage(db, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.CurrentPage)
		assert.Len(t, page.Visits, visits.PageSize)
	})
}

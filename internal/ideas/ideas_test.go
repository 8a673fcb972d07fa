package ideas_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ideabank/internal/ideas"
	"ideabank/internal/testsupport"
)

func TestCreate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	user := testsupport.CreateTestUser(t, db, "ideator", "ideator@example.com", "password123")

	t.Run("creates an idea with zero views", func(t *testing.T) {
		idea, err := ideas.Create(db, user.ID, "Solar benches", "Benches that charge phones", "energy")
		require.NoError(t, err)
		assert.NotZero(t, idea.ID)
		assert.Zero(t, idea.Views)
		assert.Equal(t, user.ID, idea.UserID)
	})

	t.Run("rejects blank fields", func(t *testing.T) {
		_, err := ideas.Create(db, user.ID, "  ", "desc", "cat")
		assert.ErrorIs(t, err, ideas.ErrMissingFields)

		_, err = ideas.Create(db, user.ID, "title", "   ", "cat")
		assert.ErrorIs(t, err, ideas.ErrMissingFields)
	})
}

func TestIncrementViews(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	user := testsupport.CreateTestUser(t, db, "viewer", "viewer@example.com", "password123")
	idea := testsupport.CreateTestIdea(t, db, user.ID, "watched idea")

	const bumps = 5
	for i := 0; i < bumps; i++ {
		require.NoError(t, ideas.IncrementViews(db, idea.ID))
	}

	found, err := ideas.FindByID(db, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, bumps, found.Views)
}

func TestOrderings(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	user := testsupport.CreateTestUser(t, db, "sorter", "sorter@example.com", "password123")
	commenter := testsupport.CreateTestUser(t, db, "sortercommenter", "sc@example.com", "password123")

	first := testsupport.CreateTestIdea(t, db, user.ID, "first")
	second := testsupport.CreateTestIdea(t, db, user.ID, "second")
	third := testsupport.CreateTestIdea(t, db, user.ID, "third")

	// Distinct view counts and comment counts.
	require.NoError(t, db.Model(first).Update("views", 3).Error)
	require.NoError(t, db.Model(second).Update("views", 10).Error)

	testsupport.CreateTestComment(t, db, third.ID, commenter.ID, "c1", true)
	testsupport.CreateTestComment(t, db, third.ID, commenter.ID, "c2", true)
	testsupport.CreateTestComment(t, db, first.ID, commenter.ID, "c3", true)

	t.Run("most viewed", func(t *testing.T) {
		items, err := ideas.MostViewed(db)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "second", items[0].Title)
		assert.Equal(t, "first", items[1].Title)
	})

	t.Run("most commented only includes commented ideas in count order", func(t *testing.T) {
		items, err := ideas.MostCommented(db)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "third", items[0].Title)
		assert.Equal(t, "first", items[1].Title)
	})

	t.Run("latest is newest first", func(t *testing.T) {
		items, err := ideas.Latest(db)
		require.NoError(t, err)
		require.Len(t, items, 3)
		// IDs break the tie when created within one timestamp tick.
		assert.True(t, items[0].ID >= items[1].ID || items[0].CreatedAt.After(items[1].CreatedAt))
	})

	t.Run("preloads the author", func(t *testing.T) {
		items, err := ideas.Latest(db)
		require.NoError(t, err)
		assert.Equal(t, "sorter", items[0].User.Username)
	})
}

func TestUpdate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	user := testsupport.CreateTestUser(t, db, "updater", "updater@example.com", "password123")
	idea := testsupport.CreateTestIdea(t, db, user.ID, "before")

	require.NoError(t, ideas.Update(db, idea, "after", "new description", "tech"))

	found, err := ideas.FindByID(db, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", found.Title)
	assert.Equal(t, "tech", found.Category)

	assert.ErrorIs(t, ideas.Update(db, idea, "", "x", "y"), ideas.ErrMissingFields)
}

func TestCountSince(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	user := testsupport.CreateTestUser(t, db, "timer", "timer@example.com", "password123")

	_, err := ideas.Create(db, user.ID, "timed idea", "description", "general")
	require.NoError(t, err)

	// Stored timestamps are UTC, so a future UTC cutoff counts nothing
	// whatever the host timezone.
	count, err := ideas.CountSince(db, time.Now().UTC().Add(6*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = ideas.CountSince(db, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFindByIDNotFound(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	_, err := ideas.FindByID(db, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

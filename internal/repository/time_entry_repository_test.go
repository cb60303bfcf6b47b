package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/database"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func makeEntry(workOrderID, userID string, start time.Time, hours *float64) *model.TimeEntry {
	entry := &model.TimeEntry{
		ID:          uuid.New().String(),
		WorkOrderID: workOrderID,
		UserID:      userID,
		StartTime:   start,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
	if hours != nil {
		end := start.Add(time.Duration(*hours * float64(time.Hour)))
		entry.EndTime = &end
		entry.DurationHours = hours
	}
	return entry
}

func TestOpenEntryUniquePerWorkerAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewTimeEntryRepository(db)
	now := time.Now()

	require.NoError(t, repo.Save(makeEntry("wo1", "emp1", now, nil)))

	// a second open entry for the same pair violates the partial index
	err := repo.Save(makeEntry("wo1", "emp1", now.Add(time.Minute), nil))
	assert.Error(t, err)

	// closed entries for the same pair are fine
	h := 1.0
	assert.NoError(t, repo.Save(makeEntry("wo1", "emp1", now.Add(-2*time.Hour), &h)))

	// open entries on other orders or by other workers are fine
	assert.NoError(t, repo.Save(makeEntry("wo2", "emp1", now, nil)))
	assert.NoError(t, repo.Save(makeEntry("wo1", "emp2", now, nil)))
}

func TestSumDurationsIgnoresOpenEntries(t *testing.T) {
	db := newTestDB(t)
	repo := NewTimeEntryRepository(db)
	now := time.Now()

	h1, h2 := 2.0, 1.5
	require.NoError(t, repo.Save(makeEntry("wo1", "emp1", now.Add(-8*time.Hour), &h1)))
	require.NoError(t, repo.Save(makeEntry("wo1", "emp2", now.Add(-5*time.Hour), &h2)))
	require.NoError(t, repo.Save(makeEntry("wo1", "emp1", now, nil)))
	require.NoError(t, repo.Save(makeEntry("other", "emp1", now.Add(-2*time.Hour), &h1)))

	total, err := repo.SumDurations("wo1")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, total, 0.001)

	// empty ledgers total zero, not NULL
	total, err = repo.SumDurations("empty")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFindOpenByWorkOrderAndUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewTimeEntryRepository(db)
	now := time.Now()

	saved := makeEntry("wo1", "emp1", now, nil)
	require.NoError(t, repo.Save(saved))

	found, err := repo.FindOpenByWorkOrderAndUser("wo1", "emp1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = repo.FindOpenByWorkOrderAndUser("wo1", "emp9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

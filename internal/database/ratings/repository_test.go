package ratings

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_ratings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Section{}, &entities.Book{}, &entities.Rating{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB, name string) *entities.Book {
	book := &entities.Book{Name: name, Author: "Test Author"}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestRepository_Create_DuplicatePair(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Dune")

	require.NoError(t, repo.Create(&entities.Rating{
		UserID: 1, BookID: book.ID, Rating: 5, Feedback: "great", RatedAt: time.Now(),
	}))

	// The composite unique index rejects a second rating for the pair.
	err := repo.Create(&entities.Rating{
		UserID: 1, BookID: book.ID, Rating: 2, Feedback: "changed my mind", RatedAt: time.Now(),
	})
	assert.Error(t, err)
}

func TestRepository_GetByUserAndBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Dune")
	require.NoError(t, repo.Create(&entities.Rating{
		UserID: 1, BookID: book.ID, Rating: 4, Feedback: "good", RatedAt: time.Now(),
	}))

	rating, err := repo.GetByUserAndBook(1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Rating)

	_, err = repo.GetByUserAndBook(2, book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_AverageByBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	dune := createTestBook(t, db, "Dune")
	unrated := createTestBook(t, db, "Hyperion")

	require.NoError(t, repo.Create(&entities.Rating{UserID: 1, BookID: dune.ID, Rating: 4, Feedback: "good", RatedAt: time.Now()}))
	require.NoError(t, repo.Create(&entities.Rating{UserID: 2, BookID: dune.ID, Rating: 5, Feedback: "great", RatedAt: time.Now()}))

	averages, err := repo.AverageByBook()
	require.NoError(t, err)

	// Unrated books are excluded, not reported as zero.
	require.Len(t, averages, 1)
	assert.Equal(t, dune.ID, averages[0].BookID)
	assert.InDelta(t, 4.5, averages[0].AverageRating, 0.001)
	assert.Equal(t, int64(2), averages[0].RatingCount)

	_, _, ok, err := repo.AverageForBook(unrated.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	avg, count, ok, err := repo.AverageForBook(dune.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.5, avg, 0.001)
	assert.Equal(t, int64(2), count)
}

func TestRepository_DeleteByBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "Dune")
	require.NoError(t, repo.Create(&entities.Rating{UserID: 1, BookID: book.ID, Rating: 3, Feedback: "ok", RatedAt: time.Now()}))
	require.NoError(t, repo.Create(&entities.Rating{UserID: 2, BookID: book.ID, Rating: 4, Feedback: "good", RatedAt: time.Now()}))

	require.NoError(t, repo.DeleteByBook(book.ID))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

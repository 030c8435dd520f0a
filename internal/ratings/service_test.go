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

func setupTestDB(t *testing.T) (*gorm.DB, *Service, func()) {
	dbPath := "./test_ratings_service_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Section{},
		&entities.Book{},
		&entities.Rating{},
	)
	require.NoError(t, err)

	service := NewService(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, service, cleanup
}

func seedBook(t *testing.T, db *gorm.DB) *entities.Book {
	section := &entities.Section{Name: "Fiction"}
	require.NoError(t, db.Create(section).Error)
	book := &entities.Book{SectionID: section.ID, Name: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.Create(book).Error)
	return book
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	user := &entities.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestService_RateBook(t *testing.T) {
	db, service, cleanup := setupTestDB(t)
	defer cleanup()

	book := seedBook(t, db)
	user := seedUser(t, db, "reader")

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.SetClock(func() time.Time { return fixed })

	rating, err := service.RateBook(user.ID, book.ID, 4, "  solid read  ")
	require.NoError(t, err)
	assert.Equal(t, 4, rating.Rating)
	assert.Equal(t, "solid read", rating.Feedback)
	assert.True(t, rating.RatedAt.Equal(fixed))

	// One rating per user per book, even with a different score.
	_, err = service.RateBook(user.ID, book.ID, 5, "changed my mind")
	assert.ErrorIs(t, err, ErrAlreadyRated)

	// Another user rating the same book is fine.
	other := seedUser(t, db, "other")
	_, err = service.RateBook(other.ID, book.ID, 5, "masterpiece")
	assert.NoError(t, err)
}

func TestService_RateBook_Validation(t *testing.T) {
	db, service, cleanup := setupTestDB(t)
	defer cleanup()

	book := seedBook(t, db)
	user := seedUser(t, db, "reader")

	_, err := service.RateBook(user.ID, book.ID, 0, "too low")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = service.RateBook(user.ID, book.ID, 6, "too high")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = service.RateBook(user.ID, book.ID, 3, "   ")
	assert.ErrorIs(t, err, ErrFeedbackRequired)

	_, err = service.RateBook(user.ID, 999, 3, "no such book")
	assert.ErrorIs(t, err, ErrBookNotFound)

	// None of the rejected attempts left a row behind.
	var count int64
	require.NoError(t, db.Model(&entities.Rating{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_BookRatings(t *testing.T) {
	db, service, cleanup := setupTestDB(t)
	defer cleanup()

	book := seedBook(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	list, _, ok, err := service.BookRatings(book.ID)
	require.NoError(t, err)
	assert.False(t, ok, "unrated book has no average")
	assert.Empty(t, list)

	_, err = service.RateBook(alice.ID, book.ID, 4, "good")
	require.NoError(t, err)
	_, err = service.RateBook(bob.ID, book.ID, 5, "great")
	require.NoError(t, err)

	list, avg, ok, err := service.BookRatings(book.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, list, 2)
	assert.InDelta(t, 4.5, avg, 0.001)

	_, _, _, err = service.BookRatings(999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

package lending

import (
	"encoding/json"
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
	dbPath := "./test_lending_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Section{},
		&entities.Book{},
		&entities.BookRequest{},
		&entities.IssuedBook{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func TestRepository_CreateRequest_DuplicatePair(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, repo.CreateRequest(&entities.BookRequest{
		UserID: 1, BookID: 2, RequestDate: time.Now(), ReturnDate: due, Status: true,
	}))

	// The composite unique index rejects a second open request for the pair.
	err := repo.CreateRequest(&entities.BookRequest{
		UserID: 1, BookID: 2, RequestDate: time.Now(), ReturnDate: due, Status: true,
	})
	assert.Error(t, err)
}

func TestRepository_CreateIssue_DuplicatePair(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{
		UserID: 1, BookID: 2, IssueDate: time.Now(), ReturnDate: due,
	}))

	err := repo.CreateIssue(&entities.IssuedBook{
		UserID: 1, BookID: 2, IssueDate: time.Now(), ReturnDate: due,
	})
	assert.Error(t, err)
}

func TestRepository_GetRequestByUserAndBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(24 * time.Hour)
	require.NoError(t, repo.CreateRequest(&entities.BookRequest{
		UserID: 3, BookID: 4, RequestDate: time.Now(), ReturnDate: due, Status: true,
	}))

	request, err := repo.GetRequestByUserAndBook(3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint(3), request.UserID)

	_, err = repo.GetRequestByUserAndBook(3, 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetAllRequests_PreloadsNames(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.Create(&user).Error)
	book := entities.Book{SectionID: 1, Name: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.Create(&book).Error)

	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, repo.CreateRequest(&entities.BookRequest{
		UserID: user.ID, BookID: book.ID, RequestDate: time.Now(), ReturnDate: due, Status: true,
	}))

	requests, err := repo.GetAllRequests()
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "reader", requests[0].User.Username)
	assert.Equal(t, "Dune", requests[0].Book.Name)

	// Listings serve user and book names, not just bare IDs.
	payload, err := json.Marshal(requests[0])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"username":"reader"`)
	assert.Contains(t, string(payload), `"name":"Dune"`)
}

func TestRepository_GetAllIssues_PreloadsNames(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := entities.User{Username: "borrower", Email: "borrower@example.com"}
	require.NoError(t, db.Create(&user).Error)
	book := entities.Book{SectionID: 1, Name: "Solaris", Author: "Stanisław Lem"}
	require.NoError(t, db.Create(&book).Error)

	due := time.Now().Add(7 * 24 * time.Hour)
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{
		UserID: user.ID, BookID: book.ID, IssueDate: time.Now(), ReturnDate: due,
	}))

	issues, err := repo.GetAllIssues()
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "borrower", issues[0].User.Username)
	assert.Equal(t, "Solaris", issues[0].Book.Name)

	payload, err := json.Marshal(issues[0])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"username":"borrower"`)
	assert.Contains(t, string(payload), `"name":"Solaris"`)
}

func TestRepository_CountsByUser(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(24 * time.Hour)
	for bookID := uint(1); bookID <= 3; bookID++ {
		require.NoError(t, repo.CreateRequest(&entities.BookRequest{
			UserID: 7, BookID: bookID, RequestDate: time.Now(), ReturnDate: due, Status: true,
		}))
	}
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{
		UserID: 7, BookID: 9, IssueDate: time.Now(), ReturnDate: due,
	}))

	requests, err := repo.CountRequestsByUser(7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), requests)

	issues, err := repo.CountIssuesByUser(7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), issues)

	none, err := repo.CountRequestsByUser(8)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestRepository_DeleteExpiredIssues(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{
		UserID: 1, BookID: 1, IssueDate: now.Add(-48 * time.Hour), ReturnDate: now.Add(-time.Hour),
	}))
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{
		UserID: 1, BookID: 2, IssueDate: now, ReturnDate: now.Add(24 * time.Hour),
	}))

	deleted, err := repo.DeleteExpiredIssues(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Second sweep over the same data deletes nothing and does not error.
	deleted, err = repo.DeleteExpiredIssues(now)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	remaining, err := repo.GetAllIssues()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, uint(2), remaining[0].BookID)
}

func TestRepository_DeleteByBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(24 * time.Hour)
	require.NoError(t, repo.CreateRequest(&entities.BookRequest{UserID: 1, BookID: 5, RequestDate: time.Now(), ReturnDate: due, Status: true}))
	require.NoError(t, repo.CreateRequest(&entities.BookRequest{UserID: 2, BookID: 5, RequestDate: time.Now(), ReturnDate: due, Status: true}))
	require.NoError(t, repo.CreateIssue(&entities.IssuedBook{UserID: 3, BookID: 5, IssueDate: time.Now(), ReturnDate: due}))

	require.NoError(t, repo.DeleteRequestsByBook(5))
	require.NoError(t, repo.DeleteIssuesByBook(5))

	requests, err := repo.CountRequests()
	require.NoError(t, err)
	assert.Zero(t, requests)

	issues, err := repo.CountIssues()
	require.NoError(t, err)
	assert.Zero(t, issues)
}

package catalog

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/storage"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Service, *storage.FileStore, func()) {
	dbPath := "./test_catalog_service_" + t.Name() + ".db"
	filesDir := t.TempDir()

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
		&entities.Rating{},
	)
	require.NoError(t, err)

	files, err := storage.NewFileStore(filesDir)
	require.NoError(t, err)

	service := NewService(db, files)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, service, files, cleanup
}

func TestService_CreateSection(t *testing.T) {
	_, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	section, err := service.CreateSection("Fiction", "Made-up stories")
	require.NoError(t, err)
	assert.NotZero(t, section.ID)
	assert.Equal(t, "Fiction", section.Name)

	_, err = service.CreateSection("Fiction", "Different description")
	assert.ErrorIs(t, err, ErrDuplicateSection)

	_, err = service.CreateSection("   ", "")
	assert.ErrorIs(t, err, ErrSectionNameEmpty)
}

func TestService_UpdateSection(t *testing.T) {
	_, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	fiction, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)
	_, err = service.CreateSection("Science", "")
	require.NoError(t, err)

	// Renaming onto another section's name is a conflict, but saving a
	// section under its own name is fine.
	_, err = service.UpdateSection(fiction.ID, "Science", "")
	assert.ErrorIs(t, err, ErrDuplicateSection)

	updated, err := service.UpdateSection(fiction.ID, "Fiction", "New description")
	require.NoError(t, err)
	assert.Equal(t, "New description", updated.Description)

	_, err = service.UpdateSection(999, "Whatever", "")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestService_CreateBook(t *testing.T) {
	_, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.CreateBook(1, "Dune", "Frank Herbert", "", nil, "")
	assert.ErrorIs(t, err, ErrNoSections)

	section, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)

	book, err := service.CreateBook(section.ID, "Dune", "Frank Herbert", "Desert planet", nil, "")
	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.Empty(t, book.FileName)

	_, err = service.CreateBook(999, "Orphan", "Nobody", "", nil, "")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestService_CreateBook_WithFile(t *testing.T) {
	_, service, files, cleanup := setupTestDB(t)
	defer cleanup()

	section, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)

	content := strings.NewReader("book contents")
	book, err := service.CreateBook(section.ID, "Dune", "Frank Herbert", "", content, "dune.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, book.FileName)
	assert.True(t, strings.HasSuffix(book.FileName, ".pdf"))

	_, err = os.Stat(files.Path(book.FileName))
	assert.NoError(t, err)
}

func TestService_CreateBook_FileCleanedUpOnFailure(t *testing.T) {
	_, service, files, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)

	// Section 999 does not exist, so the insert fails after the file
	// was stored. The orphan must not survive.
	_, err = service.CreateBook(999, "Orphan", "Nobody", "", strings.NewReader("x"), "orphan.pdf")
	require.ErrorIs(t, err, ErrSectionNotFound)

	entries, err := os.ReadDir(files.Path(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_UpdateBook(t *testing.T) {
	_, service, files, cleanup := setupTestDB(t)
	defer cleanup()

	fiction, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)
	science, err := service.CreateSection("Science", "")
	require.NoError(t, err)

	book, err := service.CreateBook(fiction.ID, "Dune", "Frank Herbert", "", strings.NewReader("v1"), "dune.pdf")
	require.NoError(t, err)
	firstFile := book.FileName

	updated, err := service.UpdateBook(book.ID, science.ID, "Dune (revised)", "Frank Herbert", "", strings.NewReader("v2"), "dune-v2.pdf")
	require.NoError(t, err)
	assert.Equal(t, science.ID, updated.SectionID)
	assert.Equal(t, "Dune (revised)", updated.Name)
	assert.NotEqual(t, firstFile, updated.FileName)

	// The replaced file is gone, the new one is on disk.
	_, err = os.Stat(files.Path(firstFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(files.Path(updated.FileName))
	assert.NoError(t, err)

	// Updating without a file keeps the stored one.
	kept, err := service.UpdateBook(book.ID, science.ID, "Dune", "Frank Herbert", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, updated.FileName, kept.FileName)
}

func TestService_DeleteBook_Cascades(t *testing.T) {
	db, service, files, cleanup := setupTestDB(t)
	defer cleanup()

	section, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)
	book, err := service.CreateBook(section.ID, "Dune", "Frank Herbert", "", strings.NewReader("x"), "dune.pdf")
	require.NoError(t, err)

	user := &entities.User{Username: "reader", Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entities.BookRequest{
		UserID: user.ID, BookID: book.ID,
		RequestDate: time.Now(), ReturnDate: time.Now().Add(24 * time.Hour), Status: true,
	}).Error)
	require.NoError(t, db.Create(&entities.Rating{
		UserID: user.ID, BookID: book.ID, Rating: 5, Feedback: "great",
	}).Error)

	require.NoError(t, service.DeleteBook(book.ID))

	for _, model := range []interface{}{
		&entities.Book{}, &entities.BookRequest{}, &entities.IssuedBook{}, &entities.Rating{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}

	_, err = os.Stat(files.Path(book.FileName))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, service.DeleteBook(book.ID), ErrBookNotFound)
}

func TestService_DeleteSection_Cascades(t *testing.T) {
	db, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	fiction, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)
	science, err := service.CreateSection("Science", "")
	require.NoError(t, err)

	doomed, err := service.CreateBook(fiction.ID, "Dune", "Frank Herbert", "", nil, "")
	require.NoError(t, err)
	survivor, err := service.CreateBook(science.ID, "Cosmos", "Carl Sagan", "", nil, "")
	require.NoError(t, err)

	user := &entities.User{Username: "reader", Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entities.IssuedBook{
		UserID: user.ID, BookID: doomed.ID,
		IssueDate: time.Now(), ReturnDate: time.Now().Add(24 * time.Hour),
	}).Error)

	require.NoError(t, service.DeleteSection(fiction.ID))

	var books []entities.Book
	require.NoError(t, db.Find(&books).Error)
	require.Len(t, books, 1)
	assert.Equal(t, survivor.ID, books[0].ID)

	var issues int64
	require.NoError(t, db.Model(&entities.IssuedBook{}).Count(&issues).Error)
	assert.Zero(t, issues)

	assert.ErrorIs(t, service.DeleteSection(fiction.ID), ErrSectionNotFound)
}

func TestService_Search(t *testing.T) {
	_, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	fiction, err := service.CreateSection("Science Fiction", "")
	require.NoError(t, err)
	_, err = service.CreateSection("History", "")
	require.NoError(t, err)
	_, err = service.CreateBook(fiction.ID, "Dune", "Frank Herbert", "A science fantasy epic", nil, "")
	require.NoError(t, err)

	result, err := service.Search("science")
	require.NoError(t, err)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, "Science Fiction", result.Sections[0].Name)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Dune", result.Books[0].Name)

	// Lowercase queries match mixed-case book names
	result, err = service.Search("dun")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Dune", result.Books[0].Name)
	assert.Empty(t, result.Sections)

	result, err = service.Search("HERBERT")
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Dune", result.Books[0].Name)

	result, err = service.Search("  ")
	require.NoError(t, err)
	assert.Empty(t, result.Sections)
	assert.Empty(t, result.Books)
}

func TestService_Statistics(t *testing.T) {
	db, service, _, cleanup := setupTestDB(t)
	defer cleanup()

	section, err := service.CreateSection("Fiction", "")
	require.NoError(t, err)
	book, err := service.CreateBook(section.ID, "Dune", "Frank Herbert", "", nil, "")
	require.NoError(t, err)

	user := &entities.User{Username: "reader", Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entities.Rating{
		UserID: user.ID, BookID: book.ID, Rating: 4, Feedback: "solid",
	}).Error)

	stats, err := service.Statistics()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Sections)
	assert.Equal(t, int64(1), stats.Books)
	assert.Equal(t, int64(0), stats.OpenRequests)
	assert.Equal(t, int64(1), stats.Ratings)
	require.Len(t, stats.BookRatings, 1)
	assert.InDelta(t, 4.0, stats.BookRatings[0].AverageRating, 0.001)
}

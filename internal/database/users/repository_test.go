package users

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string, isAdmin bool) *entities.User {
	user := &entities.User{Username: username, Email: email, PasswordHash: "x", IsAdmin: isAdmin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepository_GetByID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created := createTestUser(t, db, "reader", "reader@example.com", false)

	user, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
	assert.False(t, user.IsAdmin)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetByUsername(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created := createTestUser(t, db, "librarian", "librarian@example.com", true)

	user, err := repo.GetByUsername("librarian")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.IsAdmin)
}

func TestRepository_GetByEmail(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created := createTestUser(t, db, "reader", "reader@example.com", false)

	user, err := repo.GetByEmail("reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UniqueConstraints(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	createTestUser(t, db, "reader", "reader@example.com", false)

	err := db.Create(&entities.User{Username: "reader", Email: "other@example.com", PasswordHash: "x"}).Error
	assert.Error(t, err)

	err = db.Create(&entities.User{Username: "other", Email: "reader@example.com", PasswordHash: "x"}).Error
	assert.Error(t, err)
}

func TestRepository_Count(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestUser(t, db, "a", "a@example.com", false)
	createTestUser(t, db, "b", "b@example.com", true)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

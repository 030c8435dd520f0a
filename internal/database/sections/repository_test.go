package sections

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

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_sections_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Section{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_Create(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	section := &entities.Section{Name: "Fiction", Description: "Novels and stories"}
	err := repo.Create(section)

	require.NoError(t, err)
	assert.NotZero(t, section.ID)
}

func TestRepository_Create_DuplicateName(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.Section{Name: "Fiction"}))

	err := repo.Create(&entities.Section{Name: "Fiction"})
	assert.Error(t, err)
}

func TestRepository_GetByName(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created := &entities.Section{Name: "History"}
	require.NoError(t, repo.Create(created))

	section, err := repo.GetByName("History")
	require.NoError(t, err)
	assert.Equal(t, created.ID, section.ID)

	_, err = repo.GetByName("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	section := &entities.Section{Name: "Sci-fi"}
	require.NoError(t, repo.Create(section))

	section.Name = "Science Fiction"
	section.Description = "Updated"
	require.NoError(t, repo.Update(section))

	got, err := repo.GetByID(section.ID)
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", got.Name)
	assert.Equal(t, "Updated", got.Description)
}

func TestRepository_Search_CaseInsensitive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.Section{Name: "Fiction"}))
	require.NoError(t, repo.Create(&entities.Section{Name: "History"}))

	results, err := repo.Search("FIC")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Fiction", results[0].Name)
}

func TestRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	section := &entities.Section{Name: "Poetry"}
	require.NoError(t, repo.Create(section))

	require.NoError(t, repo.Delete(section.ID))

	_, err := repo.GetByID(section.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

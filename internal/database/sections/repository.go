// Package sections provides database operations for section management.
//
// # Usage
//
//	repo := sections.NewRepository(db)
//	section, err := repo.GetByID(id)
package sections

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles all section database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sections repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new section.
func (r *Repository) Create(section *entities.Section) error {
	return r.db.Create(section).Error
}

// GetByID retrieves a section by ID.
func (r *Repository) GetByID(id uint) (*entities.Section, error) {
	var section entities.Section
	err := r.db.First(&section, id).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// GetByName retrieves a section by its unique name.
func (r *Repository) GetByName(name string) (*entities.Section, error) {
	var section entities.Section
	err := r.db.Where("name = ?", name).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// GetAll returns all sections ordered by name.
func (r *Repository) GetAll() ([]entities.Section, error) {
	var sections []entities.Section
	err := r.db.Order("name ASC").Find(&sections).Error
	return sections, err
}

// Update persists changes to a section.
func (r *Repository) Update(section *entities.Section) error {
	return r.db.Save(section).Error
}

// Delete removes a section row. Cascading to member books is the
// catalog service's responsibility and happens in the same transaction.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Section{}, id).Error
}

// Search returns sections whose name contains the query, case-insensitively.
func (r *Repository) Search(query string) ([]entities.Section, error) {
	var sections []entities.Section
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Find(&sections).Error
	return sections, err
}

// Count returns the total number of sections.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Section{}).Count(&count).Error
	return count, err
}

// Package books provides database operations for book management.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(id)
package books

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// GetByID retrieves a book by ID with its section preloaded.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Section").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAll returns all books ordered by name.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Section").Order("name ASC").Find(&books).Error
	return books, err
}

// GetBySection returns all books belonging to a section.
func (r *Repository) GetBySection(sectionID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("section_id = ?", sectionID).Order("name ASC").Find(&books).Error
	return books, err
}

// Update persists changes to a book.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Save(book).Error
}

// Delete removes a book row. Cascading to requests, issues and ratings is
// the catalog service's responsibility and happens in the same transaction.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// Search returns books whose name, description or author contains the
// query, case-insensitively.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.Preload("Section").
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(author) LIKE ?",
			pattern, pattern, pattern).
		Order("name ASC").
		Find(&books).Error
	return books, err
}

// Count returns the total number of books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

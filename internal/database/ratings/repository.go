// Package ratings provides database operations for book ratings.
//
// # Usage
//
//	repo := ratings.NewRepository(db)
//	rating, err := repo.GetByUserAndBook(userID, bookID)
package ratings

import (
	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

// BookAverage is an aggregation row: a book together with the arithmetic
// mean of its ratings. Books with no ratings never appear here.
type BookAverage struct {
	BookID        uint    `json:"book_id"`
	BookName      string  `json:"book_name"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// Repository handles all rating database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new rating.
func (r *Repository) Create(rating *entities.Rating) error {
	return r.db.Create(rating).Error
}

// GetByUserAndBook retrieves a user's rating of a book.
func (r *Repository) GetByUserAndBook(userID, bookID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetByBook returns all ratings for a book.
func (r *Repository) GetByBook(bookID uint) ([]entities.Rating, error) {
	var ratings []entities.Rating
	err := r.db.Where("book_id = ?", bookID).Order("rated_at ASC").Find(&ratings).Error
	return ratings, err
}

// DeleteByBook removes all ratings referencing a book.
func (r *Repository) DeleteByBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.Rating{}).Error
}

// AverageByBook returns the per-book average rating across all rated books.
// The inner join excludes books with zero ratings instead of reporting them
// as zero.
func (r *Repository) AverageByBook() ([]BookAverage, error) {
	var averages []BookAverage
	err := r.db.Model(&entities.Rating{}).
		Select("ratings.book_id AS book_id, books.name AS book_name, AVG(ratings.rating) AS average_rating, COUNT(ratings.id) AS rating_count").
		Joins("JOIN books ON books.id = ratings.book_id").
		Group("ratings.book_id, books.name").
		Order("books.name ASC").
		Scan(&averages).Error
	return averages, err
}

// AverageForBook returns the average rating for one book and how many
// ratings contribute to it. A book with no ratings yields ok=false.
func (r *Repository) AverageForBook(bookID uint) (avg float64, count int64, ok bool, err error) {
	err = r.db.Model(&entities.Rating{}).Where("book_id = ?", bookID).Count(&count).Error
	if err != nil || count == 0 {
		return 0, 0, false, err
	}
	row := struct{ Avg float64 }{}
	err = r.db.Model(&entities.Rating{}).
		Select("AVG(rating) AS avg").
		Where("book_id = ?", bookID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, false, err
	}
	return row.Avg, count, true, nil
}

// Count returns the total number of ratings.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Rating{}).Count(&count).Error
	return count, err
}

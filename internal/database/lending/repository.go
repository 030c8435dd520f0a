// Package lending provides database operations for book requests and
// issued books.
//
// # Usage
//
//	repo := lending.NewRepository(db)
//	request, err := repo.GetRequestByUserAndBook(userID, bookID)
//
// The composite unique indexes on (user_id, book_id) for both tables are
// part of the contract: a concurrent duplicate insert fails at the storage
// layer even if the caller's existence check raced.
package lending

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles all book request and issued book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new lending repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// --- Book requests ---

// CreateRequest inserts a new book request.
func (r *Repository) CreateRequest(request *entities.BookRequest) error {
	return r.db.Create(request).Error
}

// GetRequestByID retrieves a book request by ID.
func (r *Repository) GetRequestByID(id uint) (*entities.BookRequest, error) {
	var request entities.BookRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetRequestByUserAndBook retrieves the open request for a (user, book) pair.
func (r *Repository) GetRequestByUserAndBook(userID, bookID uint) (*entities.BookRequest, error) {
	var request entities.BookRequest
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GetRequestsByUser returns all open requests for a user with books preloaded.
func (r *Repository) GetRequestsByUser(userID uint) ([]entities.BookRequest, error) {
	var requests []entities.BookRequest
	err := r.db.Preload("Book").Where("user_id = ?", userID).
		Order("request_date ASC").Find(&requests).Error
	return requests, err
}

// GetAllRequests returns all open requests with users and books preloaded.
func (r *Repository) GetAllRequests() ([]entities.BookRequest, error) {
	var requests []entities.BookRequest
	err := r.db.Preload("User").Preload("Book").
		Order("request_date ASC").Find(&requests).Error
	return requests, err
}

// DeleteRequest removes a book request by ID.
func (r *Repository) DeleteRequest(id uint) error {
	return r.db.Delete(&entities.BookRequest{}, id).Error
}

// DeleteRequestsByBook removes all requests referencing a book.
func (r *Repository) DeleteRequestsByBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.BookRequest{}).Error
}

// CountRequestsByUser returns the number of open requests for a user.
func (r *Repository) CountRequestsByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookRequest{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountRequests returns the total number of open requests.
func (r *Repository) CountRequests() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookRequest{}).Count(&count).Error
	return count, err
}

// --- Issued books ---

// CreateIssue inserts a new issued book record.
func (r *Repository) CreateIssue(issue *entities.IssuedBook) error {
	return r.db.Create(issue).Error
}

// GetIssueByID retrieves an issued book by ID.
func (r *Repository) GetIssueByID(id uint) (*entities.IssuedBook, error) {
	var issue entities.IssuedBook
	err := r.db.First(&issue, id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssueByUserAndBook retrieves the active loan for a (user, book) pair.
func (r *Repository) GetIssueByUserAndBook(userID, bookID uint) (*entities.IssuedBook, error) {
	var issue entities.IssuedBook
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&issue).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssuesByUser returns all active loans for a user with books preloaded.
func (r *Repository) GetIssuesByUser(userID uint) ([]entities.IssuedBook, error) {
	var issues []entities.IssuedBook
	err := r.db.Preload("Book").Where("user_id = ?", userID).
		Order("issue_date ASC").Find(&issues).Error
	return issues, err
}

// GetAllIssues returns all active loans with users and books preloaded.
func (r *Repository) GetAllIssues() ([]entities.IssuedBook, error) {
	var issues []entities.IssuedBook
	err := r.db.Preload("User").Preload("Book").
		Order("issue_date ASC").Find(&issues).Error
	return issues, err
}

// DeleteIssue removes an issued book by ID.
func (r *Repository) DeleteIssue(id uint) error {
	return r.db.Delete(&entities.IssuedBook{}, id).Error
}

// DeleteIssuesByBook removes all loans referencing a book.
func (r *Repository) DeleteIssuesByBook(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.IssuedBook{}).Error
}

// DeleteExpiredIssues removes every loan whose return date is strictly
// before the given instant and reports how many rows were deleted.
// Deleting nothing is not an error, which makes the sweep idempotent and
// safe under concurrent invocations.
func (r *Repository) DeleteExpiredIssues(now time.Time) (int64, error) {
	result := r.db.Where("return_date < ?", now).Delete(&entities.IssuedBook{})
	return result.RowsAffected, result.Error
}

// CountIssuesByUser returns the number of active loans for a user.
func (r *Repository) CountIssuesByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.IssuedBook{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountIssues returns the total number of active loans.
func (r *Repository) CountIssues() (int64, error) {
	var count int64
	err := r.db.Model(&entities.IssuedBook{}).Count(&count).Error
	return count, err
}

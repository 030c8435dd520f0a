// Package lending implements the loan workflow: a (user, book) pair moves
// from no relationship to a pending request, to an active loan, and back
// to nothing when the book is returned or the loan revoked.
package lending

import (
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	lendingdb "github.com/mrlokans/librarium/internal/database/lending"
	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrDuplicateRequest   = errors.New("book is already requested")
	ErrAlreadyIssued      = errors.New("book is already issued")
	ErrQuotaExceeded      = errors.New("too many open requests and loans")
	ErrInvalidReturnDate  = errors.New("return date must be in the future")
	ErrRequestNotFound    = errors.New("request not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrNotIssued          = errors.New("book is not issued")
	ErrIssuedBookNotFound = errors.New("issued book not found")
)

// DefaultQuota is the cap on a user's combined open requests and active
// loans. The check is strict-greater, so one claim beyond the cap still
// goes through; that laxity is long-standing observed behavior and is
// kept on purpose.
const DefaultQuota = 5

// Service runs the lending workflow. All multi-step operations execute in
// a single transaction; the composite unique indexes on book_requests and
// issued_books back up every check-then-act sequence at the storage layer.
type Service struct {
	db    *gorm.DB
	quota int
	now   func() time.Time
}

// NewService creates a lending service. A quota <= 0 falls back to
// DefaultQuota.
func NewService(db *gorm.DB, quota int) *Service {
	if quota <= 0 {
		quota = DefaultQuota
	}
	return &Service{
		db:    db,
		quota: quota,
		now:   time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RequestBook creates a pending borrow request for the user.
func (s *Service) RequestBook(userID, bookID uint, returnDate time.Time) (*entities.BookRequest, error) {
	now := s.now()
	if !returnDate.After(now) {
		return nil, ErrInvalidReturnDate
	}

	var request *entities.BookRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}

		repo := lendingdb.NewRepository(tx)

		if _, err := repo.GetRequestByUserAndBook(userID, bookID); err == nil {
			return ErrDuplicateRequest
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing request: %w", err)
		}

		if _, err := repo.GetIssueByUserAndBook(userID, bookID); err == nil {
			return ErrAlreadyIssued
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing issue: %w", err)
		}

		requests, err := repo.CountRequestsByUser(userID)
		if err != nil {
			return fmt.Errorf("count requests: %w", err)
		}
		issues, err := repo.CountIssuesByUser(userID)
		if err != nil {
			return fmt.Errorf("count issues: %w", err)
		}
		if requests+issues > int64(s.quota) {
			return ErrQuotaExceeded
		}

		request = &entities.BookRequest{
			UserID:      userID,
			BookID:      bookID,
			RequestDate: now,
			ReturnDate:  returnDate,
			Status:      true,
		}
		if err := repo.CreateRequest(request); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ApproveRequest turns a pending request into an active loan. Creating
// the IssuedBook and deleting the BookRequest commit together or not at
// all: a failure between the two rolls the whole approval back.
func (s *Service) ApproveRequest(requestID uint) (*entities.IssuedBook, error) {
	var issue *entities.IssuedBook
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := lendingdb.NewRepository(tx)

		request, err := repo.GetRequestByID(requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("load request: %w", err)
		}

		var book entities.Book
		if err := tx.First(&book, request.BookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}

		issue = &entities.IssuedBook{
			UserID:     request.UserID,
			BookID:     request.BookID,
			IssueDate:  s.now(),
			ReturnDate: request.ReturnDate,
		}
		if err := repo.CreateIssue(issue); err != nil {
			// The composite unique index rejects a second active loan
			// for the pair, e.g. when two librarians race to approve.
			if isUniqueViolation(err) {
				return ErrAlreadyIssued
			}
			return fmt.Errorf("create issue: %w", err)
		}
		if err := repo.DeleteRequest(request.ID); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// RejectRequest deletes a pending request without issuing the book.
func (s *Service) RejectRequest(requestID uint) error {
	repo := lendingdb.NewRepository(s.db)

	request, err := repo.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("load request: %w", err)
	}
	return repo.DeleteRequest(request.ID)
}

// CancelRequest is the user-initiated counterpart of RejectRequest.
func (s *Service) CancelRequest(userID, bookID uint) error {
	repo := lendingdb.NewRepository(s.db)

	request, err := repo.GetRequestByUserAndBook(userID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("load request: %w", err)
	}
	return repo.DeleteRequest(request.ID)
}

// ReturnBook ends the user's active loan of the book.
func (s *Service) ReturnBook(userID, bookID uint) error {
	repo := lendingdb.NewRepository(s.db)

	issue, err := repo.GetIssueByUserAndBook(userID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotIssued
		}
		return fmt.Errorf("load issue: %w", err)
	}
	return repo.DeleteIssue(issue.ID)
}

// RevokeIssued removes an active loan unconditionally, regardless of its
// return date. Admin override.
func (s *Service) RevokeIssued(issuedID uint) error {
	repo := lendingdb.NewRepository(s.db)

	issue, err := repo.GetIssueByID(issuedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIssuedBookNotFound
		}
		return fmt.Errorf("load issue: %w", err)
	}
	return repo.DeleteIssue(issue.ID)
}

// RevokeExpired deletes every loan whose return date has passed and
// returns how many were removed. It is idempotent and safe to invoke from
// several places at once: a row another sweep already removed simply does
// not match.
func (s *Service) RevokeExpired() (int64, error) {
	repo := lendingdb.NewRepository(s.db)
	return repo.DeleteExpiredIssues(s.now())
}

// CanView reports whether the user may open the book's detail view:
// admins always, everyone else only while holding an active loan of it.
func (s *Service) CanView(user *entities.User, bookID uint) (bool, error) {
	if user.IsAdmin {
		return true, nil
	}

	repo := lendingdb.NewRepository(s.db)
	_, err := repo.GetIssueByUserAndBook(user.ID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check issue: %w", err)
	}
	return true, nil
}

// RequestsForUser returns the user's open requests with books preloaded.
func (s *Service) RequestsForUser(userID uint) ([]entities.BookRequest, error) {
	return lendingdb.NewRepository(s.db).GetRequestsByUser(userID)
}

// IssuesForUser returns the user's active loans with books preloaded.
func (s *Service) IssuesForUser(userID uint) ([]entities.IssuedBook, error) {
	return lendingdb.NewRepository(s.db).GetIssuesByUser(userID)
}

// AllRequests returns every open request, for the admin view.
func (s *Service) AllRequests() ([]entities.BookRequest, error) {
	return lendingdb.NewRepository(s.db).GetAllRequests()
}

// AllIssues returns every active loan, for the admin view.
func (s *Service) AllIssues() ([]entities.IssuedBook, error) {
	return lendingdb.NewRepository(s.db).GetAllIssues()
}

// isUniqueViolation reports whether err is a sqlite unique constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

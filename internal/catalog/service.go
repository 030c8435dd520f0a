// Package catalog manages the library's sections and books, including
// the stored book files and the cascading cleanup when either is removed.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"gorm.io/gorm"

	booksdb "github.com/mrlokans/librarium/internal/database/books"
	lendingdb "github.com/mrlokans/librarium/internal/database/lending"
	ratingsdb "github.com/mrlokans/librarium/internal/database/ratings"
	sectionsdb "github.com/mrlokans/librarium/internal/database/sections"
	usersdb "github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrSectionNotFound  = errors.New("section not found")
	ErrDuplicateSection = errors.New("a section with this name already exists")
	ErrSectionNameEmpty = errors.New("section name must not be empty")
	ErrBookNotFound     = errors.New("book not found")
	ErrBookNameEmpty    = errors.New("book name must not be empty")
	ErrNoSections       = errors.New("create a section before adding books")
)

// FileStore abstracts the on-disk book file storage. Delete reports
// whether a file was actually removed; it never fails the caller.
type FileStore interface {
	Store(r io.Reader, originalName string) (string, error)
	Delete(storedName string) bool
}

type Service struct {
	db    *gorm.DB
	files FileStore
}

func NewService(db *gorm.DB, files FileStore) *Service {
	return &Service{db: db, files: files}
}

func (s *Service) CreateSection(name, description string) (*entities.Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSectionNameEmpty
	}

	section := &entities.Section{Name: name, Description: description}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := sectionsdb.NewRepository(tx)
		if _, err := repo.GetByName(name); err == nil {
			return ErrDuplicateSection
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check section name: %w", err)
		}
		if err := repo.Create(section); err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return section, nil
}

func (s *Service) GetSection(id uint) (*entities.Section, error) {
	section, err := sectionsdb.NewRepository(s.db).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return section, nil
}

func (s *Service) ListSections() ([]entities.Section, error) {
	return sectionsdb.NewRepository(s.db).GetAll()
}

func (s *Service) UpdateSection(id uint, name, description string) (*entities.Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSectionNameEmpty
	}

	var section *entities.Section
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := sectionsdb.NewRepository(tx)

		existing, err := repo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}
			return fmt.Errorf("load section: %w", err)
		}

		if other, err := repo.GetByName(name); err == nil && other.ID != id {
			return ErrDuplicateSection
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check section name: %w", err)
		}

		existing.Name = name
		existing.Description = description
		if err := repo.Update(existing); err != nil {
			return fmt.Errorf("update section: %w", err)
		}
		section = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return section, nil
}

// DeleteSection removes a section and everything hanging off it: every
// book in the section together with its requests, loans and ratings.
// Stored files are deleted only after the transaction commits, so a
// filesystem hiccup can not leave the database half-cleaned.
func (s *Service) DeleteSection(id uint) error {
	var orphanedFiles []string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := sectionsdb.NewRepository(tx).GetByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}
			return fmt.Errorf("load section: %w", err)
		}

		books, err := booksdb.NewRepository(tx).GetBySection(id)
		if err != nil {
			return fmt.Errorf("load section books: %w", err)
		}

		for _, book := range books {
			if err := deleteBookRows(tx, book.ID); err != nil {
				return err
			}
			if book.FileName != "" {
				orphanedFiles = append(orphanedFiles, book.FileName)
			}
		}

		if err := sectionsdb.NewRepository(tx).Delete(id); err != nil {
			return fmt.Errorf("delete section: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range orphanedFiles {
		if !s.files.Delete(name) {
			log.Printf("[catalog] stored file %q was already gone", name)
		}
	}
	return nil
}

// CreateBook adds a book to a section, optionally storing an uploaded
// file. The stored file is removed again if the insert fails.
func (s *Service) CreateBook(sectionID uint, name, author, description string, file io.Reader, fileName string) (*entities.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBookNameEmpty
	}

	total, err := sectionsdb.NewRepository(s.db).Count()
	if err != nil {
		return nil, fmt.Errorf("count sections: %w", err)
	}
	if total == 0 {
		return nil, ErrNoSections
	}

	storedName := ""
	if file != nil {
		storedName, err = s.files.Store(file, fileName)
		if err != nil {
			return nil, fmt.Errorf("store book file: %w", err)
		}
	}

	book := &entities.Book{
		SectionID:   sectionID,
		Name:        name,
		Author:      author,
		Description: description,
		FileName:    storedName,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := sectionsdb.NewRepository(tx).GetByID(sectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}
			return fmt.Errorf("load section: %w", err)
		}
		if err := booksdb.NewRepository(tx).Create(book); err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		return nil
	})
	if err != nil {
		if storedName != "" {
			s.files.Delete(storedName)
		}
		return nil, err
	}
	return book, nil
}

func (s *Service) GetBook(id uint) (*entities.Book, error) {
	book, err := booksdb.NewRepository(s.db).GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *Service) ListBooks() ([]entities.Book, error) {
	return booksdb.NewRepository(s.db).GetAll()
}

func (s *Service) ListBooksBySection(sectionID uint) ([]entities.Book, error) {
	if _, err := sectionsdb.NewRepository(s.db).GetByID(sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return booksdb.NewRepository(s.db).GetBySection(sectionID)
}

// UpdateBook edits a book's fields and optionally replaces its stored
// file. The previous file is removed only after the update commits.
func (s *Service) UpdateBook(id, sectionID uint, name, author, description string, file io.Reader, fileName string) (*entities.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBookNameEmpty
	}

	storedName := ""
	if file != nil {
		var err error
		storedName, err = s.files.Store(file, fileName)
		if err != nil {
			return nil, fmt.Errorf("store book file: %w", err)
		}
	}

	var book *entities.Book
	previousFile := ""
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := booksdb.NewRepository(tx)
		existing, err := repo.GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}
		if _, err := sectionsdb.NewRepository(tx).GetByID(sectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSectionNotFound
			}
			return fmt.Errorf("load section: %w", err)
		}

		existing.SectionID = sectionID
		existing.Name = name
		existing.Author = author
		existing.Description = description
		if storedName != "" {
			previousFile = existing.FileName
			existing.FileName = storedName
		}
		if err := repo.Update(existing); err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		book = existing
		return nil
	})
	if err != nil {
		if storedName != "" {
			s.files.Delete(storedName)
		}
		return nil, err
	}

	if previousFile != "" && !s.files.Delete(previousFile) {
		log.Printf("[catalog] replaced file %q was already gone", previousFile)
	}
	return book, nil
}

// DeleteBook removes a book and its requests, loans and ratings. The
// stored file is deleted after the transaction commits.
func (s *Service) DeleteBook(id uint) error {
	orphanedFile := ""

	err := s.db.Transaction(func(tx *gorm.DB) error {
		book, err := booksdb.NewRepository(tx).GetByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}
		if err := deleteBookRows(tx, id); err != nil {
			return err
		}
		orphanedFile = book.FileName
		return nil
	})
	if err != nil {
		return err
	}

	if orphanedFile != "" && !s.files.Delete(orphanedFile) {
		log.Printf("[catalog] stored file %q was already gone", orphanedFile)
	}
	return nil
}

// deleteBookRows removes a book row and its dependent requests, issues
// and ratings inside the caller's transaction.
func deleteBookRows(tx *gorm.DB, bookID uint) error {
	lendingRepo := lendingdb.NewRepository(tx)
	if err := lendingRepo.DeleteRequestsByBook(bookID); err != nil {
		return fmt.Errorf("delete book requests: %w", err)
	}
	if err := lendingRepo.DeleteIssuesByBook(bookID); err != nil {
		return fmt.Errorf("delete book issues: %w", err)
	}
	if err := ratingsdb.NewRepository(tx).DeleteByBook(bookID); err != nil {
		return fmt.Errorf("delete book ratings: %w", err)
	}
	if err := booksdb.NewRepository(tx).Delete(bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// SearchResult groups the catalog entries matching a query.
type SearchResult struct {
	Sections []entities.Section `json:"sections"`
	Books    []entities.Book    `json:"books"`
}

// Search matches sections by name and books by name, author or
// description, case-insensitively. An empty query matches nothing.
func (s *Service) Search(query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	result := &SearchResult{Sections: []entities.Section{}, Books: []entities.Book{}}
	if query == "" {
		return result, nil
	}

	sections, err := sectionsdb.NewRepository(s.db).Search(query)
	if err != nil {
		return nil, fmt.Errorf("search sections: %w", err)
	}
	books, err := booksdb.NewRepository(s.db).Search(query)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	result.Sections = sections
	result.Books = books
	return result, nil
}

// Statistics is the librarian dashboard summary.
type Statistics struct {
	Users        int64                   `json:"users"`
	Sections     int64                   `json:"sections"`
	Books        int64                   `json:"books"`
	OpenRequests int64                   `json:"open_requests"`
	ActiveLoans  int64                   `json:"active_loans"`
	Ratings      int64                   `json:"ratings"`
	BookRatings  []ratingsdb.BookAverage `json:"book_ratings"`
}

func (s *Service) Statistics() (*Statistics, error) {
	stats := &Statistics{}
	var err error

	if stats.Users, err = usersdb.NewRepository(s.db).Count(); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.Sections, err = sectionsdb.NewRepository(s.db).Count(); err != nil {
		return nil, fmt.Errorf("count sections: %w", err)
	}
	if stats.Books, err = booksdb.NewRepository(s.db).Count(); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	lendingRepo := lendingdb.NewRepository(s.db)
	if stats.OpenRequests, err = lendingRepo.CountRequests(); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	if stats.ActiveLoans, err = lendingRepo.CountIssues(); err != nil {
		return nil, fmt.Errorf("count issues: %w", err)
	}
	ratingsRepo := ratingsdb.NewRepository(s.db)
	if stats.Ratings, err = ratingsRepo.Count(); err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	if stats.BookRatings, err = ratingsRepo.AverageByBook(); err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}
	return stats, nil
}

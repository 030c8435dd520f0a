// Package ratings implements book reviews: each user may rate a book
// exactly once, with a score of 1 to 5 and a written feedback.
package ratings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	ratingsdb "github.com/mrlokans/librarium/internal/database/ratings"
	"github.com/mrlokans/librarium/internal/entities"
)

var (
	ErrAlreadyRated     = errors.New("you have already rated this book")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrFeedbackRequired = errors.New("feedback must not be empty")
	ErrBookNotFound     = errors.New("book not found")
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RateBook records a user's one-time review of a book. A second rating
// of the same book by the same user is rejected, whatever its score.
func (s *Service) RateBook(userID, bookID uint, rating int, feedback string) (*entities.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrFeedbackRequired
	}

	record := &entities.Rating{
		UserID:   userID,
		BookID:   bookID,
		Rating:   rating,
		Feedback: feedback,
		RatedAt:  s.now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entities.Book{}, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("load book: %w", err)
		}

		repo := ratingsdb.NewRepository(tx)
		if _, err := repo.GetByUserAndBook(userID, bookID); err == nil {
			return ErrAlreadyRated
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing rating: %w", err)
		}

		if err := repo.Create(record); err != nil {
			return fmt.Errorf("create rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BookRatings returns every rating of a book together with its average.
// ok is false when the book has no ratings yet.
func (s *Service) BookRatings(bookID uint) (list []entities.Rating, avg float64, ok bool, err error) {
	if err := s.db.First(&entities.Book{}, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, false, ErrBookNotFound
		}
		return nil, 0, false, err
	}

	repo := ratingsdb.NewRepository(s.db)
	list, err = repo.GetByBook(bookID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("load ratings: %w", err)
	}
	avg, _, ok, err = repo.AverageForBook(bookID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("average rating: %w", err)
	}
	return list, avg, ok, nil
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/ratings"
)

// RatingsController handles one-time book reviews.
type RatingsController struct {
	ratings *ratings.Service
}

func NewRatingsController(ratingsService *ratings.Service) *RatingsController {
	return &RatingsController{ratings: ratingsService}
}

type rateBookRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Feedback string `json:"feedback" binding:"required"`
}

// RateBook handles POST /api/books/:id/ratings
// A user rates each book at most once; ratings are immutable.
func (rc *RatingsController) RateBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req rateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "rating and feedback are required")
		return
	}

	rating, err := rc.ratings.RateBook(GetUserID(c), bookID, req.Rating, req.Feedback)
	switch {
	case errors.Is(err, ratings.ErrBookNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, ratings.ErrInvalidRating), errors.Is(err, ratings.ErrFeedbackRequired):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, ratings.ErrAlreadyRated):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "rate book")
		return
	}

	respondCreated(c, rating)
}

// BookRatings handles GET /api/books/:id/ratings
func (rc *RatingsController) BookRatings(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, avg, rated, err := rc.ratings.BookRatings(bookID)
	if errors.Is(err, ratings.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "list book ratings")
		return
	}

	resp := gin.H{"ratings": list, "count": len(list)}
	if rated {
		resp["average"] = avg
	}
	c.JSON(http.StatusOK, resp)
}

package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/lending"
)

// LendingController handles the borrow workflow: readers request, cancel
// and return books; librarians approve, reject and revoke.
type LendingController struct {
	lending      *lending.Service
	auditService *audit.Service
}

func NewLendingController(lendingService *lending.Service, auditService *audit.Service) *LendingController {
	return &LendingController{
		lending:      lendingService,
		auditService: auditService,
	}
}

type requestBookRequest struct {
	ReturnDate time.Time `json:"return_date" binding:"required"`
}

// RequestBook handles POST /api/books/:id/request
func (lc *LendingController) RequestBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req requestBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "return_date is required (RFC 3339)")
		return
	}

	userID := GetUserID(c)
	request, err := lc.lending.RequestBook(userID, bookID, req.ReturnDate)
	switch {
	case errors.Is(err, lending.ErrBookNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, lending.ErrInvalidReturnDate):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, lending.ErrDuplicateRequest), errors.Is(err, lending.ErrAlreadyIssued):
		respondConflict(c, err.Error())
		return
	case errors.Is(err, lending.ErrQuotaExceeded):
		lc.auditService.LogLending(userID, "request_denied", bookID, "Request denied", err)
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "request book")
		return
	}

	lc.auditService.LogLending(userID, "request", bookID, "Requested book", nil)
	respondCreated(c, request)
}

// CancelRequest handles DELETE /api/books/:id/request
// A reader withdraws their own pending request.
func (lc *LendingController) CancelRequest(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := GetUserID(c)
	err := lc.lending.CancelRequest(userID, bookID)
	if errors.Is(err, lending.ErrRequestNotFound) {
		respondNotFound(c, "request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "cancel request")
		return
	}

	lc.auditService.LogLending(userID, "request_cancel", bookID, "Cancelled request", nil)
	respondSuccess(c, "request cancelled")
}

// ReturnBook handles POST /api/books/:id/return
func (lc *LendingController) ReturnBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := GetUserID(c)
	err := lc.lending.ReturnBook(userID, bookID)
	if errors.Is(err, lending.ErrNotIssued) {
		respondConflict(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "return book")
		return
	}

	lc.auditService.LogLending(userID, "return", bookID, "Returned book", nil)
	respondSuccess(c, "book returned")
}

// MyRequests handles GET /api/me/requests
func (lc *LendingController) MyRequests(c *gin.Context) {
	requests, err := lc.lending.RequestsForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// MyLoans handles GET /api/me/loans
func (lc *LendingController) MyLoans(c *gin.Context) {
	loans, err := lc.lending.IssuesForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// --- Librarian endpoints ---

// SweepOnEntry revokes expired loans before each librarian request so
// listings never show loans that are already past due. The sweep is
// idempotent; failures are logged and never block the request.
func (lc *LendingController) SweepOnEntry() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := lc.lending.RevokeExpired(); err != nil {
			log.Printf("Expiry sweep on admin request failed: %v", err)
		}
		c.Next()
	}
}

// ListRequests handles GET /api/admin/requests
func (lc *LendingController) ListRequests(c *gin.Context) {
	requests, err := lc.lending.AllRequests()
	if err != nil {
		respondInternalError(c, err, "list all requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// ListLoans handles GET /api/admin/loans
func (lc *LendingController) ListLoans(c *gin.Context) {
	loans, err := lc.lending.AllIssues()
	if err != nil {
		respondInternalError(c, err, "list all loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "count": len(loans)})
}

// ApproveRequest handles POST /api/admin/requests/:id/approve
// Atomically turns the request into an active loan.
func (lc *LendingController) ApproveRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := lc.lending.ApproveRequest(requestID)
	switch {
	case errors.Is(err, lending.ErrRequestNotFound):
		respondNotFound(c, "request")
		return
	case errors.Is(err, lending.ErrBookNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, lending.ErrAlreadyIssued):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "approve request")
		return
	}

	lc.auditService.LogLending(issue.UserID, "request_approve", issue.BookID, "Approved request", nil)
	respondCreated(c, issue)
}

// RejectRequest handles POST /api/admin/requests/:id/reject
func (lc *LendingController) RejectRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := lc.lending.RejectRequest(requestID)
	if errors.Is(err, lending.ErrRequestNotFound) {
		respondNotFound(c, "request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "reject request")
		return
	}

	respondSuccess(c, "request rejected")
}

// RevokeLoan handles DELETE /api/admin/loans/:id
// Revokes a loan unconditionally, expired or not.
func (lc *LendingController) RevokeLoan(c *gin.Context) {
	loanID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := lc.lending.RevokeIssued(loanID)
	if errors.Is(err, lending.ErrIssuedBookNotFound) {
		respondNotFound(c, "loan")
		return
	}
	if err != nil {
		respondInternalError(c, err, "revoke loan")
		return
	}

	respondSuccess(c, "loan revoked")
}

// SweepExpired handles POST /api/admin/loans/sweep
// Runs the expiry sweep immediately and reports how many loans it
// revoked. The sweep is idempotent.
func (lc *LendingController) SweepExpired(c *gin.Context) {
	revoked, err := lc.lending.RevokeExpired()
	lc.auditService.LogSweep(revoked, err)
	if err != nil {
		respondInternalError(c, err, "sweep expired loans")
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

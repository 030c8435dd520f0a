package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/catalog"
	"github.com/mrlokans/librarium/internal/lending"
	"github.com/mrlokans/librarium/internal/storage"
	"github.com/mrlokans/librarium/internal/utils"
)

// BooksController handles catalog book management and content download.
type BooksController struct {
	catalog      *catalog.Service
	lending      *lending.Service
	files        *storage.FileStore
	auditService *audit.Service
}

func NewBooksController(catalogService *catalog.Service, lendingService *lending.Service, files *storage.FileStore, auditService *audit.Service) *BooksController {
	return &BooksController{
		catalog:      catalogService,
		lending:      lendingService,
		files:        files,
		auditService: auditService,
	}
}

// ListBooks handles GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.catalog.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.GetBook(id)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	// Detail access mirrors downloads: librarians always pass, readers
	// need an active loan. Denied readers are pointed at the request flow.
	if user := auth.GetUser(c); user != nil {
		allowed, err := bc.lending.CanView(user, id)
		if err != nil {
			respondInternalError(c, err, "check book access")
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error":        "borrow this book to view its details",
				"request_path": fmt.Sprintf("/api/books/%d/request", id),
			})
			return
		}
	}

	c.JSON(http.StatusOK, book)
}

// Search handles GET /api/search?q=
// Matches section names plus book names, authors and descriptions.
func (bc *BooksController) Search(c *gin.Context) {
	query := c.Query("q")

	result, err := bc.catalog.Search(query)
	if err != nil {
		respondInternalError(c, err, "search catalog")
		return
	}

	c.JSON(http.StatusOK, result)
}

var errUnsupportedFileType = errors.New("unsupported book file type")

// openUpload validates and opens an optional multipart file field.
// Only known e-book extensions are accepted.
func openUpload(c *gin.Context) (multipart.File, string, bool, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	if _, ok := utils.BookExtension(header.Filename); !ok {
		return nil, "", false, errUnsupportedFileType
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", false, err
	}
	return f, header.Filename, true, nil
}

// CreateBook handles POST /api/books
// Accepts multipart form data with an optional book file.
func (bc *BooksController) CreateBook(c *gin.Context) {
	sectionID, ok := parseFormID(c, "section_id")
	if !ok {
		return
	}
	name := c.PostForm("name")
	author := c.PostForm("author")
	description := c.PostForm("description")

	file, fileName, hasFile, err := openUpload(c)
	if err != nil {
		if errors.Is(err, errUnsupportedFileType) {
			respondBadRequest(c, err.Error())
		} else {
			respondBadRequest(c, "invalid file upload")
		}
		return
	}
	var content io.Reader
	if hasFile {
		defer file.Close()
		content = file
	}

	book, err := bc.catalog.CreateBook(sectionID, name, author, description, content, fileName)
	switch {
	case errors.Is(err, catalog.ErrNoSections), errors.Is(err, catalog.ErrBookNameEmpty):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, catalog.ErrSectionNotFound):
		respondNotFound(c, "section")
		return
	case err != nil:
		respondInternalError(c, err, "create book")
		return
	}

	bc.auditService.LogCatalog(GetUserID(c), "book_create", "book", book.ID, "Added book "+book.Name)
	respondCreated(c, book)
}

// UpdateBook handles PATCH /api/books/:id
// Accepts multipart form data; a new file replaces the stored one.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sectionID, ok := parseFormID(c, "section_id")
	if !ok {
		return
	}
	name := c.PostForm("name")
	author := c.PostForm("author")
	description := c.PostForm("description")

	file, fileName, hasFile, err := openUpload(c)
	if err != nil {
		if errors.Is(err, errUnsupportedFileType) {
			respondBadRequest(c, err.Error())
		} else {
			respondBadRequest(c, "invalid file upload")
		}
		return
	}
	var content io.Reader
	if hasFile {
		defer file.Close()
		content = file
	}

	book, err := bc.catalog.UpdateBook(id, sectionID, name, author, description, content, fileName)
	switch {
	case errors.Is(err, catalog.ErrBookNotFound):
		respondNotFound(c, "book")
		return
	case errors.Is(err, catalog.ErrSectionNotFound):
		respondNotFound(c, "section")
		return
	case errors.Is(err, catalog.ErrBookNameEmpty):
		respondBadRequest(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "update book")
		return
	}

	bc.auditService.LogCatalog(GetUserID(c), "book_update", "book", book.ID, "Updated book "+book.Name)
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
// Deleting a book also removes its open requests, active loans, ratings
// and the stored file.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := bc.catalog.DeleteBook(id)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	bc.auditService.LogCatalog(GetUserID(c), "book_delete", "book", id, "Deleted book")
	respondSuccess(c, "book deleted")
}

// DownloadBook handles GET /api/books/:id/download
// Content is gated: librarians always pass, readers need an active loan.
func (bc *BooksController) DownloadBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.GetBook(id)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	if user := auth.GetUser(c); user != nil {
		allowed, err := bc.lending.CanView(user, id)
		if err != nil {
			respondInternalError(c, err, "check book access")
			return
		}
		if !allowed {
			respondForbidden(c, "borrow this book before downloading it")
			return
		}
	}

	if book.FileName == "" {
		respondNotFound(c, "book file")
		return
	}

	c.FileAttachment(bc.files.Path(book.FileName), utils.SanitizeFilename(book.Name)+"-"+book.FileName)
}

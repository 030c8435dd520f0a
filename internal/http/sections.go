package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/catalog"
)

// SectionsController handles catalog section management. Mutating
// endpoints are librarian-only, wired behind the admin middleware in the
// router.
type SectionsController struct {
	catalog      *catalog.Service
	auditService *audit.Service
}

func NewSectionsController(catalogService *catalog.Service, auditService *audit.Service) *SectionsController {
	return &SectionsController{
		catalog:      catalogService,
		auditService: auditService,
	}
}

type sectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListSections handles GET /api/sections
func (sc *SectionsController) ListSections(c *gin.Context) {
	sections, err := sc.catalog.ListSections()
	if err != nil {
		respondInternalError(c, err, "list sections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections, "count": len(sections)})
}

// GetSection handles GET /api/sections/:id
func (sc *SectionsController) GetSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	section, err := sc.catalog.GetSection(id)
	if errors.Is(err, catalog.ErrSectionNotFound) {
		respondNotFound(c, "section")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get section")
		return
	}

	c.JSON(http.StatusOK, section)
}

// GetSectionBooks handles GET /api/sections/:id/books
func (sc *SectionsController) GetSectionBooks(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	books, err := sc.catalog.ListBooksBySection(id)
	if errors.Is(err, catalog.ErrSectionNotFound) {
		respondNotFound(c, "section")
		return
	}
	if err != nil {
		respondInternalError(c, err, "list section books")
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// CreateSection handles POST /api/sections
func (sc *SectionsController) CreateSection(c *gin.Context) {
	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	section, err := sc.catalog.CreateSection(req.Name, req.Description)
	switch {
	case errors.Is(err, catalog.ErrSectionNameEmpty):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, catalog.ErrDuplicateSection):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "create section")
		return
	}

	sc.auditService.LogCatalog(GetUserID(c), "section_create", "section", section.ID, "Created section "+section.Name)
	respondCreated(c, section)
}

// UpdateSection handles PATCH /api/sections/:id
func (sc *SectionsController) UpdateSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req sectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	section, err := sc.catalog.UpdateSection(id, req.Name, req.Description)
	switch {
	case errors.Is(err, catalog.ErrSectionNotFound):
		respondNotFound(c, "section")
		return
	case errors.Is(err, catalog.ErrSectionNameEmpty):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, catalog.ErrDuplicateSection):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "update section")
		return
	}

	sc.auditService.LogCatalog(GetUserID(c), "section_update", "section", section.ID, "Updated section "+section.Name)
	c.JSON(http.StatusOK, section)
}

// DeleteSection handles DELETE /api/sections/:id
// Deleting a section cascades to its books, their open requests, active
// loans, ratings and stored files.
func (sc *SectionsController) DeleteSection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := sc.catalog.DeleteSection(id)
	if errors.Is(err, catalog.ErrSectionNotFound) {
		respondNotFound(c, "section")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete section")
		return
	}

	sc.auditService.LogCatalog(GetUserID(c), "section_delete", "section", id, "Deleted section")
	respondSuccess(c, "section deleted")
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/catalog"
)

// StatsController serves the librarian dashboard summary.
type StatsController struct {
	catalog *catalog.Service
}

func NewStatsController(catalogService *catalog.Service) *StatsController {
	return &StatsController{catalog: catalogService}
}

// GetStatistics handles GET /api/admin/stats
func (sc *StatsController) GetStatistics(c *gin.Context) {
	stats, err := sc.catalog.Statistics()
	if err != nil {
		respondInternalError(c, err, "collect statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

package export

import (
	"net/http"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/security"
	"github.com/ahearnzach3/Where2Run/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler serves route downloads.
type Handler struct{}

// NewHandler creates a new export handler
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes registers the export endpoints under /routes/export.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	exports := rg.Group("/routes/export")
	{
		exports.POST("/gpx", h.GPX)
		exports.POST("/geojson", h.GeoJSON)
	}
}

// GPX handles GPX downloads
// @Summary Download a route as GPX
// @Tags Export
// @Accept json
// @Produce application/gpx+xml
// @Param request body validation.PathRequest true "Route path"
// @Success 200 {file} file
// @Failure 400 {object} common.Response
// @Router /api/v1/routes/export/gpx [post]
func (h *Handler) GPX(c *gin.Context) {
	path, name, ok := bindPath(c)
	if !ok {
		return
	}
	data, err := GPX(path, name)
	if common.HandleServiceError(c, err, "failed to export gpx") {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+DefaultGPXFilename+`"`)
	c.Data(http.StatusOK, "application/gpx+xml", data)
}

// GeoJSON handles GeoJSON downloads
// @Summary Download a route as GeoJSON
// @Tags Export
// @Accept json
// @Produce application/geo+json
// @Param request body validation.PathRequest true "Route path"
// @Success 200 {file} file
// @Failure 400 {object} common.Response
// @Router /api/v1/routes/export/geojson [post]
func (h *Handler) GeoJSON(c *gin.Context) {
	path, name, ok := bindPath(c)
	if !ok {
		return
	}
	data, err := GeoJSON(path, name)
	if common.HandleServiceError(c, err, "failed to export geojson") {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+DefaultGeoJSONFilename+`"`)
	c.Data(http.StatusOK, "application/geo+json", data)
}

func bindPath(c *gin.Context) (geo.Path, string, bool) {
	var req validation.PathRequest
	if !common.BindJSON(c, &req) {
		return nil, "", false
	}
	if err := validation.ValidateStruct(&req); err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return nil, "", false
	}
	return PathFromCoordinates(req.Path), security.CleanText(req.Name, 128), true
}

// PathFromCoordinates converts request coordinates to a path.
func PathFromCoordinates(coords []validation.Coordinate) geo.Path {
	path := make(geo.Path, len(coords))
	for i, c := range coords {
		path[i] = geo.Point{Lat: c.Lat, Lng: c.Lng}
	}
	return path
}

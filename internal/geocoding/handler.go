package geocoding

import (
	"errors"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/security"
	"github.com/ahearnzach3/Where2Run/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler serves place search.
type Handler struct {
	service *Service
}

// NewHandler creates a new places handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the places endpoints under /places.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	places := rg.Group("/places")
	{
		places.GET("/autocomplete", h.Autocomplete)
		places.GET("/geocode", h.Geocode)
	}
}

// Autocomplete handles place suggestions
// @Summary Suggest places for a partial query
// @Tags Places
// @Produce json
// @Param q query string true "Partial address or place name"
// @Success 200 {object} common.Response{data=[]Place}
// @Router /api/v1/places/autocomplete [get]
func (h *Handler) Autocomplete(c *gin.Context) {
	var q validation.PlaceQuery
	if !bindQuery(c, &q) {
		return
	}
	places, err := h.service.Suggest(c.Request.Context(), q.Query)
	if err != nil {
		common.AppErrorResponse(c, common.NewUnavailableError("place search is unavailable", err))
		return
	}
	common.SuccessResponse(c, places)
}

// Geocode handles forward geocoding
// @Summary Resolve an address to coordinates
// @Tags Places
// @Produce json
// @Param q query string true "Address or place name"
// @Success 200 {object} common.Response{data=Place}
// @Failure 404 {object} common.Response
// @Router /api/v1/places/geocode [get]
func (h *Handler) Geocode(c *gin.Context) {
	var q validation.PlaceQuery
	if !bindQuery(c, &q) {
		return
	}
	place, err := h.service.Geocode(c.Request.Context(), q.Query)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.AppErrorResponse(c, common.NewNotFoundError("Could not geocode location.", err))
			return
		}
		common.AppErrorResponse(c, common.NewUnavailableError("geocoding is unavailable", err))
		return
	}
	common.SuccessResponse(c, place)
}

func bindQuery(c *gin.Context, q *validation.PlaceQuery) bool {
	if !common.BindQuery(c, q) {
		return false
	}
	q.Query = security.CleanText(q.Query, 256)
	if err := validation.ValidateStruct(q); err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return false
	}
	return true
}

package elevation

import (
	"errors"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler serves elevation profiles.
type Handler struct {
	service *Service
}

// NewHandler creates a new elevation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the elevation endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/elevation/profile", h.Profile)
}

// Profile handles elevation profile requests
// @Summary Elevation profile and run summary for a route
// @Tags Elevation
// @Accept json
// @Produce json
// @Param request body validation.PathRequest true "Route path"
// @Success 200 {object} common.Response{data=Profile}
// @Failure 400 {object} common.Response
// @Failure 502 {object} common.Response
// @Router /api/v1/elevation/profile [post]
func (h *Handler) Profile(c *gin.Context) {
	var req validation.PathRequest
	if !common.BindJSON(c, &req) {
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return
	}

	path := make(geo.Path, len(req.Path))
	for i, p := range req.Path {
		path[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}

	profile, err := h.service.Profile(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, ErrEmptyPath) {
			common.AppErrorResponse(c, common.NewBadRequestError(err.Error(), err))
			return
		}
		common.AppErrorResponse(c, common.NewUnavailableError("elevation data is unavailable", err))
		return
	}
	common.SuccessResponse(c, profile)
}

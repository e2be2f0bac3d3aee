package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahearnzach3/Where2Run/internal/profile"
	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/geo"
	"github.com/ahearnzach3/Where2Run/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Generator is implemented by Service.
type Generator interface {
	DestinationRouter
	Loop(ctx context.Context, req Request) (*Result, error)
	LoopWithDestination(ctx context.Context, req Request) (*Result, error)
	OutAndBack(ctx context.Context, req Request) (*Result, error)
}

// PresetSource resolves preset names to fixed segments.
type PresetSource interface {
	Get(name string) (geo.Path, error)
}

// Handler serves the route generation endpoints.
type Handler struct {
	routes  Generator
	presets PresetSource
}

// NewHandler creates a new routing handler. presets may be nil, in which case
// requests naming a preset are rejected.
func NewHandler(routes Generator, presets PresetSource) *Handler {
	return &Handler{routes: routes, presets: presets}
}

// RegisterRoutes registers the route endpoints under /routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	routes := rg.Group("/routes")
	{
		routes.POST("/loop", h.Loop)
		routes.POST("/loop-destination", h.LoopWithDestination)
		routes.POST("/out-and-back", h.OutAndBack)
		routes.POST("/extended-destination", h.ExtendedDestination)
		routes.POST("/destination", h.Destination)
		routes.POST("/destination-round-trip", h.DestinationRoundTrip)
	}
}

// Loop handles loop route requests
// @Summary Generate a loop route
// @Description Returns a route starting and ending at start whose length is within 0.75 mi of the target
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.LoopRouteRequest true "Loop request"
// @Success 200 {object} common.Response{data=Result}
// @Failure 400 {object} common.Response
// @Failure 422 {object} common.Response
// @Router /api/v1/routes/loop [post]
func (h *Handler) Loop(c *gin.Context) {
	var body validation.LoopRouteRequest
	if !bindAndValidate(c, &body) {
		return
	}
	req, ok := h.loopRequest(c, body)
	if !ok {
		return
	}
	res, err := h.routes.Loop(c.Request.Context(), req)
	respond(c, res, err)
}

// LoopWithDestination handles loop-then-destination requests
// @Summary Generate a loop that visits a destination
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.LoopDestinationRequest true "Loop with destination request"
// @Success 200 {object} common.Response{data=Result}
// @Failure 400 {object} common.Response
// @Failure 422 {object} common.Response
// @Router /api/v1/routes/loop-destination [post]
func (h *Handler) LoopWithDestination(c *gin.Context) {
	var body validation.LoopDestinationRequest
	if !bindAndValidate(c, &body) {
		return
	}
	req, ok := h.loopRequest(c, body.LoopRouteRequest)
	if !ok {
		return
	}
	dest := toPoint(body.Destination)
	req.Destination = &dest

	res, err := h.routes.LoopWithDestination(c.Request.Context(), req)
	respond(c, res, err)
}

// OutAndBack handles directional out-and-back requests
// @Summary Generate an out-and-back route
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.OutAndBackRequest true "Out-and-back request"
// @Success 200 {object} common.Response{data=Result}
// @Failure 400 {object} common.Response
// @Failure 422 {object} common.Response
// @Router /api/v1/routes/out-and-back [post]
func (h *Handler) OutAndBack(c *gin.Context) {
	var body validation.OutAndBackRequest
	if !bindAndValidate(c, &body) {
		return
	}
	env, _ := profile.ParseEnvironment(body.Environment)
	res, err := h.routes.OutAndBack(c.Request.Context(), Request{
		Start:         toPoint(body.Start),
		DistanceMiles: body.DistanceMiles,
		Direction:     body.Direction,
		Environment:   env,
		MaxAttempts:   body.MaxAttempts,
	})
	respond(c, res, err)
}

// ExtendedDestination handles extended destination requests
// @Summary Generate a route of a set length that ends at a destination
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.ExtendedDestinationRequest true "Extended destination request"
// @Success 200 {object} common.Response{data=Result}
// @Failure 400 {object} common.Response
// @Failure 422 {object} common.Response
// @Router /api/v1/routes/extended-destination [post]
func (h *Handler) ExtendedDestination(c *gin.Context) {
	var body validation.ExtendedDestinationRequest
	if !bindAndValidate(c, &body) {
		return
	}
	env, _ := profile.ParseEnvironment(body.Environment)
	dest := toPoint(body.Destination)
	res, err := h.routes.ExtendedDestination(c.Request.Context(), Request{
		Start:         toPoint(body.Start),
		Destination:   &dest,
		DistanceMiles: body.DistanceMiles,
		Environment:   env,
		MaxAttempts:   body.MaxAttempts,
	})
	respond(c, res, err)
}

// Destination handles one-way destination requests
// @Summary Generate a one-way route
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.DestinationRequest true "Destination request"
// @Success 200 {object} common.Response{data=Result}
// @Router /api/v1/routes/destination [post]
func (h *Handler) Destination(c *gin.Context) {
	var body validation.DestinationRequest
	if !bindAndValidate(c, &body) {
		return
	}
	dest := toPoint(body.Destination)
	res, err := h.routes.Destination(c.Request.Context(), Request{Start: toPoint(body.Start), Destination: &dest})
	respond(c, res, err)
}

// DestinationRoundTrip handles destination round trip requests
// @Summary Generate start -> destination -> start
// @Tags Routes
// @Accept json
// @Produce json
// @Param request body validation.DestinationRequest true "Destination request"
// @Success 200 {object} common.Response{data=Result}
// @Router /api/v1/routes/destination-round-trip [post]
func (h *Handler) DestinationRoundTrip(c *gin.Context) {
	var body validation.DestinationRequest
	if !bindAndValidate(c, &body) {
		return
	}
	dest := toPoint(body.Destination)
	res, err := h.routes.DestinationRoundTrip(c.Request.Context(), Request{Start: toPoint(body.Start), Destination: &dest})
	respond(c, res, err)
}

func (h *Handler) loopRequest(c *gin.Context, body validation.LoopRouteRequest) (Request, bool) {
	env, _ := profile.ParseEnvironment(body.Environment)
	req := Request{
		Start:         toPoint(body.Start),
		DistanceMiles: body.DistanceMiles,
		Environment:   env,
		MaxAttempts:   body.MaxAttempts,
	}
	if strings.TrimSpace(body.Preset) == "" {
		return req, true
	}
	if h.presets == nil {
		common.AppErrorResponse(c, common.NewBadRequestError("presets are not available", nil))
		return req, false
	}
	path, err := h.presets.Get(body.Preset)
	if err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError(fmt.Sprintf("unknown preset %q", body.Preset), err))
		return req, false
	}
	req.Preset = path
	return req, true
}

func bindAndValidate(c *gin.Context, obj interface{}) bool {
	if !common.BindJSON(c, obj) {
		return false
	}
	if err := validation.ValidateStruct(obj); err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return false
	}
	return true
}

func respond(c *gin.Context, res *Result, err error) {
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			common.AppErrorResponse(c, common.NewBadRequestError(err.Error(), err))
			return
		}
		common.HandleServiceError(c, err, "failed to generate route")
		return
	}
	if !res.Found() {
		common.AppErrorResponse(c, common.NewUnprocessableError(
			"Could not generate a route. Try a different start point or distance.", ErrNoRoute))
		return
	}

	var closest string
	if res.Status == StatusBestEffort {
		closest = fmt.Sprintf("Closest route found is %.2f mi; requested %.2f mi.",
			res.DistanceMiles, geo.MetersToMiles(res.TargetMeters))
	}
	common.SuccessWithNotices(c, res, res.Notice, closest)
}

func toPoint(c validation.Coordinate) geo.Point {
	return geo.Point{Lat: c.Lat, Lng: c.Lng}
}

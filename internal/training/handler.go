package training

import (
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/common"
	"github.com/ahearnzach3/Where2Run/pkg/validation"
	"github.com/gin-gonic/gin"
)

// Handler serves the training plan.
type Handler struct {
	plan *Plan
	now  func() time.Time
}

// NewHandler creates a new training handler
func NewHandler(plan *Plan) *Handler {
	return &Handler{plan: plan, now: time.Now}
}

// RegisterRoutes registers the training endpoints
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/training/today", h.Today)
}

// Today returns today's workout
// @Summary Today's workout
// @Description Reports the week and day of the plan for a given start date
// @Tags Training
// @Produce json
// @Param start query string true "Plan start date (YYYY-MM-DD)"
// @Success 200 {object} common.Response{data=Status}
// @Failure 400 {object} common.Response
// @Router /api/v1/training/today [get]
func (h *Handler) Today(c *gin.Context) {
	var q validation.TrainingQuery
	if !common.BindQuery(c, &q) {
		return
	}
	if err := validation.ValidateStruct(&q); err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return
	}
	start, err := time.Parse(time.DateOnly, q.Start)
	if err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError("invalid start date", err))
		return
	}
	common.SuccessResponse(c, h.plan.Today(start, h.now()))
}

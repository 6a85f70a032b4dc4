package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeekPlanHandler holds the plan service dependency.
type WeekPlanHandler struct {
	planService service.PlanService
}

// NewWeekPlanHandler creates a new WeekPlanHandler.
func NewWeekPlanHandler(planService service.PlanService) *WeekPlanHandler {
	return &WeekPlanHandler{planService: planService}
}

// --- DTOs ---

// SaveWeekPlanRequest defines the expected JSON for saving a plan snapshot.
// Days maps a day key (e.g. "Mon") to that day's plan.
type SaveWeekPlanRequest struct {
	Name string                    `json:"name"`
	Days map[string]domain.DayPlan `json:"days" binding:"required"`
}

// UpdateWeekPlanRequest defines a partial update; absent fields keep their
// stored values.
type UpdateWeekPlanRequest struct {
	Name *string                   `json:"name"`
	Days map[string]domain.DayPlan `json:"days"`
}

// WeekPlanResponse is the canonical plan representation.
type WeekPlanResponse struct {
	ID        string                    `json:"id"`
	Owner     string                    `json:"owner"`
	Name      string                    `json:"name"`
	Data      map[string]domain.DayPlan `json:"data"`
	CreatedAt time.Time                 `json:"createdAt"`
	IsActive  bool                      `json:"isActive"`
}

// LatestWeekPlanResponse wraps the latest plan; Plan is null when the user
// has no plans, mirroring the WebSocket pull reply.
type LatestWeekPlanResponse struct {
	Plan *WeekPlanResponse `json:"plan"`
}

// MapWeekPlanToResponse converts a domain.WeekPlan to its DTO.
func MapWeekPlanToResponse(plan *domain.WeekPlan) WeekPlanResponse {
	if plan == nil {
		return WeekPlanResponse{}
	}
	return WeekPlanResponse{
		ID:        plan.ID.Hex(),
		Owner:     plan.OwnerID.Hex(),
		Name:      plan.Name,
		Data:      plan.Data,
		CreatedAt: plan.CreatedAt,
		IsActive:  plan.IsActive,
	}
}

// MapWeekPlansToResponse converts a slice of domain.WeekPlan to DTOs.
func MapWeekPlansToResponse(plans []domain.WeekPlan) []WeekPlanResponse {
	responses := make([]WeekPlanResponse, len(plans))
	for i, plan := range plans {
		responses[i] = MapWeekPlanToResponse(&plan)
	}
	return responses
}

// --- Handler Methods ---

// ListWeekPlans returns the authenticated user's plans, newest first.
func (h *WeekPlanHandler) ListWeekPlans(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), ownerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve week plans.")
		return
	}
	c.JSON(http.StatusOK, MapWeekPlansToResponse(plans))
}

// CreateWeekPlan saves a new plan snapshot for the authenticated user.
func (h *WeekPlanHandler) CreateWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	var req SaveWeekPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.SavePlan(c.Request.Context(), ownerID, req.Name, req.Days)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, "Validation error: days must be a non-empty mapping of day plans")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save week plan.")
		}
		return
	}
	c.JSON(http.StatusCreated, MapWeekPlanToResponse(plan))
}

// GetLatestWeekPlan returns the most recent snapshot, or a null plan when
// the user has none. The empty case is not an error.
func (h *WeekPlanHandler) GetLatestWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetLatest(c.Request.Context(), ownerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve latest week plan.")
		return
	}
	if plan == nil {
		c.JSON(http.StatusOK, LatestWeekPlanResponse{Plan: nil})
		return
	}
	resp := MapWeekPlanToResponse(plan)
	c.JSON(http.StatusOK, LatestWeekPlanResponse{Plan: &resp})
}

// GetActiveWeekPlan returns the plan currently marked active, 404 when the
// user never activated one.
func (h *WeekPlanHandler) GetActiveWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetActive(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "No active week plan found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active week plan.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWeekPlanToResponse(plan))
}

// GetWeekPlan returns one plan by id, scoped to the authenticated user.
func (h *WeekPlanHandler) GetWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	planID, ok := planIDFromParam(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), ownerID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "Week plan not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve week plan.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWeekPlanToResponse(plan))
}

// UpdateWeekPlan applies a partial update to a plan's name and/or data.
func (h *WeekPlanHandler) UpdateWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	planID, ok := planIDFromParam(c)
	if !ok {
		return
	}

	var req UpdateWeekPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), ownerID, planID, req.Name, req.Days)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, "Validation error: days must be a non-empty mapping of day plans")
		} else if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "Week plan not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update week plan.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWeekPlanToResponse(plan))
}

// SetActiveWeekPlan marks one plan active and deactivates the rest.
func (h *WeekPlanHandler) SetActiveWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	planID, ok := planIDFromParam(c)
	if !ok {
		return
	}

	plan, err := h.planService.SetActive(c.Request.Context(), ownerID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "Week plan not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to activate week plan.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWeekPlanToResponse(plan))
}

// DeleteWeekPlan removes a plan.
func (h *WeekPlanHandler) DeleteWeekPlan(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	planID, ok := planIDFromParam(c)
	if !ok {
		return
	}

	err := h.planService.DeletePlan(c.Request.Context(), ownerID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, "Week plan not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete week plan.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// planIDFromParam parses the :id path parameter. A malformed id can address
// nothing, so it reads as not found rather than a validation failure.
func planIDFromParam(c *gin.Context) (primitive.ObjectID, bool) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Week plan not found.")
		return primitive.NilObjectID, false
	}
	return planID, true
}

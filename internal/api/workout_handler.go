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

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type ExerciseRequest struct {
	Name   string  `json:"name" binding:"required"`
	Sets   int     `json:"sets" binding:"required,min=1"`
	Reps   int     `json:"reps" binding:"required,min=1"`
	Weight float64 `json:"weight"`
}

type WorkoutRequest struct {
	Name      string            `json:"name" binding:"required"`
	Exercises []ExerciseRequest `json:"exercises"`
}

type WorkoutResponse struct {
	ID        string            `json:"id"`
	Owner     string            `json:"owner"`
	Name      string            `json:"name"`
	Exercises []domain.Exercise `json:"exercises"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// MapWorkoutToResponse converts a domain.Workout to its DTO.
func MapWorkoutToResponse(workout *domain.Workout) WorkoutResponse {
	if workout == nil {
		return WorkoutResponse{}
	}
	return WorkoutResponse{
		ID:        workout.ID.Hex(),
		Owner:     workout.OwnerID.Hex(),
		Name:      workout.Name,
		Exercises: workout.Exercises,
		CreatedAt: workout.CreatedAt,
		UpdatedAt: workout.UpdatedAt,
	}
}

// MapWorkoutsToResponse converts a slice of domain.Workout to DTOs.
func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i, workout := range workouts {
		responses[i] = MapWorkoutToResponse(&workout)
	}
	return responses
}

func mapExerciseRequests(reqs []ExerciseRequest) []domain.Exercise {
	exercises := make([]domain.Exercise, len(reqs))
	for i, req := range reqs {
		exercises[i] = domain.Exercise{
			Name:   req.Name,
			Sets:   req.Sets,
			Reps:   req.Reps,
			Weight: req.Weight,
		}
	}
	return exercises
}

// --- Handler Methods ---

// ListWorkouts returns the authenticated user's workouts, newest first.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), ownerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// CreateWorkout records a new workout for the authenticated user.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), ownerID, req.Name, mapExerciseRequests(req.Exercises))
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create workout.")
		}
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// GetWorkout returns one workout by id, scoped to the authenticated user.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	workoutID, ok := workoutIDFromParam(c)
	if !ok {
		return
	}

	workout, err := h.workoutService.GetWorkout(c.Request.Context(), ownerID, workoutID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// UpdateWorkout replaces a workout's name and exercises.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	workoutID, ok := workoutIDFromParam(c)
	if !ok {
		return
	}

	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), ownerID, workoutID, req.Name, mapExerciseRequests(req.Exercises))
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found.")
		} else if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update workout.")
		}
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// DeleteWorkout removes a workout.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return
	}
	workoutID, ok := workoutIDFromParam(c)
	if !ok {
		return
	}

	err := h.workoutService.DeleteWorkout(c.Request.Context(), ownerID, workoutID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutNotFound) {
			abortWithError(c, http.StatusNotFound, "Workout not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete workout.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func workoutIDFromParam(c *gin.Context) (primitive.ObjectID, bool) {
	workoutID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Workout not found.")
		return primitive.NilObjectID, false
	}
	return workoutID, true
}

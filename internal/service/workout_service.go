package service

import (
	"context"
	"errors"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound = errors.New("workout not found")
)

// --- Service Interface ---
type WorkoutService interface {
	CreateWorkout(ctx context.Context, ownerID primitive.ObjectID, name string, exercises []domain.Exercise) (*domain.Workout, error)
	GetWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListWorkouts(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Workout, error)
	UpdateWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID, name string, exercises []domain.Exercise) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) error
}

// --- Service Implementation ---

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
	}
}

// CreateWorkout handles the creation of a new workout for a user.
func (s *workoutService) CreateWorkout(ctx context.Context, ownerID primitive.ObjectID, name string, exercises []domain.Exercise) (*domain.Workout, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required to create a workout")
	}

	workout := &domain.Workout{
		OwnerID:   ownerID,
		Name:      name,
		Exercises: exercises,
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	// Fetch again to get repository-populated fields
	return s.workoutRepo.GetByOwnerAndID(ctx, ownerID, workoutID)
}

// GetWorkout retrieves a single workout, scoped by owner.
func (s *workoutService) GetWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByOwnerAndID(ctx, ownerID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// ListWorkouts retrieves all workouts for a user, newest first.
func (s *workoutService) ListWorkouts(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Workout, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID cannot be nil")
	}
	return s.workoutRepo.ListByOwner(ctx, ownerID)
}

// UpdateWorkout handles updating an existing workout, ensuring ownership.
func (s *workoutService) UpdateWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID, name string, exercises []domain.Exercise) (*domain.Workout, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}

	existing, err := s.workoutRepo.GetByOwnerAndID(ctx, ownerID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	existing.Name = name
	if exercises != nil {
		existing.Exercises = exercises
	}

	err = s.workoutRepo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteWorkout handles deleting a workout, ensuring ownership.
func (s *workoutService) DeleteWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) error {
	// The repository's Delete filter carries the owner, so ownership is
	// enforced at the store level.
	err := s.workoutRepo.Delete(ctx, ownerID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	return nil
}

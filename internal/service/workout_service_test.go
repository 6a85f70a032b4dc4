package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"
	"overload/workout-backend/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeWorkoutRepo is an in-memory repository.WorkoutRepository.
type fakeWorkoutRepo struct {
	mu       sync.Mutex
	workouts map[primitive.ObjectID]domain.Workout
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]domain.Workout)}
}

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	workout.CreatedAt = time.Now().UTC()
	workout.UpdatedAt = workout.CreatedAt
	r.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByOwnerAndID(_ context.Context, ownerID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout, ok := r.workouts[workoutID]
	if !ok || workout.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	w := workout
	return &w, nil
}

func (r *fakeWorkoutRepo) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Workout
	for _, workout := range r.workouts {
		if workout.OwnerID == ownerID {
			result = append(result, workout)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workouts[workout.ID]
	if !ok || existing.OwnerID != workout.OwnerID {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = time.Now().UTC()
	r.workouts[workout.ID] = *workout
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, ownerID, workoutID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout, ok := r.workouts[workoutID]
	if !ok || workout.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.workouts, workoutID)
	return nil
}

func sampleExercises() []domain.Exercise {
	return []domain.Exercise{
		{Name: "Squat", Sets: 5, Reps: 5, Weight: 100},
		{Name: "Deadlift", Sets: 1, Reps: 5, Weight: 140},
	}
}

func TestCreateAndGetWorkout(t *testing.T) {
	t.Parallel()
	svc := service.NewWorkoutService(newFakeWorkoutRepo())
	owner := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.CreateWorkout(ctx, owner, "Lower Body", sampleExercises())
	if err != nil {
		t.Fatalf("CreateWorkout returned error: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("created workout has no ID")
	}
	if len(created.Exercises) != 2 {
		t.Errorf("created workout has %d exercises, want 2", len(created.Exercises))
	}

	got, err := svc.GetWorkout(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("GetWorkout returned error: %v", err)
	}
	if got.Name != "Lower Body" {
		t.Errorf("workout name = %q", got.Name)
	}
}

func TestCreateWorkoutValidation(t *testing.T) {
	t.Parallel()
	svc := service.NewWorkoutService(newFakeWorkoutRepo())

	_, err := svc.CreateWorkout(context.Background(), primitive.NewObjectID(), "", nil)
	if !errors.Is(err, service.ErrValidationFailed) {
		t.Errorf("CreateWorkout with empty name error = %v, want ErrValidationFailed", err)
	}
}

func TestWorkoutsAreOwnerScoped(t *testing.T) {
	t.Parallel()
	svc := service.NewWorkoutService(newFakeWorkoutRepo())
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	created, err := svc.CreateWorkout(ctx, alice, "Alice Session", sampleExercises())
	if err != nil {
		t.Fatalf("CreateWorkout returned error: %v", err)
	}

	if _, err := svc.GetWorkout(ctx, bob, created.ID); !errors.Is(err, service.ErrWorkoutNotFound) {
		t.Errorf("GetWorkout across owners error = %v, want ErrWorkoutNotFound", err)
	}
	if err := svc.DeleteWorkout(ctx, bob, created.ID); !errors.Is(err, service.ErrWorkoutNotFound) {
		t.Errorf("DeleteWorkout across owners error = %v, want ErrWorkoutNotFound", err)
	}

	workouts, err := svc.ListWorkouts(ctx, bob)
	if err != nil {
		t.Fatalf("ListWorkouts returned error: %v", err)
	}
	if len(workouts) != 0 {
		t.Errorf("other owner sees %d workouts, want 0", len(workouts))
	}
}

func TestUpdateWorkout(t *testing.T) {
	t.Parallel()
	svc := service.NewWorkoutService(newFakeWorkoutRepo())
	owner := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.CreateWorkout(ctx, owner, "Lower Body", sampleExercises())
	if err != nil {
		t.Fatalf("CreateWorkout returned error: %v", err)
	}

	updated, err := svc.UpdateWorkout(ctx, owner, created.ID, "Leg Day", []domain.Exercise{
		{Name: "Front Squat", Sets: 3, Reps: 8, Weight: 70},
	})
	if err != nil {
		t.Fatalf("UpdateWorkout returned error: %v", err)
	}
	if updated.Name != "Leg Day" {
		t.Errorf("updated name = %q", updated.Name)
	}
	if len(updated.Exercises) != 1 || updated.Exercises[0].Name != "Front Squat" {
		t.Errorf("updated exercises = %v", updated.Exercises)
	}

	_, err = svc.UpdateWorkout(ctx, owner, primitive.NewObjectID(), "Ghost", nil)
	if !errors.Is(err, service.ErrWorkoutNotFound) {
		t.Errorf("UpdateWorkout of missing workout error = %v, want ErrWorkoutNotFound", err)
	}
}

func TestDeleteWorkout(t *testing.T) {
	t.Parallel()
	svc := service.NewWorkoutService(newFakeWorkoutRepo())
	owner := primitive.NewObjectID()
	ctx := context.Background()

	created, err := svc.CreateWorkout(ctx, owner, "Lower Body", sampleExercises())
	if err != nil {
		t.Fatalf("CreateWorkout returned error: %v", err)
	}
	if err := svc.DeleteWorkout(ctx, owner, created.ID); err != nil {
		t.Fatalf("DeleteWorkout returned error: %v", err)
	}
	if _, err := svc.GetWorkout(ctx, owner, created.ID); !errors.Is(err, service.ErrWorkoutNotFound) {
		t.Errorf("GetWorkout after delete error = %v, want ErrWorkoutNotFound", err)
	}
}

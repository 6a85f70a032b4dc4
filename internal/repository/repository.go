package repository

import (
	"context"

	"overload/workout-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// WeekPlanUpdate carries the fields of a partial week plan update.
// Nil fields are left untouched on the stored document.
type WeekPlanUpdate struct {
	Name *string
	Data map[string]domain.DayPlan
}

// WeekPlanRepository defines the interface for interacting with week plan
// snapshots. Every operation filters by owner: a caller can never address
// another user's plan by id — the wrong owner yields ErrNotFound, the same
// as an absent id, so existence is not leaked.
type WeekPlanRepository interface {
	Create(ctx context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error)
	GetByOwnerAndID(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error)
	// ListByOwner returns the owner's plans ordered by createdAt, newest first.
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WeekPlan, error)
	GetLatestByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error)
	GetActiveByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error)
	Update(ctx context.Context, ownerID, planID primitive.ObjectID, update WeekPlanUpdate) (*domain.WeekPlan, error)
	// SetActive deactivates every other plan of the owner and activates the
	// given one. Callers serialize concurrent activations per owner.
	SetActive(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error)
	Delete(ctx context.Context, ownerID, planID primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByOwnerAndID(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*domain.Workout, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, ownerID, workoutID primitive.ObjectID) error
}

package service

import (
	"context"
	"errors"
	"sync"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("week plan not found")
	ErrValidationFailed = errors.New("week plan validation failed")
)

// PlanNotifier receives the canonical plan payload after every plan
// mutation. A nil plan means the owner no longer has any plan. Publishing is
// fire-and-forget; implementations must never fail the calling request.
type PlanNotifier interface {
	Publish(ownerID string, plan *domain.WeekPlan)
}

// --- Service Interface ---
type PlanService interface {
	// SavePlan appends a new immutable snapshot for the owner. It never
	// upserts: saving twice yields two plans, the newer one being "latest".
	SavePlan(ctx context.Context, ownerID primitive.ObjectID, name string, days map[string]domain.DayPlan) (*domain.WeekPlan, error)
	// GetLatest returns the owner's most recent snapshot, or (nil, nil)
	// when the owner has no plans. The empty case is not an error.
	GetLatest(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error)
	ListPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WeekPlan, error)
	GetPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error)
	UpdatePlan(ctx context.Context, ownerID, planID primitive.ObjectID, name *string, days map[string]domain.DayPlan) (*domain.WeekPlan, error)
	// SetActive marks one plan active and deactivates every other plan of
	// the owner. Concurrent activations for one owner serialize; exactly one
	// plan ends up active.
	SetActive(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error)
	// GetActive returns the currently active plan, or ErrPlanNotFound if the
	// owner never activated one.
	GetActive(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error)
	DeletePlan(ctx context.Context, ownerID, planID primitive.ObjectID) error
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	planRepo repository.WeekPlanRepository
	notifier PlanNotifier

	// activeLocks holds one mutex per owner, the critical section around the
	// repository's deactivate-and-activate pair.
	activeLocks sync.Map // primitive.ObjectID -> *sync.Mutex
}

// NewPlanService creates a new instance of planService. The notifier may be
// nil, in which case mutations are not broadcast.
func NewPlanService(planRepo repository.WeekPlanRepository, notifier PlanNotifier) PlanService {
	return &planService{
		planRepo: planRepo,
		notifier: notifier,
	}
}

// SavePlan normalizes the incoming day payloads into the canonical data
// document and appends a new snapshot.
func (s *planService) SavePlan(ctx context.Context, ownerID primitive.ObjectID, name string, days map[string]domain.DayPlan) (*domain.WeekPlan, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required to save a plan")
	}
	data, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = domain.DefaultPlanName
	}

	plan := &domain.WeekPlan{
		OwnerID: ownerID,
		Name:    name,
		Data:    data,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}

	created, err := s.planRepo.GetByOwnerAndID(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	s.publish(ownerID, created)
	return created, nil
}

// GetLatest resolves the owner's most recent plan by creation time.
func (s *planService) GetLatest(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	plan, err := s.planRepo.GetLatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans retrieves all of the owner's plans, newest first.
func (s *planService) ListPlans(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WeekPlan, error) {
	return s.planRepo.ListByOwner(ctx, ownerID)
}

// GetPlan retrieves a single plan, scoped by owner.
func (s *planService) GetPlan(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	plan, err := s.planRepo.GetByOwnerAndID(ctx, ownerID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// UpdatePlan applies a partial update; fields not supplied keep their stored
// values. Owner and creation time are immutable.
func (s *planService) UpdatePlan(ctx context.Context, ownerID, planID primitive.ObjectID, name *string, days map[string]domain.DayPlan) (*domain.WeekPlan, error) {
	update := repository.WeekPlanUpdate{}
	if name != nil {
		n := *name
		if n == "" {
			n = domain.DefaultPlanName
		}
		update.Name = &n
	}
	if days != nil {
		data, err := normalizeDays(days)
		if err != nil {
			return nil, err
		}
		update.Data = data
	}

	plan, err := s.planRepo.Update(ctx, ownerID, planID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	s.publish(ownerID, plan)
	return plan, nil
}

// SetActive marks one plan active for the owner. The per-owner mutex keeps
// the deactivate-and-activate pair serialized against concurrent
// activations, so there is never a moment with two active plans.
func (s *planService) SetActive(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := s.planRepo.SetActive(ctx, ownerID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	s.publish(ownerID, plan)
	return plan, nil
}

// GetActive retrieves the owner's currently active plan.
func (s *planService) GetActive(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	plan, err := s.planRepo.GetActiveByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// DeletePlan removes a plan and publishes the owner's new latest plan so
// connected clients converge without polling. The published plan is nil when
// the owner has no plans left.
func (s *planService) DeletePlan(ctx context.Context, ownerID, planID primitive.ObjectID) error {
	err := s.planRepo.Delete(ctx, ownerID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	latest, err := s.GetLatest(ctx, ownerID)
	if err != nil {
		// The delete itself succeeded; a failed follow-up read only costs
		// the broadcast.
		return nil
	}
	s.publish(ownerID, latest)
	return nil
}

func (s *planService) ownerLock(ownerID primitive.ObjectID) *sync.Mutex {
	lock, _ := s.activeLocks.LoadOrStore(ownerID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *planService) publish(ownerID primitive.ObjectID, plan *domain.WeekPlan) {
	if s.notifier != nil {
		s.notifier.Publish(ownerID.Hex(), plan)
	}
}

// normalizeDays turns the incoming day payloads into the canonical data
// document: the mapping must be non-empty, and nil exercise lists become
// empty ones so clients always see an array.
func normalizeDays(days map[string]domain.DayPlan) (map[string]domain.DayPlan, error) {
	if len(days) == 0 {
		return nil, ErrValidationFailed
	}
	data := make(map[string]domain.DayPlan, len(days))
	for key, day := range days {
		if day.Exercises == nil {
			day.Exercises = []map[string]any{}
		}
		data[key] = day
	}
	return data, nil
}

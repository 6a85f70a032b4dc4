// Package memory provides in-memory repository implementations used by
// tests and local development. They hold the same contracts as the mongo
// repositories, including owner scoping and newest-first ordering.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRecord struct {
	plan domain.WeekPlan
	seq  int64 // insertion order, tiebreaker for equal timestamps
}

// WeekPlanRepository is a mutex-guarded in-memory implementation of
// repository.WeekPlanRepository.
type WeekPlanRepository struct {
	mu      sync.Mutex
	plans   map[primitive.ObjectID]*planRecord
	nextSeq int64
}

// NewWeekPlanRepository creates an empty in-memory plan store.
func NewWeekPlanRepository() *WeekPlanRepository {
	return &WeekPlanRepository{
		plans: make(map[primitive.ObjectID]*planRecord),
	}
}

func (r *WeekPlanRepository) Create(_ context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	r.nextSeq++
	stored := *plan
	r.plans[plan.ID] = &planRecord{plan: stored, seq: r.nextSeq}
	return plan.ID, nil
}

func (r *WeekPlanRepository) GetByOwnerAndID(_ context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(ownerID, planID)
}

// getLocked looks up a plan; callers hold the mutex. The wrong owner yields
// ErrNotFound exactly like an absent id.
func (r *WeekPlanRepository) getLocked(ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	rec, ok := r.plans[planID]
	if !ok || rec.plan.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	plan := rec.plan
	return &plan, nil
}

func (r *WeekPlanRepository) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]domain.WeekPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*planRecord, 0)
	for _, rec := range r.plans {
		if rec.plan.OwnerID == ownerID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].plan.CreatedAt.Equal(records[j].plan.CreatedAt) {
			return records[i].plan.CreatedAt.After(records[j].plan.CreatedAt)
		}
		return records[i].seq > records[j].seq
	})

	plans := make([]domain.WeekPlan, len(records))
	for i, rec := range records {
		plans[i] = rec.plan
	}
	return plans, nil
}

func (r *WeekPlanRepository) GetLatestByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	plans, err := r.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, repository.ErrNotFound
	}
	plan := plans[0]
	return &plan, nil
}

func (r *WeekPlanRepository) GetActiveByOwner(_ context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.plans {
		if rec.plan.OwnerID == ownerID && rec.plan.IsActive {
			plan := rec.plan
			return &plan, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *WeekPlanRepository) Update(_ context.Context, ownerID, planID primitive.ObjectID, update repository.WeekPlanUpdate) (*domain.WeekPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.plans[planID]
	if !ok || rec.plan.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	if update.Name != nil {
		rec.plan.Name = *update.Name
	}
	if update.Data != nil {
		rec.plan.Data = update.Data
	}
	plan := rec.plan
	return &plan, nil
}

func (r *WeekPlanRepository) SetActive(_ context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.plans[planID]
	if !ok || target.plan.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	for _, rec := range r.plans {
		if rec.plan.OwnerID == ownerID {
			rec.plan.IsActive = false
		}
	}
	target.plan.IsActive = true
	plan := target.plan
	return &plan, nil
}

func (r *WeekPlanRepository) Delete(_ context.Context, ownerID, planID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.plans[planID]
	if !ok || rec.plan.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.plans, planID)
	return nil
}

// internal/domain/week_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPlanName is used when a plan is saved without a name.
const DefaultPlanName = "Unnamed Plan"

// DayPlan is the per-day document stored inside WeekPlan.Data.
// Exercise entries are kept as free-form documents; clients own their shape
// (typically name/sets/reps/weight) and the backend only stores them.
type DayPlan struct {
	Name      string           `bson:"name" json:"name"`
	IsRest    bool             `bson:"isRest" json:"isRest"`
	Exercises []map[string]any `bson:"exercises" json:"exercises"`
}

// WeekPlan is one saved snapshot of a user's weekly schedule.
// Snapshots are append-only: OwnerID and CreatedAt never change after
// creation. Name, Data and IsActive change only through explicit updates,
// and at most one plan per owner is active at a time.
type WeekPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"owner"`
	Name      string             `bson:"name" json:"name"`
	Data      map[string]DayPlan `bson:"data" json:"data"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
}

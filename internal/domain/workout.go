package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a single exercise inside a workout: name plus the set scheme.
type Exercise struct {
	Name   string  `bson:"name" json:"name"`
	Sets   int     `bson:"sets" json:"sets"`
	Reps   int     `bson:"reps" json:"reps"`
	Weight float64 `bson:"weight" json:"weight"` // lbs or kg, client's choice
}

// Workout represents a single logged workout session with its exercises
// embedded. Like week plans, workouts belong to exactly one owner and every
// query is scoped by OwnerID.
type Workout struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"owner"`
	Name      string             `bson:"name" json:"name"` // e.g., "Leg Day"
	Exercises []Exercise         `bson:"exercises" json:"exercises"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

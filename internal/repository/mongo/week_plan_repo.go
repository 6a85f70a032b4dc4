// internal/repository/mongo/week_plan_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"overload/workout-backend/internal/domain"
	"overload/workout-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weekPlanCollectionName = "week_plans"

// mongoWeekPlanRepository implements repository.WeekPlanRepository
type mongoWeekPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoWeekPlanRepository creates a new WeekPlan repository.
func NewMongoWeekPlanRepository(db *mongo.Database) repository.WeekPlanRepository {
	return &mongoWeekPlanRepository{
		collection: db.Collection(weekPlanCollectionName),
	}
}

// Create inserts a new week plan snapshot. OwnerID and CreatedAt are fixed
// here and never touched again.
func (r *mongoWeekPlanRepository) Create(ctx context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error) {
	if plan.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("week plan requires an owner")
	}
	if plan.Data == nil {
		return primitive.NilObjectID, errors.New("week plan requires a data document")
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByOwnerAndID retrieves a single plan. The filter carries the owner, so
// an id belonging to someone else comes back as ErrNotFound.
func (r *mongoWeekPlanRepository) GetByOwnerAndID(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	var plan domain.WeekPlan
	filter := bson.M{"_id": planID, "ownerId": ownerID}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByOwner retrieves all plans for an owner, newest first.
func (r *mongoWeekPlanRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.WeekPlan, error) {
	var plans []domain.WeekPlan
	filter := bson.M{"ownerId": ownerID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Return empty slice if no plans found (not an error)
	return plans, nil
}

// GetLatestByOwner retrieves the owner's most recent snapshot.
func (r *mongoWeekPlanRepository) GetLatestByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	var plan domain.WeekPlan
	filter := bson.M{"ownerId": ownerID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByOwner retrieves the plan currently flagged active for the owner.
func (r *mongoWeekPlanRepository) GetActiveByOwner(ctx context.Context, ownerID primitive.ObjectID) (*domain.WeekPlan, error) {
	var plan domain.WeekPlan
	filter := bson.M{"ownerId": ownerID, "isActive": true}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update applies a partial update. Only the fields present in the update are
// written; ownerId and createdAt are never part of the $set document.
func (r *mongoWeekPlanRepository) Update(ctx context.Context, ownerID, planID primitive.ObjectID, update repository.WeekPlanUpdate) (*domain.WeekPlan, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Data != nil {
		set["data"] = update.Data
	}
	if len(set) == 0 {
		// Nothing to change; hand back the current document.
		return r.GetByOwnerAndID(ctx, ownerID, planID)
	}

	filter := bson.M{"_id": planID, "ownerId": ownerID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan domain.WeekPlan
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// SetActive flips the owner's active flag to the given plan: every other
// plan of the owner is deactivated and the target activated. Concurrent
// activations for the same owner are serialized by the service layer.
func (r *mongoWeekPlanRepository) SetActive(ctx context.Context, ownerID, planID primitive.ObjectID) (*domain.WeekPlan, error) {
	// Verify the target exists (and is the owner's) before touching anything,
	// so a bad id cannot leave the owner with no active plan.
	if _, err := r.GetByOwnerAndID(ctx, ownerID, planID); err != nil {
		return nil, err
	}

	deactivate := bson.M{
		"ownerId":  ownerID,
		"isActive": true,
		"_id":      bson.M{"$ne": planID},
	}
	if _, err := r.collection.UpdateMany(ctx, deactivate, bson.M{"$set": bson.M{"isActive": false}}); err != nil {
		return nil, err
	}

	filter := bson.M{"_id": planID, "ownerId": ownerID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan domain.WeekPlan
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"isActive": true}}, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Delete removes a plan, scoped by owner.
func (r *mongoWeekPlanRepository) Delete(ctx context.Context, ownerID, planID primitive.ObjectID) error {
	filter := bson.M{"_id": planID, "ownerId": ownerID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Either the plan never existed or it belongs to someone else;
		// the two cases are deliberately indistinguishable.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWeekPlanIndexes creates necessary indexes. Call during startup.
func EnsureWeekPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The recency queries: list-by-owner and latest.
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Active plan lookup.
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

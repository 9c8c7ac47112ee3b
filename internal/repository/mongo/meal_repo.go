package mongo

import (
	"context"
	"errors"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mealCollectionName = "meals"

// mongoMealRepository implements repository.MealRepository.
type mongoMealRepository struct {
	collection *mongo.Collection
}

// NewMongoMealRepository creates a new meal repository.
func NewMongoMealRepository(db *mongo.Database) repository.MealRepository {
	return &mongoMealRepository{collection: db.Collection(mealCollectionName)}
}

// Create inserts a new meal.
func (r *mongoMealRepository) Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	if meal.UserID.IsZero() || meal.Name == "" {
		return primitive.NilObjectID, errors.New("meal user ID and name are required")
	}

	meal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, meal); err != nil {
		return primitive.NilObjectID, err
	}
	return meal.ID, nil
}

// GetByID retrieves a meal owned by userID.
func (r *mongoMealRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Meal, error) {
	var meal domain.Meal
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&meal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &meal, nil
}

// Update overwrites the mutable fields of a meal.
func (r *mongoMealRepository) Update(ctx context.Context, meal *domain.Meal) error {
	meal.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": meal.ID, "userId": meal.UserID}
	update := bson.M{
		"$set": bson.M{
			"name":        meal.Name,
			"description": meal.Description,
			"mealType":    meal.MealType,
			"consumedAt":  meal.ConsumedAt,
			"calories":    meal.Calories,
			"proteinG":    meal.ProteinG,
			"carbsG":      meal.CarbsG,
			"fatG":        meal.FatG,
			"fiberG":      meal.FiberG,
			"notes":       meal.Notes,
			"photo":       meal.Photo,
			"updatedAt":   meal.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a meal owned by userID.
func (r *mongoMealRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByRange returns meals consumed within [from, to], newest first.
func (r *mongoMealRepository) ListByRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time, limit int) ([]domain.Meal, error) {
	filter := bson.M{
		"userId":     userID,
		"consumedAt": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "consumedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	meals := []domain.Meal{}
	if err = cursor.All(ctx, &meals); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return meals, nil
}

// CountByUser returns the number of meals a user has ever logged.
func (r *mongoMealRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID})
}

// EnsureMealIndexes creates the (userId, consumedAt) index used by day queries.
func EnsureMealIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "consumedAt", Value: -1}},
			Options: options.Index(),
		},
	})
}

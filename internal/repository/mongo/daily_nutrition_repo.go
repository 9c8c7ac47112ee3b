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

const dailyNutritionCollectionName = "daily_nutrition"

type mongoDailyNutritionRepository struct {
	collection *mongo.Collection
}

// NewMongoDailyNutritionRepository creates a new aggregate repository.
func NewMongoDailyNutritionRepository(db *mongo.Database) repository.DailyNutritionRepository {
	return &mongoDailyNutritionRepository{collection: db.Collection(dailyNutritionCollectionName)}
}

// Upsert replaces the totals of the (userId, date) row, inserting it if absent.
func (r *mongoDailyNutritionRepository) Upsert(ctx context.Context, daily *domain.DailyNutrition) error {
	daily.UpdatedAt = time.Now().UTC()

	filter := bson.M{"userId": daily.UserID, "date": daily.Date}
	update := bson.M{
		"$set": bson.M{
			"totalCalories": daily.TotalCalories,
			"totalProteinG": daily.TotalProteinG,
			"totalCarbsG":   daily.TotalCarbsG,
			"totalFatG":     daily.TotalFatG,
			"mealsCount":    daily.MealsCount,
			"updatedAt":     daily.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.DailyNutrition
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	// Two concurrent upserts of a missing key can both try to insert; the
	// loser hits the unique index and retries as a plain update.
	if mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return err
	}
	daily.ID = stored.ID
	return nil
}

// GetByDate returns the row of the day starting at date.
func (r *mongoDailyNutritionRepository) GetByDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.DailyNutrition, error) {
	var daily domain.DailyNutrition
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "date": date}).Decode(&daily)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &daily, nil
}

// ListRange returns rows dated within [from, to], oldest first.
func (r *mongoDailyNutritionRepository) ListRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.DailyNutrition, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	days := []domain.DailyNutrition{}
	if err = cursor.All(ctx, &days); err != nil {
		return nil, err
	}
	return days, cursor.Err()
}

// EnsureDailyNutritionIndexes enforces one aggregate per user per day.
func EnsureDailyNutritionIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

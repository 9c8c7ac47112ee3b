package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const groceryCollectionName = "grocery_items"

// mongoGroceryRepository implements repository.GroceryRepository.
type mongoGroceryRepository struct {
	collection *mongo.Collection
}

// NewMongoGroceryRepository creates a new grocery catalog repository.
func NewMongoGroceryRepository(db *mongo.Database) repository.GroceryRepository {
	return &mongoGroceryRepository{collection: db.Collection(groceryCollectionName)}
}

func (r *mongoGroceryRepository) Create(ctx context.Context, item *domain.GroceryItem) (primitive.ObjectID, error) {
	stampNewGroceryItem(item, time.Now().UTC())
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return primitive.NilObjectID, err
	}
	return item.ID, nil
}

// CreateMany inserts a batch of items, used by the seed command.
func (r *mongoGroceryRepository) CreateMany(ctx context.Context, items []domain.GroceryItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(items))
	for i := range items {
		stampNewGroceryItem(&items[i], now)
		docs[i] = items[i]
	}
	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(result.InsertedIDs), nil
}

func stampNewGroceryItem(item *domain.GroceryItem, now time.Time) {
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
}

func (r *mongoGroceryRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.GroceryItem, error) {
	var item domain.GroceryItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// List returns the catalog sorted by category, subcategory and name.
func (r *mongoGroceryRepository) List(ctx context.Context, userID primitive.ObjectID, f repository.GroceryFilter) ([]domain.GroceryItem, error) {
	filter := bson.M{"userId": userID}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Subcategory != "" {
		filter["subcategory"] = f.Subcategory
	}
	if f.Difficulty != "" {
		filter["difficulty"] = f.Difficulty
	}
	if f.Search != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "category", Value: 1},
		{Key: "subcategory", Value: 1},
		{Key: "name", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.GroceryItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, cursor.Err()
}

func (r *mongoGroceryRepository) Update(ctx context.Context, item *domain.GroceryItem) error {
	item.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": item.ID, "userId": item.UserID}
	set := bson.M{
		"name":         item.Name,
		"category":     item.Category,
		"packagePrice": item.PackagePrice,
		"packageSize":  item.PackageSize,
		"packageUnit":  item.PackageUnit,
		"difficulty":   item.Difficulty,
		"updatedAt":    item.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if item.Subcategory != nil {
		set["subcategory"] = *item.Subcategory
	} else {
		update["$unset"] = bson.M{"subcategory": ""}
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

func (r *mongoGroceryRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoGroceryRepository) DeleteAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

type groupCount struct {
	Key   string `bson:"_id"`
	Count int    `bson:"count"`
}

// Stats counts the catalog per category and per subcategory in one round trip.
func (r *mongoGroceryRepository) Stats(ctx context.Context, userID primitive.ObjectID) (*domain.GroceryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$facet", Value: bson.M{
			"byCategory": bson.A{
				bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
			},
			"bySubcategory": bson.A{
				bson.M{"$match": bson.M{"subcategory": bson.M{"$ne": nil}}},
				bson.M{"$group": bson.M{"_id": "$subcategory", "count": bson.M{"$sum": 1}}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []struct {
		ByCategory    []groupCount `bson:"byCategory"`
		BySubcategory []groupCount `bson:"bySubcategory"`
	}
	if err = cursor.All(ctx, &facets); err != nil {
		return nil, err
	}

	stats := &domain.GroceryStats{
		ByCategory:    map[domain.GroceryCategory]int{},
		BySubcategory: map[domain.GrocerySubcategory]int{},
	}
	if len(facets) == 0 {
		return stats, nil
	}
	for _, g := range facets[0].ByCategory {
		stats.ByCategory[domain.GroceryCategory(g.Key)] = g.Count
		stats.Total += g.Count
	}
	for _, g := range facets[0].BySubcategory {
		stats.BySubcategory[domain.GrocerySubcategory(g.Key)] = g.Count
	}
	return stats, nil
}

func EnsureGroceryIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "category", Value: 1}, {Key: "subcategory", Value: 1}, {Key: "name", Value: 1}}},
	})
}

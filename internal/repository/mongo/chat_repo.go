package mongo

import (
	"context"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatCollectionName = "chat_messages"

type mongoChatRepository struct {
	collection *mongo.Collection
}

// NewMongoChatRepository creates a new chat history repository.
func NewMongoChatRepository(db *mongo.Database) repository.ChatRepository {
	return &mongoChatRepository{collection: db.Collection(chatCollectionName)}
}

func (r *mongoChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return primitive.NilObjectID, err
	}
	return msg.ID, nil
}

// ListRecent fetches the newest limit messages and returns them oldest first.
func (r *mongoChatRepository) ListRecent(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []domain.ChatMessage{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, cursor.Err()
}

func EnsureChatIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
}

package repository

import (
	"context"
	"time"

	"nutricoach/api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
	ErrConflict = RepositoryError("conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) // ErrConflict on duplicate email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	First(ctx context.Context) (*domain.User, error) // Oldest account, used by tooling
}

// ProfileRepository stores at most one profile per user.
type ProfileRepository interface {
	// Upsert creates or fully replaces the profile of profile.UserID.
	Upsert(ctx context.Context, profile *domain.UserProfile) error
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
}

// MealRepository defines the interface for interacting with the meal log.
type MealRepository interface {
	Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error)
	// GetByID only returns meals owned by userID.
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Meal, error)
	Update(ctx context.Context, meal *domain.Meal) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	// ListByRange returns all meals with from <= consumedAt <= to, newest first.
	// limit <= 0 means no limit.
	ListByRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time, limit int) ([]domain.Meal, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// DailyNutritionRepository stores derived per-day aggregates.
type DailyNutritionRepository interface {
	// Upsert replaces the row keyed by (UserID, Date), creating it if absent.
	Upsert(ctx context.Context, daily *domain.DailyNutrition) error
	GetByDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.DailyNutrition, error)
	// ListRange returns rows with from <= date <= to, oldest first.
	ListRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.DailyNutrition, error)
}

// GroceryFilter narrows a catalog listing. Zero values match everything.
type GroceryFilter struct {
	Category    domain.GroceryCategory
	Subcategory domain.GrocerySubcategory
	Difficulty  domain.CookingDifficulty
	Search      string // Case-insensitive substring of the name
}

// GroceryRepository defines the interface for a user's grocery catalog.
type GroceryRepository interface {
	Create(ctx context.Context, item *domain.GroceryItem) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, items []domain.GroceryItem) (int, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.GroceryItem, error)
	// List is sorted by category, subcategory, then name.
	List(ctx context.Context, userID primitive.ObjectID, filter GroceryFilter) ([]domain.GroceryItem, error)
	Update(ctx context.Context, item *domain.GroceryItem) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteAll(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*domain.GroceryStats, error)
}

// ChatRepository stores the conversation with the AI coach.
type ChatRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error)
	// ListRecent returns the latest limit messages, oldest first.
	ListRecent(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChatMessage, error)
}

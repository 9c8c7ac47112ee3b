// Package memory implements the repository interfaces in process memory.
// It backs the API when database.driver is "memory" and is used by tests.
package memory

import (
	"sync"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type dailyKey struct {
	userID primitive.ObjectID
	day    int64 // Unix seconds of the day start
}

func keyOf(userID primitive.ObjectID, date time.Time) dailyKey {
	return dailyKey{userID: userID, day: date.Unix()}
}

// Store holds every collection behind one lock. Values are copied in and out
// so callers never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	users     map[primitive.ObjectID]domain.User
	profiles  map[primitive.ObjectID]domain.UserProfile // keyed by user ID
	meals     map[primitive.ObjectID]domain.Meal
	daily     map[dailyKey]domain.DailyNutrition
	groceries map[primitive.ObjectID]domain.GroceryItem
	chat      []domain.ChatMessage // insertion order
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[primitive.ObjectID]domain.User),
		profiles:  make(map[primitive.ObjectID]domain.UserProfile),
		meals:     make(map[primitive.ObjectID]domain.Meal),
		daily:     make(map[dailyKey]domain.DailyNutrition),
		groceries: make(map[primitive.ObjectID]domain.GroceryItem),
	}
}

func (s *Store) Users() repository.UserRepository                    { return &userRepo{s} }
func (s *Store) Profiles() repository.ProfileRepository              { return &profileRepo{s} }
func (s *Store) Meals() repository.MealRepository                    { return &mealRepo{s} }
func (s *Store) DailyNutrition() repository.DailyNutritionRepository { return &dailyRepo{s} }
func (s *Store) Groceries() repository.GroceryRepository             { return &groceryRepo{s} }
func (s *Store) Chat() repository.ChatRepository                     { return &chatRepo{s} }

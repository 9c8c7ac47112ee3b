package memory

import (
	"context"
	"sort"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mealRepo struct{ s *Store }

func (r *mealRepo) Create(_ context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	meal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now
	r.s.meals[meal.ID] = *meal
	return meal.ID, nil
}

func (r *mealRepo) GetByID(_ context.Context, id, userID primitive.ObjectID) (*domain.Meal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.meals[id]
	if !ok || m.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *mealRepo) Update(_ context.Context, meal *domain.Meal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.meals[meal.ID]
	if !ok || existing.UserID != meal.UserID {
		return repository.ErrNotFound
	}
	meal.CreatedAt = existing.CreatedAt
	meal.UpdatedAt = time.Now().UTC()
	r.s.meals[meal.ID] = *meal
	return nil
}

func (r *mealRepo) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.meals[id]
	if !ok || m.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.meals, id)
	return nil
}

func (r *mealRepo) ListByRange(_ context.Context, userID primitive.ObjectID, from, to time.Time, limit int) ([]domain.Meal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	meals := []domain.Meal{}
	for _, m := range r.s.meals {
		if m.UserID != userID || m.ConsumedAt.Before(from) || m.ConsumedAt.After(to) {
			continue
		}
		meals = append(meals, m)
	}
	sort.Slice(meals, func(i, j int) bool {
		return meals[i].ConsumedAt.After(meals[j].ConsumedAt)
	})
	if limit > 0 && len(meals) > limit {
		meals = meals[:limit]
	}
	return meals, nil
}

func (r *mealRepo) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, m := range r.s.meals {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}

type dailyRepo struct{ s *Store }

func (r *dailyRepo) Upsert(_ context.Context, daily *domain.DailyNutrition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := keyOf(daily.UserID, daily.Date)
	if existing, ok := r.s.daily[key]; ok {
		daily.ID = existing.ID
	} else {
		daily.ID = primitive.NewObjectID()
	}
	daily.UpdatedAt = time.Now().UTC()
	r.s.daily[key] = *daily
	return nil
}

func (r *dailyRepo) GetByDate(_ context.Context, userID primitive.ObjectID, date time.Time) (*domain.DailyNutrition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.daily[keyOf(userID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *dailyRepo) ListRange(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.DailyNutrition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	days := []domain.DailyNutrition{}
	for _, d := range r.s.daily {
		if d.UserID != userID || d.Date.Before(from) || d.Date.After(to) {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days, nil
}

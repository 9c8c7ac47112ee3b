package memory

import (
	"context"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) First(_ context.Context) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var first *domain.User
	for _, u := range r.s.users {
		if first == nil || u.CreatedAt.Before(first.CreatedAt) {
			u := u
			first = &u
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

type profileRepo struct{ s *Store }

func (r *profileRepo) Upsert(_ context.Context, profile *domain.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.s.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
	} else if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.s.profiles[profile.UserID] = *profile
	return nil
}

func (r *profileRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

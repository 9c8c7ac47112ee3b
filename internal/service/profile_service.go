package service

import (
	"context"
	"errors"
	"fmt"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileInput is a complete profile as submitted on create or replace.
type ProfileInput struct {
	Age                 int
	Gender              domain.Gender
	WeightKg            float64
	HeightCm            float64
	ActivityLevel       domain.ActivityLevel
	Goal                domain.Goal
	DietaryRestrictions []string
	Allergies           []string
	LikedFoods          []string
	DislikedFoods       []string
	DailyBudget         *decimal.Decimal
	CookingPreference   *domain.CookingDifficulty
}

// ProfilePatch carries only the fields present in a partial update.
type ProfilePatch struct {
	Age                 *int
	Gender              *domain.Gender
	WeightKg            *float64
	HeightCm            *float64
	ActivityLevel       *domain.ActivityLevel
	Goal                *domain.Goal
	DietaryRestrictions *[]string
	Allergies           *[]string
	LikedFoods          *[]string
	DislikedFoods       *[]string
	DailyBudget         *decimal.Decimal
	CookingPreference   *domain.CookingDifficulty
}

// touchesTargets reports whether any calculator input is present.
func (p ProfilePatch) touchesTargets() bool {
	return p.Age != nil || p.Gender != nil || p.WeightKg != nil ||
		p.HeightCm != nil || p.ActivityLevel != nil || p.Goal != nil
}

type ProfileService interface {
	Upsert(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*domain.UserProfile, error)
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error)
	Update(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*domain.UserProfile, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func biometricsOf(p *domain.UserProfile) nutrition.BiometricProfile {
	return nutrition.BiometricProfile{
		Age:           p.Age,
		Gender:        p.Gender,
		WeightKg:      p.WeightKg,
		HeightCm:      p.HeightCm,
		ActivityLevel: p.ActivityLevel,
		Goal:          p.Goal,
	}
}

// applyTargets recomputes and caches the targets on p.
func applyTargets(p *domain.UserProfile) error {
	t, err := nutrition.CalculateTargets(biometricsOf(p))
	if err != nil {
		return err
	}
	p.TargetCalories = t.Calories
	p.TargetProteinG = t.ProteinG
	p.TargetCarbsG = t.CarbsG
	p.TargetFatG = t.FatG
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Upsert creates the profile or replaces every field of the existing one.
func (s *profileService) Upsert(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{
		UserID:              userID,
		Age:                 in.Age,
		Gender:              in.Gender,
		WeightKg:            in.WeightKg,
		HeightCm:            in.HeightCm,
		ActivityLevel:       in.ActivityLevel,
		Goal:                in.Goal,
		DietaryRestrictions: nonNil(in.DietaryRestrictions),
		Allergies:           nonNil(in.Allergies),
		LikedFoods:          nonNil(in.LikedFoods),
		DislikedFoods:       nonNil(in.DislikedFoods),
		DailyBudget:         in.DailyBudget,
		CookingPreference:   in.CookingPreference,
	}
	if err := applyTargets(profile); err != nil {
		return nil, err
	}

	existing, err := s.profileRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// Update merges patch into the stored profile. Targets are recomputed from
// the merged values only when a calculator input was part of the patch.
func (s *profileService) Update(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*domain.UserProfile, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Age != nil {
		profile.Age = *patch.Age
	}
	if patch.Gender != nil {
		profile.Gender = *patch.Gender
	}
	if patch.WeightKg != nil {
		profile.WeightKg = *patch.WeightKg
	}
	if patch.HeightCm != nil {
		profile.HeightCm = *patch.HeightCm
	}
	if patch.ActivityLevel != nil {
		profile.ActivityLevel = *patch.ActivityLevel
	}
	if patch.Goal != nil {
		profile.Goal = *patch.Goal
	}
	if patch.DietaryRestrictions != nil {
		profile.DietaryRestrictions = nonNil(*patch.DietaryRestrictions)
	}
	if patch.Allergies != nil {
		profile.Allergies = nonNil(*patch.Allergies)
	}
	if patch.LikedFoods != nil {
		profile.LikedFoods = nonNil(*patch.LikedFoods)
	}
	if patch.DislikedFoods != nil {
		profile.DislikedFoods = nonNil(*patch.DislikedFoods)
	}
	if patch.DailyBudget != nil {
		profile.DailyBudget = patch.DailyBudget
	}
	if patch.CookingPreference != nil {
		profile.CookingPreference = patch.CookingPreference
	}

	if patch.touchesTargets() {
		if err := applyTargets(profile); err != nil {
			return nil, err
		}
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

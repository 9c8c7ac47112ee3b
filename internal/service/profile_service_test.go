package service

import (
	"context"
	"errors"
	"testing"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"

	"github.com/shopspring/decimal"
)

func TestProfileUpsert_ComputesTargets(t *testing.T) {
	f := newFixture(t)
	p := f.createProfile(t)

	if p.TargetCalories != 2759 || p.TargetProteinG != 128 || p.TargetCarbsG != 389 || p.TargetFatG != 77 {
		t.Errorf("targets = %d/%d/%d/%d", p.TargetCalories, p.TargetProteinG, p.TargetCarbsG, p.TargetFatG)
	}
	if p.LikedFoods == nil || p.Allergies == nil {
		t.Error("list fields should be empty, not nil")
	}

	again := f.createProfile(t)
	if again.ID != p.ID {
		t.Errorf("replace changed id %s -> %s", p.ID.Hex(), again.ID.Hex())
	}
}

func TestProfileUpsert_RejectsUnknownEnum(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.Upsert(context.Background(), f.userID, ProfileInput{
		Age: 30, Gender: domain.GenderMale, WeightKg: 80, HeightCm: 180,
		ActivityLevel: "COUCH", Goal: domain.GoalMaintain,
	})
	if !errors.Is(err, nutrition.ErrInvalidEnumValue) {
		t.Errorf("err = %v", err)
	}
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.profiles.Update(ctx, f.userID, ProfilePatch{Age: ptr(31)}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("missing profile err = %v", err)
	}

	stored := f.createProfile(t)
	// Tamper with the cached targets to see whether a patch recomputes them.
	stored.TargetCalories = 1
	if err := f.store.Profiles().Upsert(ctx, stored); err != nil {
		t.Fatal(err)
	}

	budget := decimal.RequireFromString("12.50")
	p, err := f.profiles.Update(ctx, f.userID, ProfilePatch{
		LikedFoods:  &[]string{"lentils"},
		DailyBudget: &budget,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.TargetCalories != 1 {
		t.Errorf("preference-only patch recomputed targets: %d", p.TargetCalories)
	}
	if len(p.LikedFoods) != 1 || !p.DailyBudget.Equal(budget) {
		t.Errorf("preferences not merged: %+v", p)
	}

	p, err = f.profiles.Update(ctx, f.userID, ProfilePatch{Goal: ptr(domain.GoalBuildMuscle)})
	if err != nil {
		t.Fatal(err)
	}
	if p.TargetCalories != 3159 || p.TargetProteinG != 176 {
		t.Errorf("targets after goal change = %d/%d", p.TargetCalories, p.TargetProteinG)
	}
	if p.Age != 30 || len(p.LikedFoods) != 1 {
		t.Errorf("unpatched fields lost: %+v", p)
	}
}

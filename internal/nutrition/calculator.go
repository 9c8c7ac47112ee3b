// Package nutrition holds the pure target calculator and the day-boundary
// clock shared by the meal log and the daily aggregates.
package nutrition

import (
	"errors"
	"fmt"
	"math"

	"nutricoach/api/internal/domain"
)

// ErrInvalidEnumValue is returned when an activity level or goal is not one
// of the known values.
var ErrInvalidEnumValue = errors.New("invalid enum value")

// BiometricProfile is the calculator input.
type BiometricProfile struct {
	Age           int
	Gender        domain.Gender
	WeightKg      float64
	HeightCm      float64
	ActivityLevel domain.ActivityLevel
	Goal          domain.Goal
}

// Targets are the daily calorie and macronutrient targets, all rounded.
type Targets struct {
	Calories int `json:"calories"`
	ProteinG int `json:"proteinG"`
	CarbsG   int `json:"carbsG"`
	FatG     int `json:"fatG"`
}

var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary:  1.2,
	domain.ActivityLight:      1.375,
	domain.ActivityModerate:   1.55,
	domain.ActivityActive:     1.725,
	domain.ActivityVeryActive: 1.9,
}

var goalAdjustments = map[domain.Goal]float64{
	domain.GoalLoseWeight:  -500,
	domain.GoalMaintain:    0,
	domain.GoalGainWeight:  300,
	domain.GoalBuildMuscle: 400,
}

// macroSplit is grams of protein per kg of body weight and the share of
// calories that comes from fat. Carbs take the remainder.
type macroSplit struct {
	proteinPerKg float64
	fatShare     float64
}

var macroSplits = map[domain.Goal]macroSplit{
	domain.GoalBuildMuscle: {proteinPerKg: 2.2, fatShare: 0.25},
	domain.GoalLoseWeight:  {proteinPerKg: 2.0, fatShare: 0.20},
	domain.GoalGainWeight:  {proteinPerKg: 1.8, fatShare: 0.30},
	domain.GoalMaintain:    {proteinPerKg: 1.6, fatShare: 0.25},
}

const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// BMR computes basal metabolic rate with the Mifflin-St Jeor equation.
// Only MALE gets the +5 offset; every other value uses -161.
func BMR(age int, gender domain.Gender, weightKg, heightCm float64) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == domain.GenderMale {
		return base + 5
	}
	return base - 161
}

// TDEE scales BMR by the activity multiplier.
func TDEE(bmr float64, level domain.ActivityLevel) (float64, error) {
	m, ok := activityMultipliers[level]
	if !ok {
		return 0, fmt.Errorf("activity level %q: %w", level, ErrInvalidEnumValue)
	}
	return bmr * m, nil
}

// CalculateTargets derives daily calorie and macro targets from a profile.
// It performs no range validation on the numeric inputs.
func CalculateTargets(p BiometricProfile) (Targets, error) {
	tdee, err := TDEE(BMR(p.Age, p.Gender, p.WeightKg, p.HeightCm), p.ActivityLevel)
	if err != nil {
		return Targets{}, err
	}
	adj, ok := goalAdjustments[p.Goal]
	if !ok {
		return Targets{}, fmt.Errorf("goal %q: %w", p.Goal, ErrInvalidEnumValue)
	}
	split := macroSplits[p.Goal]

	calories := int(math.Round(tdee + adj))
	protein := int(math.Round(p.WeightKg * split.proteinPerKg))
	fat := int(math.Round(float64(calories) * split.fatShare / kcalPerGramFat))
	// Carbs fill what is left after the already rounded protein and fat.
	carbs := int(math.Round(float64(calories-protein*kcalPerGramProtein-fat*kcalPerGramFat) / kcalPerGramCarbs))

	return Targets{
		Calories: calories,
		ProteinG: protein,
		CarbsG:   carbs,
		FatG:     fat,
	}, nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender is used only to pick the BMR offset.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ActivityLevel scales BMR into total daily energy expenditure.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "SEDENTARY"
	ActivityLight      ActivityLevel = "LIGHT"
	ActivityModerate   ActivityLevel = "MODERATE"
	ActivityActive     ActivityLevel = "ACTIVE"
	ActivityVeryActive ActivityLevel = "VERY_ACTIVE"
)

// Goal selects the calorie adjustment and macro split.
type Goal string

const (
	GoalLoseWeight  Goal = "LOSE_WEIGHT"
	GoalMaintain    Goal = "MAINTAIN"
	GoalGainWeight  Goal = "GAIN_WEIGHT"
	GoalBuildMuscle Goal = "BUILD_MUSCLE"
)

// CookingDifficulty ranks how much effort a food or recipe takes.
// It is used both for grocery items and as a profile preference.
type CookingDifficulty string

const (
	DifficultyNoCooking CookingDifficulty = "NO_COOKING"
	DifficultyVeryEasy  CookingDifficulty = "VERY_EASY"
	DifficultyEasy      CookingDifficulty = "EASY"
	DifficultyMedium    CookingDifficulty = "MEDIUM"
	DifficultyComplex   CookingDifficulty = "COMPLEX"
)

// CookingDifficulties lists every difficulty from least to most effort.
var CookingDifficulties = []CookingDifficulty{
	DifficultyNoCooking,
	DifficultyVeryEasy,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyComplex,
}

// AllowedUpTo returns every difficulty that is no harder than d.
// Unknown values fall back to EASY.
func (d CookingDifficulty) AllowedUpTo() []CookingDifficulty {
	for i, v := range CookingDifficulties {
		if v == d {
			return append([]CookingDifficulty(nil), CookingDifficulties[:i+1]...)
		}
	}
	return DifficultyEasy.AllowedUpTo()
}

func (d CookingDifficulty) Valid() bool {
	for _, v := range CookingDifficulties {
		if v == d {
			return true
		}
	}
	return false
}

// UserProfile holds the biometric data the nutrition targets are derived from,
// the cached targets themselves, and food preferences used by the AI coach.
type UserProfile struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"` // Unique, one profile per user

	Age           int           `bson:"age" json:"age"`
	Gender        Gender        `bson:"gender" json:"gender"`
	WeightKg      float64       `bson:"weightKg" json:"weightKg"`
	HeightCm      float64       `bson:"heightCm" json:"heightCm"`
	ActivityLevel ActivityLevel `bson:"activityLevel" json:"activityLevel"`
	Goal          Goal          `bson:"goal" json:"goal"`

	// Cached output of the target calculator. Recomputed on any change to
	// the six fields above.
	TargetCalories int `bson:"targetCalories" json:"targetCalories"`
	TargetProteinG int `bson:"targetProteinG" json:"targetProteinG"`
	TargetCarbsG   int `bson:"targetCarbsG" json:"targetCarbsG"`
	TargetFatG     int `bson:"targetFatG" json:"targetFatG"`

	DietaryRestrictions []string           `bson:"dietaryRestrictions" json:"dietaryRestrictions"`
	Allergies           []string           `bson:"allergies" json:"allergies"`
	LikedFoods          []string           `bson:"likedFoods" json:"likedFoods"`
	DislikedFoods       []string           `bson:"dislikedFoods" json:"dislikedFoods"`
	DailyBudget         *decimal.Decimal   `bson:"dailyBudget,omitempty" json:"dailyBudget,omitempty"`
	CookingPreference   *CookingDifficulty `bson:"cookingPreference,omitempty" json:"cookingPreference,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

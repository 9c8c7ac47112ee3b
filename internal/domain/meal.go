package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealType tags when a meal was eaten.
type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

// Meal is a single logged eating event.
type Meal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MealType    MealType           `bson:"mealType" json:"mealType"`
	ConsumedAt  time.Time          `bson:"consumedAt" json:"consumedAt"`

	Calories int     `bson:"calories" json:"calories"`
	ProteinG float64 `bson:"proteinG" json:"proteinG"`
	CarbsG   float64 `bson:"carbsG" json:"carbsG"`
	FatG     float64 `bson:"fatG" json:"fatG"`
	FiberG   float64 `bson:"fiberG,omitempty" json:"fiberG,omitempty"`

	Notes string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Photo *MealPhoto `bson:"photo,omitempty" json:"photo,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DailyNutrition is the derived per-day rollup of a user's meals.
// (UserID, Date) is unique; Date is the start of the day in the reference zone.
type DailyNutrition struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Date   time.Time          `bson:"date" json:"date"`

	TotalCalories int     `bson:"totalCalories" json:"totalCalories"`
	TotalProteinG float64 `bson:"totalProteinG" json:"totalProteinG"`
	TotalCarbsG   float64 `bson:"totalCarbsG" json:"totalCarbsG"`
	TotalFatG     float64 `bson:"totalFatG" json:"totalFatG"`
	MealsCount    int     `bson:"mealsCount" json:"mealsCount"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Add folds a meal into the running totals.
func (d *DailyNutrition) Add(m Meal) {
	d.TotalCalories += m.Calories
	d.TotalProteinG += m.ProteinG
	d.TotalCarbsG += m.CarbsG
	d.TotalFatG += m.FatG
	d.MealsCount++
}

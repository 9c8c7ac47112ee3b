package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroceryCategory is the top-level aisle an item belongs to.
type GroceryCategory string

const (
	CategoryProteins      GroceryCategory = "PROTEINS"
	CategoryCarbs         GroceryCategory = "CARBS"
	CategoryDairy         GroceryCategory = "DAIRY"
	CategoryVegetables    GroceryCategory = "VEGETABLES"
	CategoryFruits        GroceryCategory = "FRUITS"
	CategoryLegumesCanned GroceryCategory = "LEGUMES_CANNED"
	CategoryOilsSauces    GroceryCategory = "OILS_SAUCES"
	CategoryNutsSeeds     GroceryCategory = "NUTS_SEEDS"
	CategorySpices        GroceryCategory = "SPICES"
	CategoryDrinks        GroceryCategory = "DRINKS"
	CategoryBaking        GroceryCategory = "BAKING"
	CategorySnacks        GroceryCategory = "SNACKS"
	CategoryReadyMeals    GroceryCategory = "READY_MEALS"
	CategorySpecialty     GroceryCategory = "SPECIALTY"
)

// GrocerySubcategory refines a category. Each value carries the prefix of
// its parent category (PROTEIN_, CARB_, ...).
type GrocerySubcategory string

// GrocerySubcategories maps each category to its allowed subcategories.
var GrocerySubcategories = map[GroceryCategory][]GrocerySubcategory{
	CategoryProteins:      {"PROTEIN_POULTRY", "PROTEIN_BEEF_PORK", "PROTEIN_FISH", "PROTEIN_EGGS", "PROTEIN_DELI", "PROTEIN_PLANT_BASED"},
	CategoryCarbs:         {"CARB_GRAINS", "CARB_PASTA", "CARB_BREAD", "CARB_BREAKFAST", "CARB_POTATOES"},
	CategoryDairy:         {"DAIRY_MILK", "DAIRY_YOGURT", "DAIRY_CHEESE", "DAIRY_OTHER"},
	CategoryVegetables:    {"VEG_FRESH", "VEG_FROZEN"},
	CategoryFruits:        {"FRUIT_FRESH", "FRUIT_FROZEN", "FRUIT_DRIED"},
	CategoryLegumesCanned: {"LEGUME_DRY", "LEGUME_CANNED", "LEGUME_OTHER"},
	CategoryOilsSauces:    {"OIL_COOKING", "OIL_CONDIMENTS", "OIL_SAUCES", "OIL_VINEGARS", "OIL_SPREADS"},
	CategoryNutsSeeds:     {"NUT_RAW", "NUT_ROASTED", "SEED", "NUT_BUTTER"},
	CategorySpices:        {"SPICE_HERB", "SPICE_SPICE", "SPICE_SALT_PEPPER", "SPICE_BLEND"},
	CategoryDrinks:        {"DRINK_JUICE", "DRINK_WATER", "DRINK_TEA_COFFEE", "DRINK_OTHER"},
	CategoryBaking:        {"BAKING_FLOUR", "BAKING_SWEETENER", "BAKING_LEAVENING", "BAKING_OTHER"},
	CategorySnacks:        {"SNACK_CHOCOLATE", "SNACK_CHIPS", "SNACK_FRUIT", "SNACK_MIX", "SNACK_BARS"},
	CategoryReadyMeals:    {"READY_FROZEN", "READY_INSTANT", "READY_CANNED"},
	CategorySpecialty:     {"SPECIALTY_GLUTEN_FREE", "SPECIALTY_VEGAN", "SPECIALTY_ORGANIC", "SPECIALTY_PROTEIN", "SPECIALTY_LOW_FAT"},
}

// Valid reports whether c is a known category.
func (c GroceryCategory) Valid() bool {
	_, ok := GrocerySubcategories[c]
	return ok
}

// Valid reports whether s is a known subcategory of any category.
func (s GrocerySubcategory) Valid() bool {
	for _, subs := range GrocerySubcategories {
		for _, v := range subs {
			if v == s {
				return true
			}
		}
	}
	return false
}

// GroceryItem is a product in a user's personal catalog, priced per package.
type GroceryItem struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	Name         string              `bson:"name" json:"name"`
	Category     GroceryCategory     `bson:"category" json:"category"`
	Subcategory  *GrocerySubcategory `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	PackagePrice decimal.Decimal     `bson:"packagePrice" json:"packagePrice"`
	PackageSize  float64             `bson:"packageSize" json:"packageSize"`
	PackageUnit  string              `bson:"packageUnit" json:"packageUnit"` // g, ml, pcs ...
	Difficulty   CookingDifficulty   `bson:"difficulty" json:"difficulty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// UnitPrice is the price of one packageUnit, rounded to 4 decimal places.
func (g *GroceryItem) UnitPrice() decimal.Decimal {
	if g.PackageSize <= 0 {
		return decimal.Zero
	}
	return g.PackagePrice.Div(decimal.NewFromFloat(g.PackageSize)).Round(4)
}

// GroceryStats counts a catalog grouped by category and subcategory.
type GroceryStats struct {
	Total         int                        `json:"total"`
	ByCategory    map[GroceryCategory]int    `json:"byCategory"`
	BySubcategory map[GrocerySubcategory]int `json:"bySubcategory"`
}

package mongo

import (
	"testing"

	"nutricoach/api/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// TestRegistry_DecimalRoundTrip verifies prices are stored as Decimal128 and
// decode back without float drift.
func TestRegistry_DecimalRoundTrip(t *testing.T) {
	reg := NewRegistry()
	price := decimal.RequireFromString("7.32")
	item := domain.GroceryItem{Name: "Chicken Breast", PackagePrice: price, PackageSize: 1000, PackageUnit: "g"}

	data, err := bson.MarshalWithRegistry(reg, item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if typ := bson.Raw(data).Lookup("packagePrice").Type; typ != bsontype.Decimal128 {
		t.Fatalf("packagePrice stored as %s, want decimal128", typ)
	}

	var got domain.GroceryItem
	if err := bson.UnmarshalWithRegistry(reg, data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.PackagePrice.Equal(price) {
		t.Errorf("price = %s, want %s", got.PackagePrice, price)
	}
}

// TestRegistry_OptionalDecimal verifies a nil budget is omitted and a set one
// survives the round trip.
func TestRegistry_OptionalDecimal(t *testing.T) {
	reg := NewRegistry()

	data, err := bson.MarshalWithRegistry(reg, domain.UserProfile{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := bson.Raw(data).LookupErr("dailyBudget"); err == nil {
		t.Error("nil dailyBudget should be omitted")
	}

	budget := decimal.RequireFromString("12.50")
	data, err = bson.MarshalWithRegistry(reg, domain.UserProfile{DailyBudget: &budget})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got domain.UserProfile
	if err := bson.UnmarshalWithRegistry(reg, data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.DailyBudget == nil || !got.DailyBudget.Equal(budget) {
		t.Errorf("budget = %v, want %s", got.DailyBudget, budget)
	}
}

// TestRegistry_DecodesLegacyDouble verifies documents written with a plain
// double price still decode.
func TestRegistry_DecodesLegacyDouble(t *testing.T) {
	data, err := bson.Marshal(bson.M{"name": "Oats", "packagePrice": 0.89})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got domain.GroceryItem
	if err := bson.UnmarshalWithRegistry(NewRegistry(), data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.PackagePrice.Equal(decimal.RequireFromString("0.89")) {
		t.Errorf("price = %s, want 0.89", got.PackagePrice)
	}
}

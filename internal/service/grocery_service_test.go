package service

import (
	"context"
	"errors"
	"testing"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"github.com/shopspring/decimal"
)

func oats() GroceryInput {
	return GroceryInput{
		Name:         "Rolled oats",
		Category:     domain.CategoryCarbs,
		Subcategory:  ptr(domain.GrocerySubcategory("CARB_BREAKFAST")),
		PackagePrice: decimal.RequireFromString("1.29"),
		PackageSize:  500,
		PackageUnit:  "g",
		Difficulty:   domain.DifficultyNoCooking,
	}
}

func TestGroceryCreate_Validation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(in *GroceryInput){
		"empty name":          func(in *GroceryInput) { in.Name = "  " },
		"unknown category":    func(in *GroceryInput) { in.Category = "CANDY" },
		"foreign subcategory": func(in *GroceryInput) { in.Subcategory = ptr(domain.GrocerySubcategory("DAIRY_MILK")) },
		"zero price":          func(in *GroceryInput) { in.PackagePrice = decimal.Zero },
		"negative size":       func(in *GroceryInput) { in.PackageSize = -1 },
		"missing unit":        func(in *GroceryInput) { in.PackageUnit = "" },
		"unknown difficulty":  func(in *GroceryInput) { in.Difficulty = "EXTREME" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := oats()
			mutate(&in)
			if _, err := f.grocery.Create(context.Background(), f.userID, in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}

	item, err := f.grocery.Create(context.Background(), f.userID, oats())
	if err != nil {
		t.Fatal(err)
	}
	if got := item.UnitPrice().String(); got != "0.0026" {
		t.Errorf("unit price = %s", got)
	}
}

func TestGroceryUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, _ := f.grocery.Create(ctx, f.userID, oats())

	updated, err := f.grocery.Update(ctx, f.userID, item.ID, GroceryPatch{
		PackagePrice:     ptr(decimal.RequireFromString("0.99")),
		ClearSubcategory: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Subcategory != nil || !updated.PackagePrice.Equal(decimal.RequireFromString("0.99")) {
		t.Errorf("updated = %+v", updated)
	}

	// Moving category leaves a subcategory that no longer belongs.
	item2, _ := f.grocery.Create(ctx, f.userID, oats())
	if _, err := f.grocery.Update(ctx, f.userID, item2.ID, GroceryPatch{Category: ptr(domain.CategoryDairy)}); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}

	if _, err := f.grocery.Update(ctx, f.userID, f.userID, GroceryPatch{}); !errors.Is(err, ErrGroceryNotFound) {
		t.Errorf("missing item err = %v", err)
	}
}

func TestGroceryListStatsDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	milk := oats()
	milk.Name = "Oat milk"
	milk.Category = domain.CategoryDairy
	milk.Subcategory = ptr(domain.GrocerySubcategory("DAIRY_MILK"))
	eggs := oats()
	eggs.Name = "Eggs"
	eggs.Category = domain.CategoryProteins
	eggs.Subcategory = nil
	eggs.Difficulty = domain.DifficultyEasy

	n, err := f.grocery.Seed(ctx, f.userID, []GroceryInput{oats(), milk, eggs})
	if err != nil || n != 3 {
		t.Fatalf("seed = %d, %v", n, err)
	}

	found, _ := f.grocery.List(ctx, f.userID, repository.GroceryFilter{Search: "OAT"})
	if len(found) != 2 {
		t.Errorf("search found %d, want 2", len(found))
	}

	stats, err := f.grocery.Stats(ctx, f.userID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.ByCategory[domain.CategoryDairy] != 1 || stats.BySubcategory["CARB_BREAKFAST"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	deleted, err := f.grocery.DeleteAll(ctx, f.userID)
	if err != nil || deleted != 3 {
		t.Errorf("deleted = %d, %v", deleted, err)
	}
}

func TestGrocerySeed_RejectsBatchOnInvalidItem(t *testing.T) {
	f := newFixture(t)
	bad := oats()
	bad.PackageUnit = ""

	if _, err := f.grocery.Seed(context.Background(), f.userID, []GroceryInput{oats(), bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	items, _ := f.grocery.List(context.Background(), f.userID, repository.GroceryFilter{})
	if len(items) != 0 {
		t.Errorf("partial seed stored %d items", len(items))
	}
}

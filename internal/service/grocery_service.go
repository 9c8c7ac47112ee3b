package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrGroceryNotFound = errors.New("grocery item not found")
	ErrValidation      = errors.New("validation failed")
)

// GroceryInput is a new catalog item.
type GroceryInput struct {
	Name         string
	Category     domain.GroceryCategory
	Subcategory  *domain.GrocerySubcategory
	PackagePrice decimal.Decimal
	PackageSize  float64
	PackageUnit  string
	Difficulty   domain.CookingDifficulty
}

// GroceryPatch carries only the fields present in a partial update.
// ClearSubcategory removes the subcategory.
type GroceryPatch struct {
	Name             *string
	Category         *domain.GroceryCategory
	Subcategory      *domain.GrocerySubcategory
	ClearSubcategory bool
	PackagePrice     *decimal.Decimal
	PackageSize      *float64
	PackageUnit      *string
	Difficulty       *domain.CookingDifficulty
}

type GroceryService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in GroceryInput) (*domain.GroceryItem, error)
	List(ctx context.Context, userID primitive.ObjectID, filter repository.GroceryFilter) ([]domain.GroceryItem, error)
	Get(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.GroceryItem, error)
	Update(ctx context.Context, userID, itemID primitive.ObjectID, patch GroceryPatch) (*domain.GroceryItem, error)
	Delete(ctx context.Context, userID, itemID primitive.ObjectID) error
	DeleteAll(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*domain.GroceryStats, error)
	// Seed validates every item and inserts them in one batch.
	Seed(ctx context.Context, userID primitive.ObjectID, items []GroceryInput) (int, error)
}

type groceryService struct {
	groceryRepo repository.GroceryRepository
}

func NewGroceryService(groceryRepo repository.GroceryRepository) GroceryService {
	return &groceryService{groceryRepo: groceryRepo}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validateGrocery(g *domain.GroceryItem) error {
	if strings.TrimSpace(g.Name) == "" {
		return validationErr("name is required")
	}
	if !g.Category.Valid() {
		return validationErr("unknown category %q", g.Category)
	}
	if g.Subcategory != nil {
		belongs := false
		for _, s := range domain.GrocerySubcategories[g.Category] {
			if s == *g.Subcategory {
				belongs = true
				break
			}
		}
		if !belongs {
			return validationErr("subcategory %q does not belong to %s", *g.Subcategory, g.Category)
		}
	}
	if !g.PackagePrice.IsPositive() {
		return validationErr("packagePrice must be positive")
	}
	if g.PackageSize <= 0 {
		return validationErr("packageSize must be positive")
	}
	if strings.TrimSpace(g.PackageUnit) == "" {
		return validationErr("packageUnit is required")
	}
	if !g.Difficulty.Valid() {
		return validationErr("unknown difficulty %q", g.Difficulty)
	}
	return nil
}

func itemFromInput(userID primitive.ObjectID, in GroceryInput) domain.GroceryItem {
	return domain.GroceryItem{
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Category:     in.Category,
		Subcategory:  in.Subcategory,
		PackagePrice: in.PackagePrice,
		PackageSize:  in.PackageSize,
		PackageUnit:  in.PackageUnit,
		Difficulty:   in.Difficulty,
	}
}

func (s *groceryService) Create(ctx context.Context, userID primitive.ObjectID, in GroceryInput) (*domain.GroceryItem, error) {
	item := itemFromInput(userID, in)
	if err := validateGrocery(&item); err != nil {
		return nil, err
	}
	if _, err := s.groceryRepo.Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("create grocery item: %w", err)
	}
	return &item, nil
}

func (s *groceryService) List(ctx context.Context, userID primitive.ObjectID, filter repository.GroceryFilter) ([]domain.GroceryItem, error) {
	return s.groceryRepo.List(ctx, userID, filter)
}

func (s *groceryService) Get(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.GroceryItem, error) {
	item, err := s.groceryRepo.GetByID(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroceryNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *groceryService) Update(ctx context.Context, userID, itemID primitive.ObjectID, patch GroceryPatch) (*domain.GroceryItem, error) {
	item, err := s.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.ClearSubcategory {
		item.Subcategory = nil
	} else if patch.Subcategory != nil {
		item.Subcategory = patch.Subcategory
	}
	if patch.PackagePrice != nil {
		item.PackagePrice = *patch.PackagePrice
	}
	if patch.PackageSize != nil {
		item.PackageSize = *patch.PackageSize
	}
	if patch.PackageUnit != nil {
		item.PackageUnit = *patch.PackageUnit
	}
	if patch.Difficulty != nil {
		item.Difficulty = *patch.Difficulty
	}

	if err := validateGrocery(item); err != nil {
		return nil, err
	}
	if err := s.groceryRepo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroceryNotFound
		}
		return nil, fmt.Errorf("update grocery item: %w", err)
	}
	return item, nil
}

func (s *groceryService) Delete(ctx context.Context, userID, itemID primitive.ObjectID) error {
	if err := s.groceryRepo.Delete(ctx, itemID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroceryNotFound
		}
		return err
	}
	return nil
}

func (s *groceryService) DeleteAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.groceryRepo.DeleteAll(ctx, userID)
}

func (s *groceryService) Stats(ctx context.Context, userID primitive.ObjectID) (*domain.GroceryStats, error) {
	return s.groceryRepo.Stats(ctx, userID)
}

func (s *groceryService) Seed(ctx context.Context, userID primitive.ObjectID, inputs []GroceryInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	items := make([]domain.GroceryItem, len(inputs))
	for i, in := range inputs {
		items[i] = itemFromInput(userID, in)
		if err := validateGrocery(&items[i]); err != nil {
			return 0, fmt.Errorf("item %d (%s): %w", i, in.Name, err)
		}
	}
	return s.groceryRepo.CreateMany(ctx, items)
}

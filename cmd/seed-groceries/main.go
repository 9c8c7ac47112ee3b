// Command seed-groceries fills a user's grocery catalog with priced items.
//
//	seed-groceries [-user <id>] [-file catalog.json] [-keep]
//
// Without -user the oldest account is used. Without -file the built-in
// catalog is loaded. Existing items are removed first unless -keep is set.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"nutricoach/api/internal/config"
	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"
	"nutricoach/api/internal/repository/mongo"
	"nutricoach/api/internal/service"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:embed default_catalog.json
var defaultCatalog []byte

type catalogEntry struct {
	Name         string                     `json:"name"`
	Category     domain.GroceryCategory     `json:"category"`
	Subcategory  *domain.GrocerySubcategory `json:"subcategory,omitempty"`
	PackagePrice decimal.Decimal            `json:"packagePrice"`
	PackageSize  float64                    `json:"packageSize"`
	PackageUnit  string                     `json:"packageUnit"`
	Difficulty   domain.CookingDifficulty   `json:"difficulty"`
}

func parseCatalog(raw []byte) ([]service.GroceryInput, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	inputs := make([]service.GroceryInput, len(entries))
	for i, e := range entries {
		inputs[i] = service.GroceryInput{
			Name:         e.Name,
			Category:     e.Category,
			Subcategory:  e.Subcategory,
			PackagePrice: e.PackagePrice,
			PackageSize:  e.PackageSize,
			PackageUnit:  e.PackageUnit,
			Difficulty:   e.Difficulty,
		}
	}
	return inputs, nil
}

func resolveUser(ctx context.Context, users repository.UserRepository, hexID string) (*domain.User, error) {
	if hexID == "" {
		user, err := users.First(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("no users found, create an account first")
		}
		return user, err
	}
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", hexID, err)
	}
	return users.GetByID(ctx, id)
}

func main() {
	userFlag := flag.String("user", "", "user ID to seed (default: oldest account)")
	fileFlag := flag.String("file", "", "JSON catalog to load (default: built-in catalog)")
	keepFlag := flag.Bool("keep", false, "keep the user's existing items")
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.Database.Driver != "mongo" {
		log.Fatalf("FATAL: Seeding needs database.driver=mongo, got %q", cfg.Database.Driver)
	}

	raw := defaultCatalog
	if *fileFlag != "" {
		if raw, err = os.ReadFile(*fileFlag); err != nil {
			log.Fatalf("FATAL: Could not read catalog: %v", err)
		}
	}
	inputs, err := parseCatalog(raw)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	user, err := resolveUser(ctx, mongo.NewMongoUserRepository(appDB), *userFlag)
	if err != nil {
		log.Fatalf("FATAL: Could not resolve user: %v", err)
	}
	log.Printf("Seeding catalog for %s (%s)", user.Name, user.Email)

	groceries := service.NewGroceryService(mongo.NewMongoGroceryRepository(appDB))
	if !*keepFlag {
		removed, err := groceries.DeleteAll(ctx, user.ID)
		if err != nil {
			log.Fatalf("FATAL: Could not clear catalog: %v", err)
		}
		log.Printf("Removed %d existing items.", removed)
	}

	n, err := groceries.Seed(ctx, user.ID, inputs)
	if err != nil {
		log.Fatalf("FATAL: Seeding failed: %v", err)
	}
	log.Printf("Seeded %d grocery items.", n)
}

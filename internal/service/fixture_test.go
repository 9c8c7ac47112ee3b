package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/lock"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/realtime"
	"nutricoach/api/internal/repository/memory"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ primitive.ObjectID, e realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
	missing   map[string]bool // keys never uploaded
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://download.test/" + key, nil
}

func (f *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.missing[key], nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

var errBoom = errors.New("boom")

// fixture wires every service against one in-memory store. The clock is
// pinned to 2025-03-10 12:00 in Europe/Berlin.
type fixture struct {
	store     *memory.Store
	clock     *nutrition.Clock
	publisher *recordingPublisher
	generator *fakeGenerator
	files     *fakeStorage

	profiles ProfileService
	daily    DailyNutritionService
	meals    MealService
	grocery  GroceryService
	coach    CoachService

	userID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	clock := nutrition.NewClock(loc).WithNow(func() time.Time { return now })

	f := &fixture{
		store:     memory.NewStore(),
		clock:     clock,
		publisher: &recordingPublisher{},
		generator: &fakeGenerator{reply: "ok"},
		files:     &fakeStorage{},
		userID:    primitive.NewObjectID(),
	}
	f.profiles = NewProfileService(f.store.Profiles())
	f.daily = NewDailyNutritionService(f.store.Meals(), f.store.DailyNutrition(), f.store.Profiles(), lock.NewLocalLocker(), clock, f.publisher)
	f.meals = NewMealService(f.store.Meals(), f.daily, f.files, clock)
	f.grocery = NewGroceryService(f.store.Groceries())
	f.coach = NewCoachService(f.store.Profiles(), f.store.Meals(), f.store.DailyNutrition(), f.store.Groceries(), f.store.Chat(), f.generator, clock)
	return f
}

// at returns a time on the pinned day, daysBack days earlier.
func (f *fixture) at(daysBack, hour, minute int) time.Time {
	now := f.clock.Now()
	y, m, d := now.AddDate(0, 0, -daysBack).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, f.clock.Location())
}

func (f *fixture) logMeal(t *testing.T, at time.Time, calories int, protein float64) *domain.Meal {
	t.Helper()
	meal, err := f.meals.Create(context.Background(), f.userID, MealInput{
		Name:       "meal",
		MealType:   domain.MealLunch,
		ConsumedAt: &at,
		Calories:   calories,
		ProteinG:   protein,
		CarbsG:     10,
		FatG:       5,
	})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}
	return meal
}

func (f *fixture) createProfile(t *testing.T) *domain.UserProfile {
	t.Helper()
	p, err := f.profiles.Upsert(context.Background(), f.userID, ProfileInput{
		Age:           30,
		Gender:        domain.GenderMale,
		WeightKg:      80,
		HeightCm:      180,
		ActivityLevel: domain.ActivityModerate,
		Goal:          domain.GoalMaintain,
	})
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	return p
}

func ptr[T any](v T) *T { return &v }

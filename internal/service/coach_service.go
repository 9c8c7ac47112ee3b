package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/llm"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProfileRequired  = errors.New("please complete your profile first")
	ErrGenerationFailed = errors.New("ai generation failed")
)

const (
	DefaultChatHistoryLimit = 50
	MaxChatHistoryLimit     = 200
	chatContextDays         = 7
	chatContextMeals        = 50
)

// DailyPlan is a generated meal plan. Plan holds the parsed JSON object;
// when the model's reply could not be parsed, Plan is nil and Raw holds
// the reply as received.
type DailyPlan struct {
	Plan map[string]any
	Raw  string
}

// CoachService answers free-form and structured questions with the help of
// a text-generation model, grounded in the user's profile and meal log.
type CoachService interface {
	Chat(ctx context.Context, userID primitive.ObjectID, message string) (string, error)
	History(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChatMessage, error)
	SuggestMeals(ctx context.Context, userID primitive.ObjectID, mealType domain.MealType) (string, error)
	AnalyzeProgress(ctx context.Context, userID primitive.ObjectID) (string, error)
	GenerateDailyPlan(ctx context.Context, userID primitive.ObjectID) (*DailyPlan, error)
}

type coachService struct {
	profileRepo repository.ProfileRepository
	mealRepo    repository.MealRepository
	dailyRepo   repository.DailyNutritionRepository
	groceryRepo repository.GroceryRepository
	chatRepo    repository.ChatRepository
	generator   llm.Generator
	clock       *nutrition.Clock
}

func NewCoachService(
	profileRepo repository.ProfileRepository,
	mealRepo repository.MealRepository,
	dailyRepo repository.DailyNutritionRepository,
	groceryRepo repository.GroceryRepository,
	chatRepo repository.ChatRepository,
	generator llm.Generator,
	clock *nutrition.Clock,
) CoachService {
	return &coachService{
		profileRepo: profileRepo,
		mealRepo:    mealRepo,
		dailyRepo:   dailyRepo,
		groceryRepo: groceryRepo,
		chatRepo:    chatRepo,
		generator:   generator,
		clock:       clock,
	}
}

func (s *coachService) requireProfile(ctx context.Context, userID primitive.ObjectID) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileRequired
		}
		return nil, err
	}
	return profile, nil
}

func (s *coachService) generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("ERROR: AI generation failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return text, nil
}

func (s *coachService) Chat(ctx context.Context, userID primitive.ObjectID, message string) (string, error) {
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	recent, err := s.mealRepo.ListByRange(ctx, userID, now.AddDate(0, 0, -chatContextDays), now, chatContextMeals)
	if err != nil {
		return "", err
	}

	if _, err := s.chatRepo.Create(ctx, &domain.ChatMessage{UserID: userID, Role: domain.ChatRoleUser, Content: message}); err != nil {
		return "", fmt.Errorf("save chat message: %w", err)
	}

	reply, err := s.generate(ctx, chatPrompt(profile, recent, message, s.clock.Location()))
	if err != nil {
		return "", err
	}

	if _, err := s.chatRepo.Create(ctx, &domain.ChatMessage{UserID: userID, Role: domain.ChatRoleAssistant, Content: reply}); err != nil {
		return "", fmt.Errorf("save chat reply: %w", err)
	}
	return reply, nil
}

// History returns the latest messages, oldest first. limit <= 0 selects
// the default and larger values are capped.
func (s *coachService) History(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultChatHistoryLimit
	}
	if limit > MaxChatHistoryLimit {
		limit = MaxChatHistoryLimit
	}
	return s.chatRepo.ListRecent(ctx, userID, limit)
}

func (s *coachService) SuggestMeals(ctx context.Context, userID primitive.ObjectID, mealType domain.MealType) (string, error) {
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	today := domain.DailyNutrition{}
	row, err := s.dailyRepo.GetByDate(ctx, userID, s.clock.StartOfDay(s.clock.Now()))
	switch {
	case err == nil:
		today = *row
	case !errors.Is(err, repository.ErrNotFound):
		return "", err
	}

	return s.generate(ctx, suggestPrompt(profile, &today, mealType))
}

func (s *coachService) AnalyzeProgress(ctx context.Context, userID primitive.ObjectID) (string, error) {
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	meals, err := s.mealRepo.ListByRange(ctx, userID, s.clock.DaysAgo(chatContextDays), s.clock.EndOfDay(now), 0)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, progressPrompt(profile, meals))
}

func (s *coachService) GenerateDailyPlan(ctx context.Context, userID primitive.ObjectID) (*DailyPlan, error) {
	profile, err := s.requireProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxDifficulty := domain.DifficultyEasy
	if profile.CookingPreference != nil {
		maxDifficulty = *profile.CookingPreference
	}
	allowed := maxDifficulty.AllowedUpTo()

	var items []domain.GroceryItem
	for _, d := range allowed {
		batch, err := s.groceryRepo.List(ctx, userID, repository.GroceryFilter{Difficulty: d})
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}

	reply, err := s.generate(ctx, planPrompt(profile, items, allowed))
	if err != nil {
		return nil, err
	}

	var plan map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &plan); err != nil {
		log.Printf("WARN: Daily plan for user %s is not valid JSON: %v", userID.Hex(), err)
		return &DailyPlan{Raw: reply}, nil
	}
	return &DailyPlan{Plan: plan}, nil
}

// --- Prompts ---

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

func writeProfile(sb *strings.Builder, p *domain.UserProfile) {
	fmt.Fprintf(sb, "Profile: %d years, %s, %.1f kg, %.0f cm, activity %s, goal %s.\n",
		p.Age, p.Gender, p.WeightKg, p.HeightCm, p.ActivityLevel, p.Goal)
	fmt.Fprintf(sb, "Daily targets: %d kcal, %d g protein, %d g carbs, %d g fat.\n",
		p.TargetCalories, p.TargetProteinG, p.TargetCarbsG, p.TargetFatG)
	fmt.Fprintf(sb, "Dietary restrictions: %s. Allergies: %s.\n", listOrNone(p.DietaryRestrictions), listOrNone(p.Allergies))
	fmt.Fprintf(sb, "Likes: %s. Dislikes: %s.\n", listOrNone(p.LikedFoods), listOrNone(p.DislikedFoods))
}

func chatPrompt(p *domain.UserProfile, recent []domain.Meal, message string, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("You are a nutrition coach. Give practical, encouraging advice grounded in nutrition science.\n\n")
	writeProfile(&sb, p)

	if len(recent) == 0 {
		sb.WriteString("\nNo meals logged in the last week.\n")
	} else {
		sb.WriteString("\nMeals logged in the last week (newest first):\n")
		for _, m := range recent {
			fmt.Fprintf(&sb, "- %s %s: %s, %d kcal, P %.0f g, C %.0f g, F %.0f g\n",
				m.ConsumedAt.In(loc).Format("Mon 2006-01-02"), m.MealType, m.Name,
				m.Calories, m.ProteinG, m.CarbsG, m.FatG)
		}
	}

	fmt.Fprintf(&sb, "\nUser: %s\n\nCoach:", message)
	return sb.String()
}

func suggestPrompt(p *domain.UserProfile, today *domain.DailyNutrition, mealType domain.MealType) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a nutrition coach. Suggest three concrete %s ideas.\n\n", mealType)
	writeProfile(&sb, p)
	fmt.Fprintf(&sb, "\nStill available today: %d kcal, %.0f g protein, %.0f g carbs, %.0f g fat.\n",
		p.TargetCalories-today.TotalCalories,
		float64(p.TargetProteinG)-today.TotalProteinG,
		float64(p.TargetCarbsG)-today.TotalCarbsG,
		float64(p.TargetFatG)-today.TotalFatG)
	sb.WriteString("\nFor each idea give the name, a short ingredient list, estimated calories and macros, and one sentence on how it fits the remaining targets.")
	return sb.String()
}

func progressPrompt(p *domain.UserProfile, meals []domain.Meal) string {
	var calories int
	var protein float64
	for _, m := range meals {
		calories += m.Calories
		protein += m.ProteinG
	}
	avgCalories := int(math.Round(float64(calories) / chatContextDays))
	avgProtein := int(math.Round(protein / chatContextDays))

	var sb strings.Builder
	sb.WriteString("You are a nutrition coach reviewing the user's last seven days.\n\n")
	writeProfile(&sb, p)
	fmt.Fprintf(&sb, "\nMeals logged: %d.\n", len(meals))
	fmt.Fprintf(&sb, "Average per day: %d kcal (target %d), %d g protein (target %d).\n",
		avgCalories, p.TargetCalories, avgProtein, p.TargetProteinG)
	sb.WriteString("\nAssess the week honestly, name what went well and what to improve, and finish with one specific tip for next week.")
	return sb.String()
}

func planPrompt(p *domain.UserProfile, items []domain.GroceryItem, allowed []domain.CookingDifficulty) string {
	budget := "no limit"
	if p.DailyBudget != nil {
		budget = "€" + p.DailyBudget.StringFixed(2)
	}
	names := make([]string, len(allowed))
	for i, d := range allowed {
		names[i] = string(d)
	}

	var sb strings.Builder
	sb.WriteString("You are a nutrition coach building a one-day meal plan on a budget.\n\n")
	writeProfile(&sb, p)
	fmt.Fprintf(&sb, "\nDaily budget: %s. Allowed cooking difficulty: %s.\n", budget, strings.Join(names, ", "))

	if len(items) == 0 {
		sb.WriteString("\nThe user has no groceries on file; use cheap, widely available foods.\n")
	} else {
		sb.WriteString("\nGroceries on hand:\n")
		for _, g := range items {
			fmt.Fprintf(&sb, "- %s: €%s per %g %s (%s)\n", g.Name, g.PackagePrice.StringFixed(2), g.PackageSize, g.PackageUnit, g.Difficulty)
		}
	}

	sb.WriteString(`
Reply with JSON only, no markdown, in this shape:
{"meals":[{"mealType":"BREAKFAST","name":"","description":"","ingredients":[""],"calories":0,"proteinG":0,"carbsG":0,"fatG":0,"cost":0,"prepTime":""}],
 "totalCalories":0,"totalProtein":0,"totalCarbs":0,"totalFat":0,"totalCost":0,"summary":""}
Include BREAKFAST, LUNCH, DINNER and SNACK. Keep totals close to the targets and the total cost within the budget.`)
	return sb.String()
}

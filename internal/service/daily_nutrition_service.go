package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/lock"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/realtime"
	"nutricoach/api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MaxStreakDays bounds the backward walk in CurrentStreak.
	MaxStreakDays = 365
	weeklyWindow  = 7
	statsWindow   = 30
)

// DailySummary is a day's aggregate next to the user's targets.
// Targets is nil when the user has no profile yet.
type DailySummary struct {
	Date    time.Time
	Current domain.DailyNutrition
	Targets *nutrition.Targets
}

// NutritionStats summarises a user's logging history.
type NutritionStats struct {
	TotalMealsLogged int64 `json:"totalMealsLogged"`
	CurrentStreak    int   `json:"currentStreak"`
	AvgDailyCalories int   `json:"avgDailyCalories"`
	DaysTracked      int   `json:"daysTracked"`
}

// DailyNutritionService maintains the per-day aggregates and answers the
// read-side questions built on them.
type DailyNutritionService interface {
	// Reconcile recomputes the aggregate of the day containing at from the
	// meals currently stored for that day. It is idempotent.
	Reconcile(ctx context.Context, userID primitive.ObjectID, at time.Time) (*domain.DailyNutrition, error)
	// CurrentStreak counts consecutive days with at least one meal, ending today.
	CurrentStreak(ctx context.Context, userID primitive.ObjectID) (int, error)
	Daily(ctx context.Context, userID primitive.ObjectID, day time.Time) (*DailySummary, error)
	Weekly(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyNutrition, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*NutritionStats, error)
}

type dailyNutritionService struct {
	mealRepo    repository.MealRepository
	dailyRepo   repository.DailyNutritionRepository
	profileRepo repository.ProfileRepository
	locker      lock.Locker
	clock       *nutrition.Clock
	publisher   realtime.Publisher // optional
}

// NewDailyNutritionService wires the aggregate maintainer. publisher may be nil.
func NewDailyNutritionService(
	mealRepo repository.MealRepository,
	dailyRepo repository.DailyNutritionRepository,
	profileRepo repository.ProfileRepository,
	locker lock.Locker,
	clock *nutrition.Clock,
	publisher realtime.Publisher,
) DailyNutritionService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &dailyNutritionService{
		mealRepo:    mealRepo,
		dailyRepo:   dailyRepo,
		profileRepo: profileRepo,
		locker:      locker,
		clock:       clock,
		publisher:   publisher,
	}
}

func reconcileKey(userID primitive.ObjectID, day time.Time) string {
	return "daily:" + userID.Hex() + ":" + day.Format(nutrition.DateLayout)
}

func (s *dailyNutritionService) Reconcile(ctx context.Context, userID primitive.ObjectID, at time.Time) (*domain.DailyNutrition, error) {
	daily, err := s.foldDay(ctx, userID, at)
	if err != nil {
		return nil, err
	}
	// Published after the day lock is released.
	if s.publisher != nil {
		s.publisher.Publish(userID, realtime.Event{Kind: realtime.KindDailyUpdated, Daily: daily})
	}
	return daily, nil
}

// foldDay recomputes and stores the day's aggregate under the day's lock.
func (s *dailyNutritionService) foldDay(ctx context.Context, userID primitive.ObjectID, at time.Time) (*domain.DailyNutrition, error) {
	start := s.clock.StartOfDay(at)
	end := s.clock.EndOfDay(at)

	// The read and the upsert must not interleave with another reconcile of
	// the same day, or an older fold could overwrite a newer one.
	unlock, err := s.locker.Lock(ctx, reconcileKey(userID, start))
	if err != nil {
		return nil, fmt.Errorf("lock daily aggregate: %w", err)
	}
	defer unlock()

	meals, err := s.mealRepo.ListByRange(ctx, userID, start, end, 0)
	if err != nil {
		return nil, fmt.Errorf("list meals for %s: %w", start.Format(nutrition.DateLayout), err)
	}

	daily := &domain.DailyNutrition{UserID: userID, Date: start}
	for _, m := range meals {
		daily.Add(m)
	}

	if err := s.dailyRepo.Upsert(ctx, daily); err != nil {
		return nil, fmt.Errorf("upsert daily aggregate: %w", err)
	}
	return daily, nil
}

func (s *dailyNutritionService) CurrentStreak(ctx context.Context, userID primitive.ObjectID) (int, error) {
	streak := 0
	day := s.clock.StartOfDay(s.clock.Now())

	for streak < MaxStreakDays {
		row, err := s.dailyRepo.GetByDate(ctx, userID, day)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		if row.MealsCount == 0 {
			break
		}
		streak++
		day = s.clock.StartOfDay(day.AddDate(0, 0, -1))
	}
	return streak, nil
}

func (s *dailyNutritionService) Daily(ctx context.Context, userID primitive.ObjectID, day time.Time) (*DailySummary, error) {
	start := s.clock.StartOfDay(day)
	summary := &DailySummary{
		Date:    start,
		Current: domain.DailyNutrition{UserID: userID, Date: start},
	}

	row, err := s.dailyRepo.GetByDate(ctx, userID, start)
	switch {
	case err == nil:
		summary.Current = *row
		summary.Current.Date = start
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		summary.Targets = &nutrition.Targets{
			Calories: profile.TargetCalories,
			ProteinG: profile.TargetProteinG,
			CarbsG:   profile.TargetCarbsG,
			FatG:     profile.TargetFatG,
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return summary, nil
}

// Weekly returns the aggregates from seven days ago through today.
func (s *dailyNutritionService) Weekly(ctx context.Context, userID primitive.ObjectID) ([]domain.DailyNutrition, error) {
	now := s.clock.Now()
	days, err := s.dailyRepo.ListRange(ctx, userID, s.clock.DaysAgo(weeklyWindow), s.clock.EndOfDay(now))
	if err != nil {
		return nil, err
	}
	// Mongo hands dates back in UTC.
	for i := range days {
		days[i].Date = days[i].Date.In(s.clock.Location())
	}
	return days, nil
}

// Stats averages calories over every aggregate row from 30 days ago on,
// zeroed days included.
func (s *dailyNutritionService) Stats(ctx context.Context, userID primitive.ObjectID) (*NutritionStats, error) {
	total, err := s.mealRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	streak, err := s.CurrentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	days, err := s.dailyRepo.ListRange(ctx, userID, s.clock.DaysAgo(statsWindow), endOfTime)
	if err != nil {
		return nil, err
	}

	stats := &NutritionStats{TotalMealsLogged: total, CurrentStreak: streak, DaysTracked: len(days)}
	calories := 0
	for _, d := range days {
		calories += d.TotalCalories
	}
	if stats.DaysTracked > 0 {
		stats.AvgDailyCalories = int(math.Round(float64(calories) / float64(stats.DaysTracked)))
	}
	return stats, nil
}

// reconcileDays reconciles each distinct day among times, logging and
// returning the first error.
func reconcileDays(ctx context.Context, svc DailyNutritionService, clock *nutrition.Clock, userID primitive.ObjectID, times ...time.Time) error {
	var firstErr error
	for i, t := range times {
		dup := false
		for _, prev := range times[:i] {
			if clock.SameDay(prev, t) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if _, err := svc.Reconcile(ctx, userID, t); err != nil {
			log.Printf("ERROR: Failed to reconcile %s for user %s: %v", t.In(clock.Location()).Format(nutrition.DateLayout), userID.Hex(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

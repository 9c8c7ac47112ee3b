package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/repository"
	"nutricoach/api/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMealNotFound       = errors.New("meal not found")
	ErrPhotosDisabled     = errors.New("photo storage is not configured")
	ErrInvalidContentType = errors.New("content type must be an image type")
	ErrInvalidObjectKey   = errors.New("object key does not belong to this meal")
	ErrNoPhoto            = errors.New("meal has no photo")
	ErrPhotoNotUploaded   = errors.New("photo has not been uploaded")
)

// endOfTime is the open upper bound for history queries.
var endOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// MealInput is a new meal as submitted by the client. ConsumedAt defaults
// to now.
type MealInput struct {
	Name        string
	Description string
	MealType    domain.MealType
	ConsumedAt  *time.Time
	Calories    int
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	FiberG      float64
	Notes       string
}

// MealPatch carries only the fields present in a partial update.
type MealPatch struct {
	Name        *string
	Description *string
	MealType    *domain.MealType
	ConsumedAt  *time.Time
	Calories    *int
	ProteinG    *float64
	CarbsG      *float64
	FatG        *float64
	FiberG      *float64
	Notes       *string
}

// PhotoUpload is a presigned slot the client PUTs the image to.
type PhotoUpload struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MealService manages the meal log. Every mutation keeps the affected daily
// aggregates in sync before returning.
type MealService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in MealInput) (*domain.Meal, error)
	Get(ctx context.Context, userID, mealID primitive.ObjectID) (*domain.Meal, error)
	ListForDay(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.Meal, error)
	// List returns the user's whole meal history, newest first.
	List(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error)
	Update(ctx context.Context, userID, mealID primitive.ObjectID, patch MealPatch) (*domain.Meal, error)
	Delete(ctx context.Context, userID, mealID primitive.ObjectID) error

	CreatePhotoUpload(ctx context.Context, userID, mealID primitive.ObjectID, contentType string) (*PhotoUpload, error)
	ConfirmPhoto(ctx context.Context, userID, mealID primitive.ObjectID, objectKey, contentType string) (*domain.Meal, error)
	PhotoURL(ctx context.Context, userID, mealID primitive.ObjectID) (string, error)
}

type mealService struct {
	mealRepo repository.MealRepository
	daily    DailyNutritionService
	files    storage.FileStorage // nil disables photos
	clock    *nutrition.Clock
}

func NewMealService(mealRepo repository.MealRepository, daily DailyNutritionService, files storage.FileStorage, clock *nutrition.Clock) MealService {
	return &mealService{mealRepo: mealRepo, daily: daily, files: files, clock: clock}
}

func (s *mealService) Create(ctx context.Context, userID primitive.ObjectID, in MealInput) (*domain.Meal, error) {
	consumedAt := s.clock.Now()
	if in.ConsumedAt != nil {
		consumedAt = *in.ConsumedAt
	}

	meal := &domain.Meal{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		MealType:    in.MealType,
		ConsumedAt:  consumedAt.UTC(),
		Calories:    in.Calories,
		ProteinG:    in.ProteinG,
		CarbsG:      in.CarbsG,
		FatG:        in.FatG,
		FiberG:      in.FiberG,
		Notes:       in.Notes,
	}
	if _, err := s.mealRepo.Create(ctx, meal); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}

	if err := reconcileDays(ctx, s.daily, s.clock, userID, meal.ConsumedAt); err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *mealService) Get(ctx context.Context, userID, mealID primitive.ObjectID) (*domain.Meal, error) {
	meal, err := s.mealRepo.GetByID(ctx, mealID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return meal, nil
}

// ListForDay returns the meals of one calendar day, newest first.
func (s *mealService) ListForDay(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]domain.Meal, error) {
	return s.mealRepo.ListByRange(ctx, userID, s.clock.StartOfDay(day), s.clock.EndOfDay(day), 0)
}

func (s *mealService) List(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error) {
	return s.mealRepo.ListByRange(ctx, userID, time.Time{}, endOfTime, 0)
}

// Update applies patch and reconciles the meal's previous day and, when
// consumedAt moved across midnight, the new day as well.
func (s *mealService) Update(ctx context.Context, userID, mealID primitive.ObjectID, patch MealPatch) (*domain.Meal, error) {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	previousConsumedAt := meal.ConsumedAt

	if patch.Name != nil {
		meal.Name = *patch.Name
	}
	if patch.Description != nil {
		meal.Description = *patch.Description
	}
	if patch.MealType != nil {
		meal.MealType = *patch.MealType
	}
	if patch.ConsumedAt != nil {
		meal.ConsumedAt = patch.ConsumedAt.UTC()
	}
	if patch.Calories != nil {
		meal.Calories = *patch.Calories
	}
	if patch.ProteinG != nil {
		meal.ProteinG = *patch.ProteinG
	}
	if patch.CarbsG != nil {
		meal.CarbsG = *patch.CarbsG
	}
	if patch.FatG != nil {
		meal.FatG = *patch.FatG
	}
	if patch.FiberG != nil {
		meal.FiberG = *patch.FiberG
	}
	if patch.Notes != nil {
		meal.Notes = *patch.Notes
	}

	if err := s.mealRepo.Update(ctx, meal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("update meal: %w", err)
	}

	if err := reconcileDays(ctx, s.daily, s.clock, userID, previousConsumedAt, meal.ConsumedAt); err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *mealService) Delete(ctx context.Context, userID, mealID primitive.ObjectID) error {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if err := s.mealRepo.Delete(ctx, mealID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealNotFound
		}
		return fmt.Errorf("delete meal: %w", err)
	}

	if meal.Photo != nil && s.files != nil {
		// Best effort; an orphaned object is harmless.
		if err := s.files.DeleteObject(ctx, meal.Photo.S3ObjectKey); err != nil {
			log.Printf("WARN: Failed to delete photo of meal %s: %v", mealID.Hex(), err)
		}
	}

	return reconcileDays(ctx, s.daily, s.clock, userID, meal.ConsumedAt)
}

// --- Photos ---

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/gif":  ".gif",
}

func photoPrefix(userID, mealID primitive.ObjectID) string {
	return path.Join("meals", userID.Hex(), mealID.Hex()) + "/"
}

func (s *mealService) CreatePhotoUpload(ctx context.Context, userID, mealID primitive.ObjectID, contentType string) (*PhotoUpload, error) {
	if s.files == nil {
		return nil, ErrPhotosDisabled
	}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrInvalidContentType
	}
	if _, err := s.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}

	objectKey := photoPrefix(userID, mealID) + uuid.NewString() + ext
	url, err := s.files.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &PhotoUpload{
		UploadURL: url,
		ObjectKey: objectKey,
		ExpiresAt: s.clock.Now().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

// ConfirmPhoto attaches an uploaded object to the meal, replacing and
// deleting any previous photo.
func (s *mealService) ConfirmPhoto(ctx context.Context, userID, mealID primitive.ObjectID, objectKey, contentType string) (*domain.Meal, error) {
	if s.files == nil {
		return nil, ErrPhotosDisabled
	}
	if !strings.HasPrefix(objectKey, photoPrefix(userID, mealID)) || strings.Contains(objectKey, "..") {
		return nil, ErrInvalidObjectKey
	}
	if _, ok := imageExtensions[strings.ToLower(contentType)]; !ok {
		return nil, ErrInvalidContentType
	}

	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	exists, err := s.files.ObjectExists(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("check uploaded photo: %w", err)
	}
	if !exists {
		return nil, ErrPhotoNotUploaded
	}
	previous := meal.Photo
	meal.Photo = &domain.MealPhoto{
		S3ObjectKey: objectKey,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.mealRepo.Update(ctx, meal); err != nil {
		return nil, fmt.Errorf("attach photo: %w", err)
	}

	if previous != nil && previous.S3ObjectKey != objectKey {
		if err := s.files.DeleteObject(ctx, previous.S3ObjectKey); err != nil {
			log.Printf("WARN: Failed to delete replaced photo of meal %s: %v", mealID.Hex(), err)
		}
	}
	return meal, nil
}

func (s *mealService) PhotoURL(ctx context.Context, userID, mealID primitive.ObjectID) (string, error) {
	if s.files == nil {
		return "", ErrPhotosDisabled
	}
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return "", err
	}
	if meal.Photo == nil {
		return "", ErrNoPhoto
	}
	return s.files.GeneratePresignedDownloadURL(ctx, meal.Photo.S3ObjectKey, storage.DefaultPresignedURLExpiry)
}

package api

import (
	"errors"
	"net/http"
	"time"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
)

type MealHandler struct {
	mealService service.MealService
	clock       *nutrition.Clock
}

func NewMealHandler(mealService service.MealService, clock *nutrition.Clock) *MealHandler {
	return &MealHandler{mealService: mealService, clock: clock}
}

type CreateMealRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	MealType    domain.MealType `json:"mealType" binding:"required,oneof=BREAKFAST LUNCH DINNER SNACK"`
	ConsumedAt  *time.Time      `json:"consumedAt"` // RFC 3339, defaults to now
	Calories    int             `json:"calories" binding:"gte=0"`
	ProteinG    float64         `json:"proteinG" binding:"gte=0"`
	CarbsG      float64         `json:"carbsG" binding:"gte=0"`
	FatG        float64         `json:"fatG" binding:"gte=0"`
	FiberG      float64         `json:"fiberG" binding:"gte=0"`
	Notes       string          `json:"notes"`
}

type UpdateMealRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1"`
	Description *string          `json:"description"`
	MealType    *domain.MealType `json:"mealType" binding:"omitempty,oneof=BREAKFAST LUNCH DINNER SNACK"`
	ConsumedAt  *time.Time       `json:"consumedAt"`
	Calories    *int             `json:"calories" binding:"omitempty,gte=0"`
	ProteinG    *float64         `json:"proteinG" binding:"omitempty,gte=0"`
	CarbsG      *float64         `json:"carbsG" binding:"omitempty,gte=0"`
	FatG        *float64         `json:"fatG" binding:"omitempty,gte=0"`
	FiberG      *float64         `json:"fiberG" binding:"omitempty,gte=0"`
	Notes       *string          `json:"notes"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmPhotoRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// dayParam reads ?date=YYYY-MM-DD in the reference zone, defaulting to today.
func dayParam(c *gin.Context, clock *nutrition.Clock) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return clock.Now(), true
	}
	day, err := clock.ParseDate(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD.")
		return time.Time{}, false
	}
	return day, true
}

func (h *MealHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	meal, err := h.mealService.Create(c.Request.Context(), userID, service.MealInput{
		Name:        req.Name,
		Description: req.Description,
		MealType:    req.MealType,
		ConsumedAt:  req.ConsumedAt,
		Calories:    req.Calories,
		ProteinG:    req.ProteinG,
		CarbsG:      req.CarbsG,
		FatG:        req.FatG,
		FiberG:      req.FiberG,
		Notes:       req.Notes,
	})
	if err != nil {
		internalError(c, "create meal", err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// List returns the meals of ?date=, or the whole history without it,
// newest first.
func (h *MealHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var (
		meals []domain.Meal
		err   error
	)
	if c.Query("date") == "" {
		meals, err = h.mealService.List(c.Request.Context(), userID)
	} else {
		day, ok := dayParam(c, h.clock)
		if !ok {
			return
		}
		meals, err = h.mealService.ListForDay(c.Request.Context(), userID, day)
	}
	if err != nil {
		internalError(c, "list meals", err)
		return
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	c.JSON(http.StatusOK, meals)
}

func (h *MealHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	meal, err := h.mealService.Get(c.Request.Context(), userID, mealID)
	if err != nil {
		h.fail(c, "load meal", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	meal, err := h.mealService.Update(c.Request.Context(), userID, mealID, service.MealPatch{
		Name:        req.Name,
		Description: req.Description,
		MealType:    req.MealType,
		ConsumedAt:  req.ConsumedAt,
		Calories:    req.Calories,
		ProteinG:    req.ProteinG,
		CarbsG:      req.CarbsG,
		FatG:        req.FatG,
		FiberG:      req.FiberG,
		Notes:       req.Notes,
	})
	if err != nil {
		h.fail(c, "update meal", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.mealService.Delete(c.Request.Context(), userID, mealID); err != nil {
		h.fail(c, "delete meal", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Photos ---

func (h *MealHandler) CreatePhotoUpload(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	upload, err := h.mealService.CreatePhotoUpload(c.Request.Context(), userID, mealID, req.ContentType)
	if err != nil {
		h.fail(c, "prepare photo upload", err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *MealHandler) ConfirmPhoto(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	meal, err := h.mealService.ConfirmPhoto(c.Request.Context(), userID, mealID, req.ObjectKey, req.ContentType)
	if err != nil {
		h.fail(c, "attach photo", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *MealHandler) PhotoURL(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	url, err := h.mealService.PhotoURL(c.Request.Context(), userID, mealID)
	if err != nil {
		h.fail(c, "load photo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *MealHandler) fail(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrMealNotFound):
		abortWithError(c, http.StatusNotFound, "Meal not found")
	case errors.Is(err, service.ErrNoPhoto):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidContentType), errors.Is(err, service.ErrInvalidObjectKey),
		errors.Is(err, service.ErrPhotoNotUploaded):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPhotosDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		internalError(c, what, err)
	}
}

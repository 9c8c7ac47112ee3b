package api

import (
	"errors"
	"net/http"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type ProfileRequest struct {
	Age                 int                       `json:"age" binding:"required,gte=13,lte=120"`
	Gender              domain.Gender             `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
	WeightKg            float64                   `json:"weightKg" binding:"required,gt=20,lte=300"`
	HeightCm            float64                   `json:"heightCm" binding:"required,gt=100,lte=250"`
	ActivityLevel       domain.ActivityLevel      `json:"activityLevel" binding:"required,oneof=SEDENTARY LIGHT MODERATE ACTIVE VERY_ACTIVE"`
	Goal                domain.Goal               `json:"goal" binding:"required,oneof=LOSE_WEIGHT MAINTAIN GAIN_WEIGHT BUILD_MUSCLE"`
	DietaryRestrictions []string                  `json:"dietaryRestrictions"`
	Allergies           []string                  `json:"allergies"`
	LikedFoods          []string                  `json:"likedFoods"`
	DislikedFoods       []string                  `json:"dislikedFoods"`
	DailyBudget         *decimal.Decimal          `json:"dailyBudget"`
	CookingPreference   *domain.CookingDifficulty `json:"cookingPreference" binding:"omitempty,oneof=NO_COOKING VERY_EASY EASY MEDIUM COMPLEX"`
}

type ProfilePatchRequest struct {
	Age                 *int                      `json:"age" binding:"omitempty,gte=13,lte=120"`
	Gender              *domain.Gender            `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	WeightKg            *float64                  `json:"weightKg" binding:"omitempty,gt=20,lte=300"`
	HeightCm            *float64                  `json:"heightCm" binding:"omitempty,gt=100,lte=250"`
	ActivityLevel       *domain.ActivityLevel     `json:"activityLevel" binding:"omitempty,oneof=SEDENTARY LIGHT MODERATE ACTIVE VERY_ACTIVE"`
	Goal                *domain.Goal              `json:"goal" binding:"omitempty,oneof=LOSE_WEIGHT MAINTAIN GAIN_WEIGHT BUILD_MUSCLE"`
	DietaryRestrictions *[]string                 `json:"dietaryRestrictions"`
	Allergies           *[]string                 `json:"allergies"`
	LikedFoods          *[]string                 `json:"likedFoods"`
	DislikedFoods       *[]string                 `json:"dislikedFoods"`
	DailyBudget         *decimal.Decimal          `json:"dailyBudget"`
	CookingPreference   *domain.CookingDifficulty `json:"cookingPreference" binding:"omitempty,oneof=NO_COOKING VERY_EASY EASY MEDIUM COMPLEX"`
}

func validBudget(b *decimal.Decimal) bool {
	return b == nil || !b.IsNegative()
}

// Upsert creates the profile or replaces it entirely.
func (h *ProfileHandler) Upsert(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	if !validBudget(req.DailyBudget) {
		abortValidation(c, errors.New("dailyBudget must not be negative"))
		return
	}

	profile, err := h.profileService.Upsert(c.Request.Context(), userID, service.ProfileInput{
		Age:                 req.Age,
		Gender:              req.Gender,
		WeightKg:            req.WeightKg,
		HeightCm:            req.HeightCm,
		ActivityLevel:       req.ActivityLevel,
		Goal:                req.Goal,
		DietaryRestrictions: req.DietaryRestrictions,
		Allergies:           req.Allergies,
		LikedFoods:          req.LikedFoods,
		DislikedFoods:       req.DislikedFoods,
		DailyBudget:         req.DailyBudget,
		CookingPreference:   req.CookingPreference,
	})
	if err != nil {
		h.fail(c, "save profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "load profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update merges the fields present in the body into the stored profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ProfilePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	if !validBudget(req.DailyBudget) {
		abortValidation(c, errors.New("dailyBudget must not be negative"))
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, service.ProfilePatch{
		Age:                 req.Age,
		Gender:              req.Gender,
		WeightKg:            req.WeightKg,
		HeightCm:            req.HeightCm,
		ActivityLevel:       req.ActivityLevel,
		Goal:                req.Goal,
		DietaryRestrictions: req.DietaryRestrictions,
		Allergies:           req.Allergies,
		LikedFoods:          req.LikedFoods,
		DislikedFoods:       req.DislikedFoods,
		DailyBudget:         req.DailyBudget,
		CookingPreference:   req.CookingPreference,
	})
	if err != nil {
		h.fail(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) fail(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, "Profile not found")
	case errors.Is(err, nutrition.ErrInvalidEnumValue):
		abortValidation(c, err)
	default:
		internalError(c, what, err)
	}
}

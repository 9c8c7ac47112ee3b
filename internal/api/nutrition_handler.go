package api

import (
	"net/http"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
)

// NutritionHandler serves the read side of the daily aggregates.
type NutritionHandler struct {
	dailyService service.DailyNutritionService
	clock        *nutrition.Clock
}

func NewNutritionHandler(dailyService service.DailyNutritionService, clock *nutrition.Clock) *NutritionHandler {
	return &NutritionHandler{dailyService: dailyService, clock: clock}
}

type DailySummaryResponse struct {
	Date    string                `json:"date"`
	Current domain.DailyNutrition `json:"current"`
	Targets *nutrition.Targets    `json:"targets"`
}

func (h *NutritionHandler) Daily(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	day, ok := dayParam(c, h.clock)
	if !ok {
		return
	}
	summary, err := h.dailyService.Daily(c.Request.Context(), userID, day)
	if err != nil {
		internalError(c, "load daily nutrition", err)
		return
	}
	c.JSON(http.StatusOK, DailySummaryResponse{
		Date:    summary.Date.Format(nutrition.DateLayout),
		Current: summary.Current,
		Targets: summary.Targets,
	})
}

func (h *NutritionHandler) Weekly(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	days, err := h.dailyService.Weekly(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "load weekly nutrition", err)
		return
	}
	if days == nil {
		days = []domain.DailyNutrition{}
	}
	c.JSON(http.StatusOK, days)
}

func (h *NutritionHandler) Stats(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	stats, err := h.dailyService.Stats(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "load nutrition stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

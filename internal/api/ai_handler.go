package api

import (
	"errors"
	"net/http"
	"strconv"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
)

// AIHandler exposes the AI coach.
type AIHandler struct {
	coachService service.CoachService
}

func NewAIHandler(coachService service.CoachService) *AIHandler {
	return &AIHandler{coachService: coachService}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type SuggestMealsRequest struct {
	MealType domain.MealType `json:"mealType" binding:"required,oneof=BREAKFAST LUNCH DINNER SNACK"`
}

func (h *AIHandler) Chat(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	reply, err := h.coachService.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		h.fail(c, "chat with coach", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}

// History returns ?limit= (default 50) latest messages, oldest first.
func (h *AIHandler) History(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, err := h.coachService.History(c.Request.Context(), userID, limit)
	if err != nil {
		internalError(c, "load chat history", err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

func (h *AIHandler) SuggestMeals(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req SuggestMealsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}
	suggestions, err := h.coachService.SuggestMeals(c.Request.Context(), userID, req.MealType)
	if err != nil {
		h.fail(c, "suggest meals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *AIHandler) ProgressAnalysis(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	analysis, err := h.coachService.AnalyzeProgress(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "analyze progress", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

// GenerateDailyPlan answers with the parsed plan object, or {rawPlan} when
// the model did not return valid JSON.
func (h *AIHandler) GenerateDailyPlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	plan, err := h.coachService.GenerateDailyPlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileRequired) {
			abortWithError(c, http.StatusBadRequest, "Please complete your profile first")
			return
		}
		internalError(c, "generate meal plan", err)
		return
	}
	if plan.Plan == nil {
		c.JSON(http.StatusOK, gin.H{"rawPlan": plan.Raw})
		return
	}
	c.JSON(http.StatusOK, plan.Plan)
}

func (h *AIHandler) fail(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrProfileRequired):
		abortWithError(c, http.StatusBadRequest, "Please complete your profile first")
	case errors.Is(err, service.ErrGenerationFailed):
		abortWithError(c, http.StatusBadGateway, "The AI coach is unavailable right now.")
	default:
		internalError(c, what, err)
	}
}

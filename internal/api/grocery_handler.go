package api

import (
	"errors"
	"net/http"

	"nutricoach/api/internal/domain"
	"nutricoach/api/internal/repository"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type GroceryHandler struct {
	groceryService service.GroceryService
}

func NewGroceryHandler(groceryService service.GroceryService) *GroceryHandler {
	return &GroceryHandler{groceryService: groceryService}
}

type CreateGroceryRequest struct {
	Name         string                     `json:"name" binding:"required"`
	Category     domain.GroceryCategory     `json:"category" binding:"required"`
	Subcategory  *domain.GrocerySubcategory `json:"subcategory"`
	PackagePrice decimal.Decimal            `json:"packagePrice"`
	PackageSize  float64                    `json:"packageSize" binding:"required,gt=0"`
	PackageUnit  string                     `json:"packageUnit" binding:"required"`
	Difficulty   domain.CookingDifficulty   `json:"difficulty" binding:"required,oneof=NO_COOKING VERY_EASY EASY MEDIUM COMPLEX"`
}

// UpdateGroceryRequest is a partial update. An empty subcategory clears it.
type UpdateGroceryRequest struct {
	Name         *string                   `json:"name" binding:"omitempty,min=1"`
	Category     *domain.GroceryCategory   `json:"category"`
	Subcategory  *string                   `json:"subcategory"`
	PackagePrice *decimal.Decimal          `json:"packagePrice"`
	PackageSize  *float64                  `json:"packageSize" binding:"omitempty,gt=0"`
	PackageUnit  *string                   `json:"packageUnit" binding:"omitempty,min=1"`
	Difficulty   *domain.CookingDifficulty `json:"difficulty" binding:"omitempty,oneof=NO_COOKING VERY_EASY EASY MEDIUM COMPLEX"`
}

// GroceryResponse adds the derived per-unit price.
type GroceryResponse struct {
	domain.GroceryItem
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func MapGroceryToResponse(item *domain.GroceryItem) GroceryResponse {
	return GroceryResponse{GroceryItem: *item, UnitPrice: item.UnitPrice()}
}

func MapGroceriesToResponse(items []domain.GroceryItem) []GroceryResponse {
	responses := make([]GroceryResponse, len(items))
	for i := range items {
		responses[i] = MapGroceryToResponse(&items[i])
	}
	return responses
}

func (h *GroceryHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateGroceryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	item, err := h.groceryService.Create(c.Request.Context(), userID, service.GroceryInput{
		Name:         req.Name,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		PackagePrice: req.PackagePrice,
		PackageSize:  req.PackageSize,
		PackageUnit:  req.PackageUnit,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		h.fail(c, "create grocery item", err)
		return
	}
	c.JSON(http.StatusCreated, MapGroceryToResponse(item))
}

// List filters by ?category=&subcategory=&difficulty=&search=.
func (h *GroceryHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	filter := repository.GroceryFilter{
		Category:    domain.GroceryCategory(c.Query("category")),
		Subcategory: domain.GrocerySubcategory(c.Query("subcategory")),
		Difficulty:  domain.CookingDifficulty(c.Query("difficulty")),
		Search:      c.Query("search"),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unknown category.")
		return
	}
	if filter.Subcategory != "" && !filter.Subcategory.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unknown subcategory.")
		return
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		abortWithError(c, http.StatusBadRequest, "Unknown difficulty.")
		return
	}

	items, err := h.groceryService.List(c.Request.Context(), userID, filter)
	if err != nil {
		internalError(c, "list grocery items", err)
		return
	}
	c.JSON(http.StatusOK, MapGroceriesToResponse(items))
}

func (h *GroceryHandler) Stats(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	stats, err := h.groceryService.Stats(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "load grocery stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *GroceryHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	item, err := h.groceryService.Get(c.Request.Context(), userID, itemID)
	if err != nil {
		h.fail(c, "load grocery item", err)
		return
	}
	c.JSON(http.StatusOK, MapGroceryToResponse(item))
}

func (h *GroceryHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateGroceryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, err)
		return
	}

	patch := service.GroceryPatch{
		Name:         req.Name,
		Category:     req.Category,
		PackagePrice: req.PackagePrice,
		PackageSize:  req.PackageSize,
		PackageUnit:  req.PackageUnit,
		Difficulty:   req.Difficulty,
	}
	if req.Subcategory != nil {
		if *req.Subcategory == "" {
			patch.ClearSubcategory = true
		} else {
			sub := domain.GrocerySubcategory(*req.Subcategory)
			patch.Subcategory = &sub
		}
	}

	item, err := h.groceryService.Update(c.Request.Context(), userID, itemID, patch)
	if err != nil {
		h.fail(c, "update grocery item", err)
		return
	}
	c.JSON(http.StatusOK, MapGroceryToResponse(item))
}

func (h *GroceryHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	itemID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.groceryService.Delete(c.Request.Context(), userID, itemID); err != nil {
		h.fail(c, "delete grocery item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GroceryHandler) DeleteAll(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	n, err := h.groceryService.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "delete grocery items", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *GroceryHandler) fail(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrGroceryNotFound):
		abortWithError(c, http.StatusNotFound, "Grocery item not found")
	case errors.Is(err, service.ErrValidation):
		abortValidation(c, err)
	default:
		internalError(c, what, err)
	}
}

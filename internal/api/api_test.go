package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutricoach/api/internal/lock"
	"nutricoach/api/internal/nutrition"
	"nutricoach/api/internal/realtime"
	"nutricoach/api/internal/repository/memory"
	"nutricoach/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

type testApp struct {
	router    *gin.Engine
	hub       *realtime.Hub
	generator *stubGenerator
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clock := nutrition.NewClock(time.UTC)
	hub := realtime.NewHub()
	generator := &stubGenerator{reply: "Drink water."}

	daily := service.NewDailyNutritionService(store.Meals(), store.DailyNutrition(), store.Profiles(), lock.NewLocalLocker(), clock, hub)
	router := gin.New()
	SetupRoutes(router, []string{"http://localhost:5173"}, Services{
		Auth:      service.NewAuthService(store.Users(), "test-secret", time.Hour),
		Profile:   service.NewProfileService(store.Profiles()),
		Meal:      service.NewMealService(store.Meals(), daily, nil, clock),
		Nutrition: daily,
		Grocery:   service.NewGroceryService(store.Groceries()),
		Coach:     service.NewCoachService(store.Profiles(), store.Meals(), store.DailyNutrition(), store.Groceries(), store.Chat(), generator, clock),
		Hub:       hub,
		Clock:     clock,
	})
	return &testApp{router: router, hub: hub, generator: generator}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"name": "Test", "email": email, "password": "secret1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup = %d %s", w.Code, w.Body.String())
	}
	return decode[AuthResponse](t, w).Token
}

func firstUserID(t *testing.T, a *testApp, token string) primitive.ObjectID {
	t.Helper()
	w := a.do(t, http.MethodGet, "/api/v1/me", token, nil)
	id, err := primitive.ObjectIDFromHex(decode[UserResponse](t, w).ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	return id
}

var validProfile = gin.H{
	"age": 30, "gender": "MALE", "weightKg": 80, "heightCm": 180,
	"activityLevel": "MODERATE", "goal": "MAINTAIN",
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["status"] != "healthy" {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "ada@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup = %d", w.Code)
	}

	w = app.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"name": "Ada", "email": "not-an-email", "password": "123"})
	if w.Code != http.StatusBadRequest || decode[map[string]any](t, w)["error"] != "Validation error" {
		t.Errorf("invalid signup = %d %s", w.Code, w.Body.String())
	}

	w = app.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "secret1"})
	if w.Code != http.StatusOK || decode[AuthResponse](t, w).User.Email != "ada@example.com" {
		t.Errorf("login = %d %s", w.Code, w.Body.String())
	}

	if w := app.do(t, http.MethodGet, "/api/v1/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me without token = %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/v1/me", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("me with bad token = %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/v1/me", token, nil); w.Code != http.StatusOK || decode[UserResponse](t, w).Email != "ada@example.com" {
		t.Errorf("me = %d %s", w.Code, w.Body.String())
	}
	if w := app.do(t, http.MethodGet, "/api/v1/me?token="+token, "", nil); w.Code != http.StatusOK {
		t.Errorf("me with query token = %d", w.Code)
	}
}

func TestProfileEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "p@example.com")

	if w := app.do(t, http.MethodGet, "/api/v1/profile", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing profile = %d", w.Code)
	}
	if w := app.do(t, http.MethodPatch, "/api/v1/profile", token, gin.H{"age": 31}); w.Code != http.StatusNotFound {
		t.Errorf("patch missing profile = %d", w.Code)
	}

	bad := gin.H{}
	for k, v := range validProfile {
		bad[k] = v
	}
	bad["age"] = 5
	if w := app.do(t, http.MethodPost, "/api/v1/profile", token, bad); w.Code != http.StatusBadRequest {
		t.Errorf("age 5 = %d", w.Code)
	}

	w := app.do(t, http.MethodPost, "/api/v1/profile", token, validProfile)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert = %d %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]any](t, w)["targetCalories"]; got != float64(2759) {
		t.Errorf("targetCalories = %v", got)
	}

	w = app.do(t, http.MethodPatch, "/api/v1/profile", token, gin.H{"goal": "BUILD_MUSCLE", "cookingPreference": "MEDIUM"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	body := decode[map[string]any](t, w)
	if body["targetCalories"] != float64(3159) || body["cookingPreference"] != "MEDIUM" {
		t.Errorf("patched profile = %v", body)
	}

	if w := app.do(t, http.MethodPatch, "/api/v1/profile", token, gin.H{"goal": "GET_RICH"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown goal = %d", w.Code)
	}
}

func TestMealAndNutritionEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "m@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "Oats", "mealType": "BREAKFAST", "calories": 350, "proteinG": 12.5})
	if w.Code != http.StatusCreated {
		t.Fatalf("create meal = %d %s", w.Code, w.Body.String())
	}
	mealID := decode[map[string]any](t, w)["id"].(string)

	if w := app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "X", "mealType": "BRUNCH"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad meal type = %d", w.Code)
	}
	if w := app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "X", "mealType": "LUNCH", "calories": -1}); w.Code != http.StatusBadRequest {
		t.Errorf("negative calories = %d", w.Code)
	}

	today := time.Now().UTC().Format(nutrition.DateLayout)
	w = app.do(t, http.MethodGet, "/api/v1/meals?date="+today, token, nil)
	if w.Code != http.StatusOK || len(decode[[]map[string]any](t, w)) != 1 {
		t.Errorf("list = %d %s", w.Code, w.Body.String())
	}
	if w := app.do(t, http.MethodGet, "/api/v1/meals?date=31-01-2025", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/v1/nutrition/daily", token, nil)
	daily := decode[map[string]any](t, w)
	current := daily["current"].(map[string]any)
	if current["totalCalories"] != float64(350) || daily["targets"] != nil || daily["date"] != today {
		t.Errorf("daily = %v", daily)
	}

	w = app.do(t, http.MethodPatch, "/api/v1/meals/"+mealID, token, gin.H{"calories": 400})
	if w.Code != http.StatusOK {
		t.Errorf("patch meal = %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/v1/nutrition/stats", token, nil)
	stats := decode[map[string]any](t, w)
	if stats["totalMealsLogged"] != float64(1) || stats["currentStreak"] != float64(1) || stats["avgDailyCalories"] != float64(400) {
		t.Errorf("stats = %v", stats)
	}

	w = app.do(t, http.MethodGet, "/api/v1/nutrition/weekly", token, nil)
	if w.Code != http.StatusOK || len(decode[[]map[string]any](t, w)) != 1 {
		t.Errorf("weekly = %s", w.Body.String())
	}

	other := app.signup(t, "other@example.com")
	if w := app.do(t, http.MethodGet, "/api/v1/meals/"+mealID, other, nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign meal = %d", w.Code)
	}
	if w := app.do(t, http.MethodGet, "/api/v1/meals/not-an-id", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("malformed id = %d", w.Code)
	}
	if w := app.do(t, http.MethodPost, "/api/v1/meals/"+mealID+"/photo/upload-url", token, gin.H{"contentType": "image/png"}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("photo without storage = %d", w.Code)
	}

	if w := app.do(t, http.MethodDelete, "/api/v1/meals/"+mealID, token, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	w = app.do(t, http.MethodGet, "/api/v1/nutrition/daily", token, nil)
	if decode[map[string]any](t, w)["current"].(map[string]any)["mealsCount"] != float64(0) {
		t.Errorf("daily after delete = %s", w.Body.String())
	}
}

func TestMealList_WithoutDateReturnsHistory(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "history@example.com")

	earlier := time.Now().UTC().AddDate(0, 0, -3).Format(time.RFC3339)
	app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "Soup", "mealType": "DINNER", "calories": 300, "consumedAt": earlier})
	app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "Toast", "mealType": "BREAKFAST", "calories": 200})

	w := app.do(t, http.MethodGet, "/api/v1/meals", token, nil)
	meals := decode[[]map[string]any](t, w)
	if w.Code != http.StatusOK || len(meals) != 2 || meals[0]["name"] != "Toast" || meals[1]["name"] != "Soup" {
		t.Errorf("history = %d %s", w.Code, w.Body.String())
	}

	today := time.Now().UTC().Format(nutrition.DateLayout)
	w = app.do(t, http.MethodGet, "/api/v1/meals?date="+today, token, nil)
	if len(decode[[]map[string]any](t, w)) != 1 {
		t.Errorf("today = %s", w.Body.String())
	}
}

func TestGroceryEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "g@example.com")

	item := gin.H{
		"name": "Chicken Breast", "category": "PROTEINS", "subcategory": "PROTEIN_POULTRY",
		"packagePrice": "7.32", "packageSize": 1000, "packageUnit": "g", "difficulty": "EASY",
	}
	w := app.do(t, http.MethodPost, "/api/v1/grocery", token, item)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	created := decode[map[string]any](t, w)
	if created["unitPrice"] != "0.0073" {
		t.Errorf("unitPrice = %v", created["unitPrice"])
	}
	id := created["id"].(string)

	item["subcategory"] = "DAIRY_MILK"
	if w := app.do(t, http.MethodPost, "/api/v1/grocery", token, item); w.Code != http.StatusBadRequest {
		t.Errorf("mismatched subcategory = %d", w.Code)
	}

	w = app.do(t, http.MethodGet, "/api/v1/grocery?search=chick&category=PROTEINS", token, nil)
	if len(decode[[]map[string]any](t, w)) != 1 {
		t.Errorf("search = %s", w.Body.String())
	}
	if w := app.do(t, http.MethodGet, "/api/v1/grocery?category=CANDY", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown category filter = %d", w.Code)
	}

	w = app.do(t, http.MethodPatch, "/api/v1/grocery/"+id, token, gin.H{"subcategory": ""})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	if _, ok := decode[map[string]any](t, w)["subcategory"]; ok {
		t.Error("subcategory should be cleared")
	}

	w = app.do(t, http.MethodGet, "/api/v1/grocery/stats", token, nil)
	if decode[map[string]any](t, w)["total"] != float64(1) {
		t.Errorf("stats = %s", w.Body.String())
	}

	w = app.do(t, http.MethodDelete, "/api/v1/grocery/all", token, nil)
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["deleted"] != float64(1) {
		t.Errorf("delete all = %d %s", w.Code, w.Body.String())
	}
	if w := app.do(t, http.MethodGet, "/api/v1/grocery/"+id, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d", w.Code)
	}
}

func TestAIEndpoints(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "ai@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{"message": "hi"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "profile") {
		t.Errorf("chat without profile = %d %s", w.Code, w.Body.String())
	}

	app.do(t, http.MethodPost, "/api/v1/profile", token, validProfile)

	w = app.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{"message": "hi"})
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["message"] != "Drink water." {
		t.Errorf("chat = %d %s", w.Code, w.Body.String())
	}
	w = app.do(t, http.MethodGet, "/api/v1/ai/chat/history?limit=1", token, nil)
	history := decode[[]map[string]any](t, w)
	if len(history) != 1 || history[0]["role"] != "ASSISTANT" {
		t.Errorf("history = %v", history)
	}

	if w := app.do(t, http.MethodPost, "/api/v1/ai/suggest-meals", token, gin.H{"mealType": "ELEVENSES"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad meal type = %d", w.Code)
	}

	w = app.do(t, http.MethodPost, "/api/v1/ai/generate-daily-plan", token, nil)
	if w.Code != http.StatusOK || decode[map[string]any](t, w)["rawPlan"] != "Drink water." {
		t.Errorf("raw plan = %d %s", w.Code, w.Body.String())
	}

	app.generator.reply = `{"summary":"ok"}`
	w = app.do(t, http.MethodPost, "/api/v1/ai/generate-daily-plan", token, nil)
	if decode[map[string]any](t, w)["summary"] != "ok" {
		t.Errorf("plan = %s", w.Body.String())
	}

	app.generator.err = context.DeadlineExceeded
	if w := app.do(t, http.MethodGet, "/api/v1/ai/progress-analysis", token, nil); w.Code != http.StatusBadGateway {
		t.Errorf("analysis with failing model = %d", w.Code)
	}
	w = app.do(t, http.MethodPost, "/api/v1/ai/generate-daily-plan", token, nil)
	if w.Code != http.StatusInternalServerError || decode[map[string]any](t, w)["error"] != "Failed to generate meal plan." {
		t.Errorf("plan with failing model = %d %s", w.Code, w.Body.String())
	}
}

func TestWebsocketReceivesDailyUpdates(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "ws@example.com")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	if _, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without token should be rejected, err=%v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	userID := firstUserID(t, app, token)
	deadline := time.Now().Add(2 * time.Second)
	for app.hub.Connections(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	app.do(t, http.MethodPost, "/api/v1/meals", token, gin.H{"name": "Apple", "mealType": "SNACK", "calories": 95})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Kind  string         `json:"kind"`
		Daily map[string]any `json:"daily"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Kind != realtime.KindDailyUpdated || event.Daily["totalCalories"] != float64(95) {
		t.Errorf("event = %+v", event)
	}
}

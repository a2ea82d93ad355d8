package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lg/aura-go-api/gamify"
)

const (
	testToken    = "test-token"
	testPassword = "hunter22"
)

func floatPtr(v float64) *float64 { return &v }

// testFoods is the catalog seeded for every handler test.
var testFoods = []foodItem{
	{ID: 1, NameEnglish: "Chicken Breast", Category: "protein", CaloriesPer100g: 165, ProteinPer100g: 31, FatsPer100g: 3.6, MagnesiumPer100g: 29, ZincPer100g: 1, IsHighProtein: true},
	{ID: 2, NameEnglish: "Moong Dal", Category: "dal", CaloriesPer100g: 105, ProteinPer100g: 7, CarbsPer100g: 19, FatsPer100g: 0.4, FiberPer100g: 5, MagnesiumPer100g: 40, ZincPer100g: 0.9, HasTypicalTadka: true, TypicalTadkaOilML: floatPtr(5)},
	{ID: 3, NameEnglish: "Palak Paneer", Category: "sabzi", CaloriesPer100g: 180, ProteinPer100g: 8, CarbsPer100g: 6, FatsPer100g: 14, FiberPer100g: 2, MagnesiumPer100g: 45, ZincPer100g: 1.1},
	{ID: 4, NameEnglish: "Paneer Tikka", Category: "protein", CaloriesPer100g: 250, ProteinPer100g: 20, CarbsPer100g: 5, FatsPer100g: 17, MagnesiumPer100g: 20, ZincPer100g: 2.5, IsHighProtein: true},
}

// setupTestServer builds the full router over a fresh SQLite store with one
// user (token testToken) and the test catalog.
func setupTestServer(t *testing.T) (*gin.Engine, *sqliteStore, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := newSQLiteStore(filepath.Join(t.TempDir(), "aura.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.close)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := user{Username: "lyle", Email: "lyle@example.com", Password: string(hash), AuthToken: testToken}
	if err := s.db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	foods := append([]foodItem(nil), testFoods...)
	if err := s.db.Create(&foods).Error; err != nil {
		t.Fatalf("seed foods: %v", err)
	}

	h := newHandler(s, nil, zap.NewNop().Sugar())
	return newRouter(h, []string{"http://localhost:5173"}), s, u.ID
}

// doRequest sends a request with the test bearer token (when token != "").
func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body, failing the test on error.
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// onboard creates a 70kg, 175cm, 22-year-old recomp profile.
func onboard(t *testing.T, router *gin.Engine) profile {
	t.Helper()
	w := doRequest(router, "POST", "/api/profile/onboard", testToken,
		`{"display_name":"Lyle","height_cm":175,"current_weight_kg":70,"age":22,"goal":"recomp"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("onboard: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[profile](t, w)
}

// chickenMeal is 500g of chicken breast (155g protein) on date.
func chickenMeal(date string) string {
	return `{"meal_type":"lunch","date":"` + date + `","items":[{"food_id":1,"quantity_g":500}],"tadka_oil_ml":0}`
}

/* ─── Auth tests ─────────────────────────────────────────────────────── */

// TestLogin_Success verifies correct credentials return the stored token.
func TestLogin_Success(t *testing.T) {
	router, _, userID := setupTestServer(t)

	w := doRequest(router, "POST", "/api/login", "", `{"username":"lyle","password":"`+testPassword+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]any](t, w)
	if resp["token"] != testToken {
		t.Errorf("token = %v, want %s", resp["token"], testToken)
	}
	if resp["user_id"] != float64(userID) {
		t.Errorf("user_id = %v, want %d", resp["user_id"], userID)
	}
}

// TestLogin_InvalidCredentials verifies a wrong password and an unknown
// username both get the same 401.
func TestLogin_InvalidCredentials(t *testing.T) {
	router, _, _ := setupTestServer(t)

	for _, body := range []string{
		`{"username":"lyle","password":"wrong"}`,
		`{"username":"nobody","password":"` + testPassword + `"}`,
	} {
		w := doRequest(router, "POST", "/api/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", body, w.Code)
		}
	}
}

// TestAuthMiddleware_RejectsBadTokens verifies protected routes need a valid
// bearer token.
func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	router, _, _ := setupTestServer(t)

	if w := doRequest(router, "GET", "/api/profile", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}
	if w := doRequest(router, "GET", "/api/profile", "not-a-token", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}

/* ─── Profile tests ──────────────────────────────────────────────────── */

// TestOnboard_ComputesTargets verifies onboarding stores the computed
// targets and a fresh game state.
func TestOnboard_ComputesTargets(t *testing.T) {
	router, _, userID := setupTestServer(t)
	p := onboard(t, router)

	if p.UserID != userID {
		t.Errorf("user_id = %d, want %d", p.UserID, userID)
	}
	if p.ProteinTargetG != 140 || p.FatsTargetG != 63 || p.CaloriesTarget != 2623 {
		t.Errorf("targets = %d/%d/%d, want 140/63/2623", p.ProteinTargetG, p.FatsTargetG, p.CaloriesTarget)
	}
	if p.MagnesiumTargetMG != 400 || p.ZincTargetMG != 15 || p.FiberTargetG != 40 {
		t.Errorf("micro targets = %d/%d/%d, want 400/15/40", p.MagnesiumTargetMG, p.ZincTargetMG, p.FiberTargetG)
	}
	if p.TotalXP != 0 || p.CurrentLevel != 1 || p.CurrentHP != 100 || p.MaxHP != 100 {
		t.Errorf("game stats = xp %d level %d hp %d/%d, want fresh start", p.TotalXP, p.CurrentLevel, p.CurrentHP, p.MaxHP)
	}
	if p.Rank != string(gamify.RankNovice) {
		t.Errorf("rank = %q, want %q", p.Rank, gamify.RankNovice)
	}
	if p.DietaryRegion != defaultDietaryRegion {
		t.Errorf("dietary_region = %q, want %q", p.DietaryRegion, defaultDietaryRegion)
	}
	if p.ComputedTDEE == nil || *p.ComputedTDEE != 2623 {
		t.Errorf("computed_tdee = %v, want 2623", p.ComputedTDEE)
	}
}

// TestOnboard_Rejects verifies bad goals and body stats are 400s.
func TestOnboard_Rejects(t *testing.T) {
	router, _, _ := setupTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"unknown goal", `{"height_cm":175,"current_weight_kg":70,"age":22,"goal":"shred"}`},
		{"zero weight", `{"height_cm":175,"current_weight_kg":0,"age":22}`},
		{"bad body type", `{"height_cm":175,"current_weight_kg":70,"age":22,"body_type":"blob"}`},
		{"too young", `{"height_cm":175,"current_weight_kg":70,"age":12}`},
		{"implausible height", `{"height_cm":17.5,"current_weight_kg":70,"age":22}`},
		{"malformed", `{"height_cm":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/profile/onboard", testToken, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

// TestGetProfile_NotFound verifies a user without a profile gets 404.
func TestGetProfile_NotFound(t *testing.T) {
	router, _, _ := setupTestServer(t)

	w := doRequest(router, "GET", "/api/profile", testToken, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// TestGetProfile_RecomputesLevel verifies level and rank come from total_xp
// even when the stored columns disagree.
func TestGetProfile_RecomputesLevel(t *testing.T) {
	router, s, userID := setupTestServer(t)
	onboard(t, router)

	// 1000 XP is level 5.
	err := s.db.Model(&profile{}).Where("user_id = ?", userID).
		Updates(map[string]any{"total_xp": 1000, "current_level": 1, "rank": "Novice"}).Error
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	p := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, ""))
	if p.CurrentLevel != gamify.LevelForXP(1000) {
		t.Errorf("level = %d, want %d", p.CurrentLevel, gamify.LevelForXP(1000))
	}
	if p.Rank != string(gamify.RankForLevel(p.CurrentLevel)) {
		t.Errorf("rank = %q, want %q", p.Rank, gamify.RankForLevel(p.CurrentLevel))
	}
	if p.ProgressPercent != gamify.LevelProgressPercent(1000) {
		t.Errorf("progress = %d, want %d", p.ProgressPercent, gamify.LevelProgressPercent(1000))
	}
}

// TestPatchProfile_UpdatesEditableFields verifies a partial update writes
// only the sent fields and ignores game stats in the body.
func TestPatchProfile_UpdatesEditableFields(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	w := doRequest(router, "PATCH", "/api/profile", testToken,
		`{"current_weight_kg":68.5,"protein_target_g":150,"total_xp":99999,"current_level":40}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[profile](t, w)
	if p.CurrentWeightKG != 68.5 || p.ProteinTargetG != 150 {
		t.Errorf("weight/protein = %v/%d, want 68.5/150", p.CurrentWeightKG, p.ProteinTargetG)
	}
	if p.StartingWeightKG != 70 {
		t.Errorf("starting_weight_kg = %v, want 70 (unchanged)", p.StartingWeightKG)
	}
	if p.TotalXP != 0 || p.CurrentLevel != 1 {
		t.Errorf("game stats changed: xp %d level %d", p.TotalXP, p.CurrentLevel)
	}
}

// TestPatchProfile_Rejects verifies non-positive values and empty bodies are
// 400s.
func TestPatchProfile_Rejects(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	for _, body := range []string{
		`{"protein_target_g":0}`,
		`{"calories_target":-100}`,
		`{"current_weight_kg":0}`,
		`{"current_weight_kg":250}`,
		`{"fats_target_g":10}`,
		`{"zinc_target_mg":0}`,
		`{}`,
		`{"total_xp":500}`,
	} {
		w := doRequest(router, "PATCH", "/api/profile", testToken, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

// TestRecalculateTargets verifies targets are recomputed from the current
// weight for the requested goal.
func TestRecalculateTargets(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	w := doRequest(router, "POST", "/api/profile/recalculate", testToken, `{"goal":"bulk"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[profile](t, w)
	if p.Goal != "bulk" || p.CaloriesTarget != 2923 || p.CarbsTargetG != 449 {
		t.Errorf("got goal %q calories %d carbs %d, want bulk/2923/449", p.Goal, p.CaloriesTarget, p.CarbsTargetG)
	}

	// No body means recomp.
	p = decode[profile](t, doRequest(router, "POST", "/api/profile/recalculate", testToken, ""))
	if p.Goal != "recomp" || p.CaloriesTarget != 2623 {
		t.Errorf("got goal %q calories %d, want recomp/2623", p.Goal, p.CaloriesTarget)
	}
}

/* ─── Food tests ─────────────────────────────────────────────────────── */

// TestSearchFoods_HighProteinFirst verifies high-protein matches sort ahead
// of alphabetical order.
func TestSearchFoods_HighProteinFirst(t *testing.T) {
	router, _, _ := setupTestServer(t)

	w := doRequest(router, "GET", "/api/foods?q=PANEER", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	foods := decode[[]foodItem](t, w)
	var names []string
	for _, f := range foods {
		names = append(names, f.NameEnglish)
	}
	want := []string{"Paneer Tikka", "Palak Paneer"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

// TestSearchFoods_Query verifies the minimum length and that LIKE
// wildcards in the query match literally.
func TestSearchFoods_Query(t *testing.T) {
	router, _, _ := setupTestServer(t)

	if w := doRequest(router, "GET", "/api/foods?q=p", testToken, ""); w.Code != http.StatusBadRequest {
		t.Errorf("short query: expected 400, got %d", w.Code)
	}

	w := doRequest(router, "GET", "/api/foods?q=%25%25", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("wildcard query: expected 200, got %d", w.Code)
	}
	if foods := decode[[]foodItem](t, w); len(foods) != 0 {
		t.Errorf("wildcard query matched %d foods, want 0", len(foods))
	}
}

// TestGetFood verifies lookup by id, 404 for unknown ids, and 400 for bad ids.
func TestGetFood(t *testing.T) {
	router, _, _ := setupTestServer(t)

	w := doRequest(router, "GET", "/api/foods/2", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if f := decode[foodItem](t, w); f.NameEnglish != "Moong Dal" || !f.HasTypicalTadka {
		t.Errorf("got %+v", f)
	}
	if w := doRequest(router, "GET", "/api/foods/999", testToken, ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
	if w := doRequest(router, "GET", "/api/foods/abc", testToken, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}

/* ─── Meal tests ─────────────────────────────────────────────────────── */

// TestPreviewMatchesCommit verifies preview and commit score the same meal
// identically, and that preview persists nothing.
func TestPreviewMatchesCommit(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	body := `{"meal_type":"dinner","date":"2026-03-01","items":[{"food_id":2,"quantity_g":250},{"food_id":4,"quantity_g":150}],"has_gujju_sugar":true}`

	w := doRequest(router, "POST", "/api/meals/preview", testToken, body)
	if w.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	preview := decode[mealPreviewResponse](t, w)

	if p := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, "")); p.TotalXP != 0 {
		t.Fatalf("preview persisted XP: %d", p.TotalXP)
	}

	w = doRequest(router, "POST", "/api/meals", testToken, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("commit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	commit := decode[mealCommitResponse](t, w)

	if !reflect.DeepEqual(preview.Evaluation, commit.Evaluation) {
		t.Errorf("evaluation differs:\npreview %+v\ncommit  %+v", preview.Evaluation, commit.Evaluation)
	}
	if preview.Advancement != commit.Advancement {
		t.Errorf("advancement differs:\npreview %+v\ncommit  %+v", preview.Advancement, commit.Advancement)
	}
	if !reflect.DeepEqual(preview.Items, commit.MealLog.Items) {
		t.Errorf("items differ:\npreview %+v\ncommit  %+v", preview.Items, commit.MealLog.Items)
	}
}

// TestCommitMeal_UpdatesProfile verifies the saved meal and the profile's
// XP, HP, and last log date reflect the evaluation.
func TestCommitMeal_UpdatesProfile(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	w := doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-03-01"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[mealCommitResponse](t, w)

	if resp.Evaluation.XP.TotalXP <= 0 {
		t.Fatalf("expected a positive XP award, got %d", resp.Evaluation.XP.TotalXP)
	}
	if resp.MealLog.ID == 0 || resp.MealLog.XPEarned != resp.Evaluation.XP.TotalXP {
		t.Errorf("meal log = %+v", resp.MealLog)
	}
	if resp.MealLog.TotalProteinG != 155 {
		t.Errorf("total_protein_g = %v, want 155", resp.MealLog.TotalProteinG)
	}
	if resp.MealLog.CoachTip == nil || *resp.MealLog.CoachTip != resp.Evaluation.CoachTip.Message {
		t.Errorf("coach_tip = %v, want %q", resp.MealLog.CoachTip, resp.Evaluation.CoachTip.Message)
	}
	if resp.NewLevel != resp.Advancement.Level || resp.LeveledUp != resp.Advancement.LeveledUp {
		t.Errorf("new_level/leveled_up = %d/%v, advancement %+v", resp.NewLevel, resp.LeveledUp, resp.Advancement)
	}

	p := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, ""))
	if p.TotalXP != resp.Evaluation.XP.TotalXP {
		t.Errorf("total_xp = %d, want %d", p.TotalXP, resp.Evaluation.XP.TotalXP)
	}
	if p.CurrentHP != resp.Advancement.CurrentHP || p.CurrentHP != resp.MealLog.HPAfter {
		t.Errorf("current_hp = %d, advancement %d, hp_after %d", p.CurrentHP, resp.Advancement.CurrentHP, resp.MealLog.HPAfter)
	}
	if p.LastLogDate == nil || p.LastLogDate.String() != "2026-03-01" {
		t.Errorf("last_log_date = %v, want 2026-03-01", p.LastLogDate)
	}

	// A second meal accumulates; an earlier date doesn't move last_log_date back.
	second := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-02-27")))
	p = decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, ""))
	if want := resp.Evaluation.XP.TotalXP + second.Evaluation.XP.TotalXP; p.TotalXP != want {
		t.Errorf("total_xp = %d, want %d", p.TotalXP, want)
	}
	if p.LastLogDate.String() != "2026-03-01" {
		t.Errorf("last_log_date = %s, want 2026-03-01", p.LastLogDate)
	}
}

// TestCommitMeal_EstimatesTadkaOil verifies an omitted tadka_oil_ml is
// estimated from the catalog and flags hidden oil, while an explicit value
// wins.
func TestCommitMeal_EstimatesTadkaOil(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	w := doRequest(router, "POST", "/api/meals/preview", testToken,
		`{"meal_type":"lunch","items":[{"food_id":2,"quantity_g":200}]}`)
	est := decode[mealPreviewResponse](t, w).Evaluation.Totals
	if est.TadkaOilML != 5 || !est.HasHiddenOil {
		t.Errorf("estimated oil = %v hidden = %v, want 5/true", est.TadkaOilML, est.HasHiddenOil)
	}
	// 200g dal is 210 kcal; 5ml oil adds 45.
	if est.Calories != 255 {
		t.Errorf("calories = %v, want 255", est.Calories)
	}

	w = doRequest(router, "POST", "/api/meals/preview", testToken,
		`{"meal_type":"lunch","items":[{"food_id":2,"quantity_g":200}],"tadka_oil_ml":0}`)
	explicit := decode[mealPreviewResponse](t, w).Evaluation.Totals
	if explicit.TadkaOilML != 0 || explicit.HasHiddenOil {
		t.Errorf("explicit oil = %v hidden = %v, want 0/false", explicit.TadkaOilML, explicit.HasHiddenOil)
	}
}

// TestCommitMeal_Rejects verifies validation failures are 400s and nothing
// is saved.
func TestCommitMeal_Rejects(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	cases := []struct {
		name string
		body string
	}{
		{"unknown food", `{"meal_type":"lunch","items":[{"food_id":999,"quantity_g":100}]}`},
		{"bad meal type", `{"meal_type":"brunch","items":[{"food_id":1,"quantity_g":100}]}`},
		{"no items", `{"meal_type":"lunch","items":[]}`},
		{"zero quantity", `{"meal_type":"lunch","items":[{"food_id":1,"quantity_g":0}]}`},
		{"negative oil", `{"meal_type":"lunch","items":[{"food_id":1,"quantity_g":100}],"tadka_oil_ml":-5}`},
		{"oversized quantity", `{"meal_type":"lunch","items":[{"food_id":1,"quantity_g":5001}]}`},
		{"huge quantity", `{"meal_type":"lunch","items":[{"food_id":1,"quantity_g":1e18}]}`},
		{"oversized oil", `{"meal_type":"lunch","items":[{"food_id":1,"quantity_g":100}],"tadka_oil_ml":501}`},
		{"bad date", `{"meal_type":"lunch","date":"03/01/2026","items":[{"food_id":1,"quantity_g":100}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, "POST", "/api/meals", testToken, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	p := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, ""))
	if p.TotalXP != 0 {
		t.Errorf("rejected meals changed total_xp to %d", p.TotalXP)
	}
}

// TestCommitMeal_MissingTargets verifies a profile with an unusable target
// is a 409, not a scoring crash.
func TestCommitMeal_MissingTargets(t *testing.T) {
	router, s, userID := setupTestServer(t)
	onboard(t, router)

	if err := s.db.Model(&profile{}).Where("user_id = ?", userID).Update("zinc_target_mg", 0).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	for _, path := range []string{"/api/meals/preview", "/api/meals"} {
		w := doRequest(router, "POST", path, testToken, chickenMeal("2026-03-01"))
		if w.Code != http.StatusConflict {
			t.Errorf("%s: expected 409, got %d: %s", path, w.Code, w.Body.String())
		}
	}
}

// TestCommitMeal_NoProfile verifies logging before onboarding is a 404.
func TestCommitMeal_NoProfile(t *testing.T) {
	router, _, _ := setupTestServer(t)

	w := doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-03-01"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

// TestListAndDeleteMeals verifies listing by date and that deleting keeps
// the XP already awarded.
func TestListAndDeleteMeals(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	first := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-03-01")))
	doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-03-02"))

	meals := decode[[]mealLog](t, doRequest(router, "GET", "/api/meals?date=2026-03-01", testToken, ""))
	if len(meals) != 1 || meals[0].ID != first.MealLog.ID {
		t.Fatalf("meals on 2026-03-01 = %+v", meals)
	}
	if len(meals[0].Items) != 1 || meals[0].Items[0].Name != "Chicken Breast" {
		t.Errorf("items = %+v", meals[0].Items)
	}

	before := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, "")).TotalXP

	path := "/api/meals/" + strconv.Itoa(first.MealLog.ID)
	if w := doRequest(router, "DELETE", path, testToken, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := doRequest(router, "DELETE", path, testToken, ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
	if w := doRequest(router, "GET", "/api/meals?date=2026-03-01", testToken, ""); w.Body.String() != "[]" {
		t.Errorf("meals after delete = %s, want []", w.Body.String())
	}
	if after := decode[profile](t, doRequest(router, "GET", "/api/profile", testToken, "")).TotalXP; after != before {
		t.Errorf("total_xp = %d after delete, want %d", after, before)
	}
}

/* ─── Summary tests ──────────────────────────────────────────────────── */

// TestDailySummary verifies the summary is derived from the day's meals.
func TestDailySummary(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	a := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken, chickenMeal("2026-03-01")))
	b := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken,
		`{"meal_type":"dinner","date":"2026-03-01","items":[{"food_id":3,"quantity_g":200}],"tadka_oil_ml":0}`))

	w := doRequest(router, "GET", "/api/daily-summary?date=2026-03-01", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	d := decode[dailySummary](t, w)
	if d.MealCount != 2 {
		t.Errorf("meal_count = %d, want 2", d.MealCount)
	}
	if want := a.Evaluation.XP.TotalXP + b.Evaluation.XP.TotalXP; d.XPGainedToday != want {
		t.Errorf("xp_gained_today = %d, want %d", d.XPGainedToday, want)
	}
	if d.HPEndOfDay != b.Advancement.CurrentHP {
		t.Errorf("hp_end_of_day = %d, want %d", d.HPEndOfDay, b.Advancement.CurrentHP)
	}
	// 155g + 16g protein clears the 140g target.
	if d.Totals.ProteinG != 171 || !d.ProteinGoalHit {
		t.Errorf("protein = %v hit = %v, want 171/true", d.Totals.ProteinG, d.ProteinGoalHit)
	}

	empty := decode[dailySummary](t, doRequest(router, "GET", "/api/daily-summary?date=2026-03-05", testToken, ""))
	if empty.MealCount != 0 || empty.HPEndOfDay != b.Advancement.CurrentHP || empty.Date.String() != "2026-03-05" {
		t.Errorf("empty day = %+v", empty)
	}
}

// TestDailySummary_BackdatedMeal verifies hp_end_of_day is the HP recorded
// when the day's last meal was logged, so a meal backdated after later days
// carries the newer HP.
func TestDailySummary_BackdatedMeal(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	// 100g chicken with sugar: +5 protein recovery, -10 insulin spike.
	sugary := func(date string) string {
		return `{"meal_type":"lunch","date":"` + date + `","items":[{"food_id":1,"quantity_g":100}],"has_gujju_sugar":true,"tadka_oil_ml":0}`
	}
	later := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken, sugary("2026-03-02")))
	earlier := decode[mealCommitResponse](t, doRequest(router, "POST", "/api/meals", testToken, sugary("2026-03-01")))
	if later.Advancement.CurrentHP != 95 || earlier.Advancement.CurrentHP != 90 {
		t.Fatalf("HP after commits = %d, %d, want 95, 90", later.Advancement.CurrentHP, earlier.Advancement.CurrentHP)
	}

	d1 := decode[dailySummary](t, doRequest(router, "GET", "/api/daily-summary?date=2026-03-01", testToken, ""))
	d2 := decode[dailySummary](t, doRequest(router, "GET", "/api/daily-summary?date=2026-03-02", testToken, ""))
	if d1.HPEndOfDay != 90 || d2.HPEndOfDay != 95 {
		t.Errorf("hp_end_of_day = %d (day 1), %d (day 2), want 90, 95", d1.HPEndOfDay, d2.HPEndOfDay)
	}
}

// TestProgress_Streaks verifies per-day summaries and streak stats over a
// range, with an unfinished end day not breaking the streak.
func TestProgress_Streaks(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	for _, date := range []string{"2026-03-01", "2026-03-02", "2026-03-03"} {
		if w := doRequest(router, "POST", "/api/meals", testToken, chickenMeal(date)); w.Code != http.StatusCreated {
			t.Fatalf("commit %s: %d %s", date, w.Code, w.Body.String())
		}
	}

	w := doRequest(router, "GET", "/api/progress?start=2026-02-25&end=2026-03-04", testToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[progressResponse](t, w)
	if len(resp.Days) != 3 {
		t.Fatalf("days = %d, want 3", len(resp.Days))
	}
	want := progressStats{
		DaysTracked:     3,
		ProteinGoalDays: 3,
		TotalXPGained:   resp.Stats.TotalXPGained,
		CurrentStreak:   3,
		LongestStreak:   3,
		StreakBonus:     10,
	}
	if resp.Stats != want {
		t.Errorf("stats = %+v, want %+v", resp.Stats, want)
	}
	sum := 0
	for _, d := range resp.Days {
		sum += d.XPGainedToday
	}
	if resp.Stats.TotalXPGained != sum {
		t.Errorf("total_xp_gained = %d, want %d", resp.Stats.TotalXPGained, sum)
	}
}

// TestProgress_Rejects verifies missing and inverted ranges are 400s.
func TestProgress_Rejects(t *testing.T) {
	router, _, _ := setupTestServer(t)
	onboard(t, router)

	for _, q := range []string{
		"",
		"?start=2026-03-01",
		"?start=2026-03-05&end=2026-03-01",
		"?start=2026-13-01&end=2026-03-01",
		"?start=2024-01-01&end=2026-03-01",
	} {
		if w := doRequest(router, "GET", "/api/progress"+q, testToken, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", q, w.Code)
		}
	}
}

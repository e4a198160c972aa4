package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/config"
	"github.com/yourname/habitcoach/internal/service"
	"github.com/yourname/habitcoach/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	text       string
	err        error
	lastPrompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	g.lastPrompt = prompt
	return g.text, g.err
}

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error { return nil }

// testNow is a Friday mid-March; the surrounding week starts Monday
// 2024-03-11.
var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

func newTestServer(t *testing.T, gen *stubGenerator) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFileStorage(
		filepath.Join(dir, "users.json"),
		filepath.Join(dir, "habits.json"),
		filepath.Join(dir, "logs.json"),
		internal.NopLogger(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })

	cfg := &config.Config{
		Env:        "development",
		JWTSecret:  "test-secret",
		BcryptCost: 4,
	}
	if gen == nil {
		gen = &stubGenerator{err: errors.New("not configured")}
	}
	h := NewHandler(cfg, internal.NopLogger(), fs, service.FixedClock{T: testNow}, gen, noopSender{})
	return NewRouter(h, nil)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	parsed := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func signupUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w, body := doJSON(t, r, "POST", "/auth/signup", "", `{"email":"`+email+`","password":"secret1","name":"Anna"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func createHabit(t *testing.T, r *gin.Engine, token, name string) string {
	t.Helper()
	w, body := doJSON(t, r, "POST", "/habits/create", token,
		`{"habitName":"`+name+`","goal":"stay sharp","endDate":"2024-12-31"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	habit := body["habit"].(map[string]interface{})
	return habit["id"].(string)
}

func TestHealthAndNoRoute(t *testing.T) {
	r := newTestServer(t, nil)

	w, body := doJSON(t, r, "GET", "/", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Habit AI API is running", body["message"])

	w, body = doJSON(t, r, "GET", "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", body["error"])
}

func TestAuthFlow(t *testing.T) {
	r := newTestServer(t, nil)

	w, body := doJSON(t, r, "POST", "/auth/signup", "", `{"email":"a@b.c","password":"secret1","name":"Anna"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@b.c", user["email"])
	assert.Equal(t, "calm", user["coachPersona"])
	_, hasHash := user["passwordHash"]
	assert.False(t, hasHash)

	// Duplicate signup conflicts.
	w, body = doJSON(t, r, "POST", "/auth/signup", "", `{"email":"a@b.c","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered", body["error"])

	w, body = doJSON(t, r, "POST", "/auth/login", "", `{"email":"a@b.c","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["token"])

	w, body = doJSON(t, r, "POST", "/auth/login", "", `{"email":"a@b.c","password":"nope11"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestAuthRequired(t *testing.T) {
	r := newTestServer(t, nil)

	w, body := doJSON(t, r, "GET", "/habits", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", body["error"])

	w, _ = doJSON(t, r, "GET", "/habits", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHabitLifecycle(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")

	habitID := createHabit(t, r, token, "Read")

	w, body := doJSON(t, r, "GET", "/habits", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	habits := body["habits"].([]interface{})
	require.Len(t, habits, 1)

	// Log a completion, then collide on the same day.
	w, body = doJSON(t, r, "POST", "/habits/log", token,
		`{"habitId":"`+habitID+`","date":"2024-03-15","status":"done","note":"solid"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Habit logged", body["message"])

	w, body = doJSON(t, r, "POST", "/habits/log", token,
		`{"habitId":"`+habitID+`","date":"2024-03-15","status":"skipped"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already-logged", body["code"])
	assert.Equal(t, "Already logged for today", body["message"])
	assert.Nil(t, body["error"])
	assert.Equal(t, "2024-03-16", body["nextAvailableDate"])

	w, body = doJSON(t, r, "GET", "/habits/history?days=7", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	logs := body["logs"].([]interface{})
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]interface{})
	assert.Equal(t, "Read", entry["habit"].(map[string]interface{})["habitName"])

	w, body = doJSON(t, r, "GET", "/habits/insights", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), body["completionRate"])
	assert.Equal(t, "Read", body["topHabitName"])

	w, body = doJSON(t, r, "DELETE", "/habits/"+habitID, token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Habit deleted", body["message"])

	w, body = doJSON(t, r, "GET", "/habits/insights", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", body["topHabitName"])
}

func TestInsuranceEndpoints(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")
	habitID := createHabit(t, r, token, "Read")

	w, body := doJSON(t, r, "POST", "/habits/"+habitID+"/insurance", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Streak insurance applied", body["message"])
	log := body["log"].(map[string]interface{})
	assert.Equal(t, "done", log["status"])
	assert.Equal(t, "Streak insurance", log["note"])

	w, body = doJSON(t, r, "POST", "/habits/"+habitID+"/insurance", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSURANCE_USED", body["code"])
	assert.Equal(t, "Streak insurance already used this month for this habit", body["message"])
	assert.Equal(t, "2024-04-01", body["nextRenewDate"])
	assert.Equal(t, true, body["canRenewNow"])

	w, body = doJSON(t, r, "POST", "/habits/"+habitID+"/insurance/renew", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Streak insurance renewed", body["message"])

	w, body = doJSON(t, r, "POST", "/habits/"+habitID+"/insurance/renew", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INSURANCE_RENEWED", body["code"])
}

func TestAISuggestionSources(t *testing.T) {
	// No habits yet: canned system reply without touching the model.
	r := newTestServer(t, &stubGenerator{text: "should not be used"})
	token := signupUser(t, r, "a@b.c")

	w, body := doJSON(t, r, "POST", "/ai/suggestion", token, "{}")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "system", body["source"])
	assert.Equal(t, service.NoHabitsSuggestion, body["suggestion"])

	// With a habit and a working model.
	createHabit(t, r, token, "Read")
	w, body = doJSON(t, r, "POST", "/ai/suggestion", token, "{}")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ai", body["source"])
	assert.Equal(t, "should not be used", body["suggestion"])
}

func TestAIFallbackOnGeneratorFailure(t *testing.T) {
	r := newTestServer(t, &stubGenerator{err: errors.New("upstream down")})
	token := signupUser(t, r, "a@b.c")
	habitID := createHabit(t, r, token, "Read")

	w, body := doJSON(t, r, "POST", "/ai/suggestion", token, "{}")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", body["source"])
	assert.NotEmpty(t, body["suggestion"])

	w, body = doJSON(t, r, "POST", "/ai/habit-suggestion", token, `{"habitId":"`+habitID+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", body["source"])
	assert.Contains(t, body["suggestion"], "Today:")

	w, body = doJSON(t, r, "POST", "/ai/habit-question", token,
		`{"habitId":"`+habitID+`","question":"how do I keep going?"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fallback", body["source"])
	assert.NotEmpty(t, body["answer"])
}

func TestAIHabitEndpointsValidation(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")

	w, body := doJSON(t, r, "POST", "/ai/habit-suggestion", token, "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "habitId is required", body["error"])

	w, _ = doJSON(t, r, "POST", "/ai/habit-question", token, `{"habitId":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, "POST", "/ai/habit-question", token, `{"habitId":"x","question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, "POST", "/ai/habit-suggestion", token, `{"habitId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAIHabitQuestion_TrimsQuestion(t *testing.T) {
	gen := &stubGenerator{text: "an answer"}
	r := newTestServer(t, gen)
	token := signupUser(t, r, "a@b.c")
	habitID := createHabit(t, r, token, "Read")

	w, body := doJSON(t, r, "POST", "/ai/habit-question", token,
		`{"habitId":"`+habitID+`","question":"  how?  "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ai", body["source"])
	assert.Contains(t, gen.lastPrompt, "User question: how?\n")
}

func TestUserEndpoints(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")

	w, body := doJSON(t, r, "GET", "/users/me", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Anna", user["name"])

	w, body = doJSON(t, r, "PATCH", "/users/name", token, `{"name":"Anne"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Anne", body["user"].(map[string]interface{})["name"])

	w, body = doJSON(t, r, "PATCH", "/users/coach", token, `{"coachPersona":"motivator"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "motivator", body["user"].(map[string]interface{})["coachPersona"])

	w, body = doJSON(t, r, "PATCH", "/users/coach", token, `{"coachPersona":"grumpy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid coachPersona", body["error"])

	w, body = doJSON(t, r, "DELETE", "/users/me", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Account deleted", body["message"])

	w, _ = doJSON(t, r, "GET", "/users/me", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")

	w, body := doJSON(t, r, "POST", "/auth/change-password", token,
		`{"currentPassword":"secret1","newPassword":"secret2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Password changed successfully", body["message"])

	w, _ = doJSON(t, r, "POST", "/auth/login", "", `{"email":"a@b.c","password":"secret2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateHabitValidationResponses(t *testing.T) {
	r := newTestServer(t, nil)
	token := signupUser(t, r, "a@b.c")

	w, body := doJSON(t, r, "POST", "/habits/create", token, `{"habitName":"x","goal":"g","endDate":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "endDate must be today or later", body["error"])

	w, body = doJSON(t, r, "POST", "/habits/create", token, `{"goal":"g","endDate":"2024-12-31"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "habitName and goal are required", body["error"])
}

func TestAuthRateLimit(t *testing.T) {
	r := newTestServer(t, nil)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		last, _ = doJSON(t, r, "POST", "/auth/login", "", `{"email":"a@b.c","password":"nope11"}`)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "Too many attempts. Try again in 15 minutes.", body["error"])
}

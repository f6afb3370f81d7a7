package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynook-backend/internal/handlers"
	"studynook-backend/internal/llm"
	"studynook-backend/internal/logger"
	"studynook-backend/internal/middleware"
	"studynook-backend/internal/services"
	"studynook-backend/internal/websocket"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T, perMinute int) http.Handler {
	t.Helper()
	jwtAuth := middleware.NewJWTAuth(testSecret)
	limiter := middleware.NewRateLimiter(perMinute, 1)
	t.Cleanup(limiter.Stop)

	study := services.NewStudyService(llm.NewUnconfiguredClient(), logger.Nop())
	files := services.NewFileExtractService()

	return New(
		jwtAuth,
		limiter,
		handlers.NewAIHandler(study, nil, files, 1<<20),
		handlers.NewMaterialHandler(nil, files, nil, 1<<20),
		handlers.NewArtifactHandler(nil, nil, services.NewArtifactGenerator(study), nil, logger.Nop()),
		handlers.NewJobHandler(nil),
		websocket.NewHub(nil, jwtAuth, logger.Nop()),
		"http://localhost:5173",
	)
}

func bearer(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, 60)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestAIRoutes_RequireAuth(t *testing.T) {
	r := newTestRouter(t, 60)

	for _, path := range []string{"/api/v1/ai/quiz", "/api/v1/ai/explain", "/api/v1/ai/notes", "/api/v1/artifacts/generate"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestQuiz_UnconfiguredBackendReturnsEmptyList(t *testing.T) {
	r := newTestRouter(t, 60)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/quiz", strings.NewReader(`{"content":"Photosynthesis converts light to sugar."}`))
	req.Header.Set("Authorization", bearer(t))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"questions":[]}`, rec.Body.String())
}

func TestAIRoutes_RateLimited(t *testing.T) {
	r := newTestRouter(t, 1)
	auth := bearer(t)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/quiz", strings.NewReader(`{"content":"x"}`))
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, 60)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ai/quiz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

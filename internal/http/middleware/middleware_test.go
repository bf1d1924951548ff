package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

func perform(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, tokens *service.TokenManager, actor valueobject.Actor) http.Header {
	t.Helper()
	token, err := tokens.IssueAccess(actor)
	require.NoError(t, err)
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenManager("middleware-test-secret", time.Hour)
	actor := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}

	r := gin.New()
	r.Use(AuthMiddleware(tokens))
	r.GET("/me", func(c *gin.Context) {
		got, ok := ActorFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": got.UserID, "role": c.GetString(ContextRoleKey)})
	})

	w := perform(r, "GET", "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, "GET", "/me", http.Header{"Authorization": {"Token abc"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := service.NewTokenManager("another-secret", time.Hour)
	w = perform(r, "GET", "/me", bearer(t, other, actor))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, "GET", "/me", bearer(t, tokens, actor))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), actor.UserID.String())
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenManager("middleware-test-secret", time.Hour)

	r := gin.New()
	r.Use(AuthMiddleware(tokens))
	r.POST("/admin", RequireRole(valueobject.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	seeker := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}
	w := perform(r, "POST", "/admin", bearer(t, tokens, seeker))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), string(apperror.ErrCodeForbidden))

	admin := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin}
	w = perform(r, "POST", "/admin", bearer(t, tokens, admin))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := perform(r, "GET", "/ping", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := perform(r, "GET", "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestRateLimitMiddleware_PerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	first := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}
	second := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.Query("u") == "2" {
			c.Set(ContextActorKey, second)
		} else {
			c.Set(ContextActorKey, first)
		}
		c.Next()
	})
	r.Use(RateLimitMiddleware(1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, "GET", "/ping", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, "GET", "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, "GET", "/ping?u=2", nil).Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, "GET", "/ping", http.Header{"Origin": {"https://app.example"}})
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, "GET", "/ping", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, "OPTIONS", "/ping", http.Header{"Origin": {"https://app.example"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestErrorHandlerAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(apperror.New(apperror.ErrCodeConflict, "конфликт"))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := perform(r, "GET", "/conflict", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), string(apperror.ErrCodeConflict))

	w = perform(r, "GET", "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(apperror.ErrCodeInternal))
}

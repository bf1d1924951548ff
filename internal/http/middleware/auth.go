package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextActorKey  = "actor"
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware проверяет JWT access токен и кладёт в контекст вызывающего пользователя.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		actor, err := tokens.ParseAccess(raw)
		if err != nil || actor.UserID == uuid.Nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Set(ContextUserIDKey, actor.UserID)
		c.Set(ContextRoleKey, actor.Role)
		c.Next()
	}
}

// ActorFromContext возвращает пользователя, установленного AuthMiddleware.
func ActorFromContext(c *gin.Context) (valueobject.Actor, bool) {
	v, exists := c.Get(ContextActorKey)
	if !exists {
		return valueobject.Actor{}, false
	}
	actor, ok := v.(valueobject.Actor)
	return actor, ok
}

// RequireRole пропускает только пользователей с одной из ролей.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "недостаточно прав")
		c.Abort()
	}
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/http/middleware"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

// requireActor возвращает пользователя из контекста или отвечает 401.
func requireActor(c *gin.Context) (valueobject.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.UserID == uuid.Nil {
		response.Error(c, apperror.ErrUnauthorized)
		return valueobject.Actor{}, false
	}
	return actor, true
}

// uuidParam разбирает параметр пути или отвечает 400.
func uuidParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value < 0 {
		response.BadRequest(c, "некорректный параметр "+name)
		return 0, false
	}
	return value, true
}

// bindOptionalJSON разбирает тело, если оно есть. Пустое тело допустимо.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return false
	}
	return true
}

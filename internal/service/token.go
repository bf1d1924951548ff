package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

// TokenManager проверяет access токены, выпущенные сервисом авторизации.
// Выпуск токенов нужен для локальной разработки и тестов.
type TokenManager struct {
	accessSecret []byte
	accessTTL    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
	}
}

// IssueAccess выпускает access токен для пользователя.
func (m *TokenManager) IssueAccess(actor valueobject.Actor) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actor.UserID.String(),
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.accessTTL).Unix(),
	}
	if actor.CompanyID != uuid.Nil {
		claims["company_id"] = actor.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// ParseAccess извлекает пользователя, роль и компанию из access токена.
func (m *TokenManager) ParseAccess(token string) (valueobject.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный алгоритм подписи %v", t.Header["alg"])
		}
		return m.accessSecret, nil
	})
	if err != nil {
		return valueobject.Actor{}, err
	}
	if !parsed.Valid {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return valueobject.Actor{}, jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return valueobject.Actor{}, err
	}

	roleStr, _ := claims["role"].(string)
	role, err := valueobject.NewRole(roleStr)
	if err != nil {
		return valueobject.Actor{}, err
	}

	actor := valueobject.Actor{UserID: userID, Role: role}
	if company, ok := claims["company_id"].(string); ok && company != "" {
		companyID, err := uuid.Parse(company)
		if err != nil {
			return valueobject.Actor{}, err
		}
		actor.CompanyID = companyID
	}

	return actor, nil
}

package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	actor := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}

	token, err := tm.IssueAccess(actor)
	require.NoError(t, err)

	parsed, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestTokenManager_ProviderWithoutCompany(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute)
	actor := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}

	token, err := tm.IssueAccess(actor)
	require.NoError(t, err)

	parsed, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, parsed.CompanyID)
	assert.Equal(t, valueobject.RoleProvider, parsed.Role)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Minute).IssueAccess(valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Minute).ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	claims := jwt.MapClaims{"sub": uuid.NewString(), "role": "freelancer", "exp": time.Now().Add(time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = NewTokenManager("s", time.Minute).ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("s", -time.Minute)
	token, err := tm.IssueAccess(valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker})
	require.NoError(t, err)

	_, err = tm.ParseAccess(token)
	assert.Error(t, err)
}

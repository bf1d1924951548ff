package valueobject

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func NewRole(role string) (Role, error) {
	r := Role(role)
	switch r {
	case RoleSeeker, RoleProvider, RoleAdmin:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeForbidden, "неизвестная роль")
}

// Actor - вызывающий пользователь, извлечённый из access токена.
type Actor struct {
	UserID    uuid.UUID
	Role      Role
	CompanyID uuid.UUID
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSeekerOf сообщает, что пользователь состоит в компании-заказчике.
func (a Actor) IsSeekerOf(companyID uuid.UUID) bool {
	return a.Role == RoleSeeker && a.CompanyID != uuid.Nil && a.CompanyID == companyID
}

func (a Actor) IsProvider(providerID uuid.UUID) bool {
	return a.Role == RoleProvider && a.UserID == providerID
}

// Side возвращает сторону сделки, от имени которой действует пользователь.
func (a Actor) Side() Side {
	switch a.Role {
	case RoleSeeker:
		return SideSeeker
	case RoleProvider:
		return SideProvider
	}
	return ""
}

// Side - сторона переговоров.
type Side string

const (
	SideSeeker   Side = "seeker"
	SideProvider Side = "provider"
)

func (s Side) Opposite() Side {
	if s == SideSeeker {
		return SideProvider
	}
	return SideSeeker
}

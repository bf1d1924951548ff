package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestStatusOpen   = "open"
	RequestStatusClosed = "closed"
)

// EngagementRequest - заявка компании на подбор исполнителя.
type EngagementRequest struct {
	ID              uuid.UUID
	SeekerCompanyID uuid.UUID
	Title           string
	Status          string
	CreatedAt       time.Time
}

func (r *EngagementRequest) IsOpen() bool {
	return r.Status == RequestStatusOpen
}

// Candidate - исполнитель из ранжированной выдачи подбора.
type Candidate struct {
	ProviderID uuid.UUID
	Rank       int
	Score      float64
}

// PayoutAccount - реквизиты исполнителя для выплат.
type PayoutAccount struct {
	ProviderID     uuid.UUID
	Destination    string
	PayoutsEnabled bool
	UpdatedAt      time.Time
}

func (a *PayoutAccount) IsUsable() bool {
	return a != nil && a.PayoutsEnabled && a.Destination != ""
}

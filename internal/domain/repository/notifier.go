package repository

import (
	"context"

	"github.com/google/uuid"
)

type Notification struct {
	Event      string
	UserIDs    []uuid.UUID
	CompanyIDs []uuid.UUID
	Data       any
}

// Notifier доставляет уведомления. Ошибки доставки не влияют на исходную операцию.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

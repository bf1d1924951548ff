package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/talentbridge-backend/internal/repository/common"
)

// TxManager открывает транзакцию и передаёт её репозиториям через контекст.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return common.WithTransaction(ctx, m.db, fn)
}

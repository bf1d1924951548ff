package common

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type txKey struct{}

// Executor возвращает транзакцию из контекста или пул соединений.
func Executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// GetOne читает одну строку. Отсутствие строки возвращает notFoundErr,
// а при notFoundErr == nil - nil, nil.
func GetOne[T any](ctx context.Context, q sqlx.QueryerContext, notFoundErr error, query string, args ...any) (*T, error) {
	var row T
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundErr
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать запись")
	}
	return &row, nil
}

func SelectAll[T any](ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]T, error) {
	var rows []T
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать записи")
	}
	return rows, nil
}

// InsertNamed выполняет INSERT с именованными параметрами из arg.
// Нарушение уникального индекса возвращает conflictErr.
func InsertNamed(ctx context.Context, e sqlx.ExtContext, conflictErr error, query string, arg any) error {
	if _, err := sqlx.NamedExecContext(ctx, e, query, arg); err != nil {
		if IsUniqueViolation(err) {
			return conflictErr
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить запись")
	}
	return nil
}

// UpdateGuarded выполняет UPDATE с условием на статус и версию.
// Ноль затронутых строк означает, что запись изменил параллельный запрос.
func UpdateGuarded(ctx context.Context, e sqlx.ExtContext, query string, arg any) error {
	result, err := sqlx.NamedExecContext(ctx, e, query, arg)
	if err != nil {
		if IsUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "запись нарушает ограничение уникальности")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить запись")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrStaleWrite
	}
	return nil
}

// WithTransaction выполняет fn внутри транзакции. Вложенный вызов переиспользует
// транзакцию из контекста.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать транзакцию")
	}
	return nil
}

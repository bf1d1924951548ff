package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

func newDispute(t *testing.T, s *Store) *entity.Dispute {
	t.Helper()
	filer := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}
	d, err := entity.NewDispute(uuid.New(), nil, valueobject.DisputeReasonQuality, "работа не принята", filer, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Disputes().Create(context.Background(), d))
	return d
}

func TestStore_WithinTransactionRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	d := newDispute(t, s)
	boom := errors.New("boom")

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		expected := d.Status
		require.NoError(t, d.StartReview(uuid.New(), time.Now()))
		require.NoError(t, s.Disputes().Update(ctx, d, expected))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.Disputes().FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusOpen, stored.Status)
}

func TestStore_WithinTransactionCommits(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	d := newDispute(t, s)

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		// вложенная транзакция не блокируется на внешней
		return s.WithinTransaction(ctx, func(ctx context.Context) error {
			expected := d.Status
			if err := d.StartReview(uuid.New(), time.Now()); err != nil {
				return err
			}
			return s.Disputes().Update(ctx, d, expected)
		})
	})
	require.NoError(t, err)

	stored, err := s.Disputes().FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusUnderReview, stored.Status)
}

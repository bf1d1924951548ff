package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

func TestWithCandidateCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	requestID := uuid.New()
	first := entity.Candidate{ProviderID: uuid.New(), Rank: 1, Score: 0.9}
	store.PutCandidates(requestID, []entity.Candidate{first})

	dir := WithCandidateCache(store.Directory(), service.NewCacheService(ctx, 0), time.Minute)

	got, err := dir.RankedCandidates(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	store.PutCandidates(requestID, []entity.Candidate{first, {ProviderID: uuid.New(), Rank: 2, Score: 0.5}})
	got, err = dir.RankedCandidates(ctx, requestID)
	require.NoError(t, err)
	assert.Len(t, got, 1, "выдача берётся из кэша")

	// реквизиты не кэшируются
	providerID := uuid.New()
	account, err := dir.FindByProviderID(ctx, providerID)
	require.NoError(t, err)
	assert.Nil(t, account)
	store.PutPayoutAccount(entity.PayoutAccount{ProviderID: providerID, Destination: "acct_1", PayoutsEnabled: true})
	account, err = dir.FindByProviderID(ctx, providerID)
	require.NoError(t, err)
	assert.True(t, account.IsUsable())
}

func TestWithCandidateCache_Disabled(t *testing.T) {
	dir := memory.NewStore().Directory()

	assert.Same(t, dir, WithCandidateCache(dir, nil, time.Minute))
	assert.Same(t, dir, WithCandidateCache(dir, service.NewCacheService(context.Background(), 0), 0))
}

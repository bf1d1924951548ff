package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// cachedDirectory кэширует выдачу подбора. Заявки и реквизиты выплат читаются напрямую:
// статус заявки и подключение выплат должны быть актуальными.
type cachedDirectory struct {
	Directory
	cache *service.CacheService
	ttl   time.Duration
}

// WithCandidateCache оборачивает справочник кэшем выдачи подбора.
func WithCandidateCache(dir Directory, cache *service.CacheService, ttl time.Duration) Directory {
	if cache == nil || ttl <= 0 {
		return dir
	}
	return &cachedDirectory{Directory: dir, cache: cache, ttl: ttl}
}

func (d *cachedDirectory) RankedCandidates(ctx context.Context, requestID uuid.UUID) ([]entity.Candidate, error) {
	v, err := d.cache.GetOrSet(ctx, service.CandidatesCacheKey(requestID), d.ttl, func() (interface{}, error) {
		return d.Directory.RankedCandidates(ctx, requestID)
	})
	if err != nil {
		return nil, err
	}
	candidates, _ := v.([]entity.Candidate)
	return append([]entity.Candidate(nil), candidates...), nil
}

package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

// DirectorySeeder - хранилище, в которое можно записать справочные данные подбора.
type DirectorySeeder interface {
	PutRequest(r entity.EngagementRequest)
	PutCandidates(requestID uuid.UUID, candidates []entity.Candidate)
	PutPayoutAccount(a entity.PayoutAccount)
}

// SeedResult - созданные демо-участники.
type SeedResult struct {
	Seekers   []valueobject.Actor
	Providers []valueobject.Actor
	Admin     valueobject.Actor
	Requests  []entity.EngagementRequest
}

// SeedService генерирует демо-данные подбора для запуска без базы.
type SeedService struct {
	directory DirectorySeeder
	rnd       *rand.Rand
}

// NewSeedService создаёт сервис генерации. seed фиксирует выдачу для воспроизводимости.
func NewSeedService(directory DirectorySeeder, seed int64) *SeedService {
	return &SeedService{
		directory: directory,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

var seedTitles = []string{
	"Backend-разработчик на Go", "Frontend-разработчик React", "DevOps-инженер",
	"Аналитик данных", "UI/UX дизайнер", "QA-инженер", "Мобильный разработчик Flutter",
	"Технический писатель", "ML-инженер", "Администратор PostgreSQL",
}

// SeedData создаёт компании с заявками, исполнителей с реквизитами и выдачу кандидатов.
// Каждый третий исполнитель остаётся без подключённых выплат.
func (s *SeedService) SeedData(ctx context.Context, numCompanies, numProviders int) (*SeedResult, error) {
	if numCompanies <= 0 || numProviders <= 0 {
		return nil, fmt.Errorf("seed service: нужны хотя бы одна компания и один исполнитель")
	}

	now := time.Now().UTC()
	result := &SeedResult{
		Admin: valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin},
	}

	for i := 0; i < numProviders; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		provider := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}
		result.Providers = append(result.Providers, provider)
		s.directory.PutPayoutAccount(entity.PayoutAccount{
			ProviderID:     provider.UserID,
			Destination:    fmt.Sprintf("acct_demo_%03d", i+1),
			PayoutsEnabled: i%3 != 2,
			UpdatedAt:      now,
		})
	}

	for i := 0; i < numCompanies; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seeker := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}
		result.Seekers = append(result.Seekers, seeker)

		req := entity.EngagementRequest{
			ID:              uuid.New(),
			SeekerCompanyID: seeker.CompanyID,
			Title:           seedTitles[s.rnd.Intn(len(seedTitles))],
			Status:          entity.RequestStatusOpen,
			CreatedAt:       now.Add(-time.Duration(s.rnd.Intn(72)) * time.Hour),
		}
		s.directory.PutRequest(req)
		s.directory.PutCandidates(req.ID, s.rankCandidates(result.Providers))
		result.Requests = append(result.Requests, req)
	}

	return result, nil
}

// rankCandidates выбирает до пяти случайных исполнителей и ранжирует их по оценке.
func (s *SeedService) rankCandidates(providers []valueobject.Actor) []entity.Candidate {
	picked := s.rnd.Perm(len(providers))
	if len(picked) > 5 {
		picked = picked[:5]
	}

	candidates := make([]entity.Candidate, 0, len(picked))
	for _, idx := range picked {
		candidates = append(candidates, entity.Candidate{
			ProviderID: providers[idx].UserID,
			Score:      0.5 + s.rnd.Float64()/2,
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

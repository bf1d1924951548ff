package engagement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
)

type MilestoneInput struct {
	Title      string
	Percentage decimal.Decimal
	DueDate    *time.Time
}

// SetMilestonesUseCase заменяет план этапов. Суммы считаются калькулятором от суммы
// контракта, поэтому проценты должны давать ровно 100.
type SetMilestonesUseCase struct {
	t    transitioner
	calc *fee.Calculator
}

func NewSetMilestonesUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, calc *fee.Calculator, clk clock.Clock) *SetMilestonesUseCase {
	return &SetMilestonesUseCase{t: transitioner{engagementRepo, disputeRepo, clk}, calc: calc}
}

func (uc *SetMilestonesUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, inputs []MilestoneInput) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, seekerOrAdmin, func(e *entity.Engagement, now time.Time) error {
		percentages := make([]decimal.Decimal, len(inputs))
		for i, in := range inputs {
			percentages[i] = in.Percentage
		}
		amounts, err := uc.calc.MilestoneAmounts(e.TotalAmount, percentages)
		if err != nil {
			return err
		}

		milestones := make([]entity.Milestone, len(inputs))
		for i, in := range inputs {
			milestones[i] = entity.Milestone{
				Title:      in.Title,
				Percentage: in.Percentage,
				Amount:     amounts[i],
				DueDate:    in.DueDate,
			}
		}
		return e.SetMilestones(milestones, now)
	})
}

type StartMilestoneUseCase struct {
	t           transitioner
	strictOrder bool
}

func NewStartMilestoneUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock, strictOrder bool) *StartMilestoneUseCase {
	return &StartMilestoneUseCase{t: transitioner{engagementRepo, disputeRepo, clk}, strictOrder: strictOrder}
}

func (uc *StartMilestoneUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, index int) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, participantOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.StartMilestone(index, uc.strictOrder, now)
	})
}

type CompleteMilestoneUseCase struct {
	t           transitioner
	strictOrder bool
}

func NewCompleteMilestoneUseCase(engagementRepo repository.EngagementRepository, disputeRepo repository.DisputeRepository, clk clock.Clock, strictOrder bool) *CompleteMilestoneUseCase {
	return &CompleteMilestoneUseCase{t: transitioner{engagementRepo, disputeRepo, clk}, strictOrder: strictOrder}
}

func (uc *CompleteMilestoneUseCase) Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, index int) (*entity.Engagement, error) {
	return uc.t.apply(ctx, actor, id, seekerOrAdmin, func(e *entity.Engagement, now time.Time) error {
		return e.CompleteMilestone(index, uc.strictOrder, now)
	})
}

// Package app собирает сценарии и HTTP обработчики из хранилища и процессора.
package app

import (
	"github.com/ignatzorin/talentbridge-backend/internal/config"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/http/handlers"
	"github.com/ignatzorin/talentbridge-backend/internal/http/router"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/handler"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/dispute"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/engagement"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/escrow"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/offer"
)

// Directory - данные смежных систем: заявки, выдача подбора и реквизиты выплат.
type Directory interface {
	repository.RequestRepository
	repository.CandidateSource
	repository.PayoutAccountRepository
}

// Storage - порты хранилища. Реализуются Postgres-адаптерами и in-memory хранилищем.
type Storage struct {
	Offers      repository.OfferRepository
	Engagements repository.EngagementRepository
	Escrows     repository.EscrowRepository
	Disputes    repository.DisputeRepository
	Directory   Directory
	Tx          repository.Transactor
}

type Deps struct {
	Storage   Storage
	Processor repository.PaymentProcessor
	Notifier  repository.Notifier
	Clock     clock.Clock
	// Cache включает кэш выдачи подбора, nil его отключает.
	Cache     *service.CacheService
	Health    *handlers.HealthHandler
	WS        *handlers.WSHandler
}

// FeeRates переводит конфигурацию комиссий в ставки калькулятора.
func FeeRates(cfg config.FeeConfig) fee.Rates {
	return fee.Rates{
		StandardPlatform: cfg.PlatformRate,
		Facilitation:     cfg.FacilitationRate,
		ProcessorPercent: cfg.ProcessorPercent,
		ProcessorFixed:   cfg.ProcessorFixed,
		ProcessorCap:     cfg.ProcessorCapRate,
	}
}

// BuildHandlers создаёт сценарии всех модулей и обработчики поверх них.
func BuildHandlers(cfg *config.Config, deps Deps) router.Handlers {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	s := deps.Storage
	directory := WithCandidateCache(s.Directory, deps.Cache, cfg.CandidateCacheTTL)
	calc := fee.NewCalculator(FeeRates(cfg.Fees))
	notifications := service.NewNotificationService(deps.Notifier)
	strict := cfg.Contracting.StrictMilestoneOrder

	ledger := escrow.NewLedger(escrow.LedgerDeps{
		Escrows:       s.Escrows,
		Engagements:   s.Engagements,
		Disputes:      s.Disputes,
		Payouts:       directory,
		Processor:     deps.Processor,
		Calculator:    calc,
		Clock:         clk,
		Notifications: notifications,
	})
	handoff := engagement.NewCreateFromHandoffUseCase(s.Engagements, calc, clk)

	offerHandler := handler.NewOfferHandler(
		offer.NewCreateOfferUseCase(s.Offers, directory, directory, calc, clk, notifications),
		offer.NewRespondOfferUseCase(s.Offers, calc, clk, cfg.Contracting.CounterOfferWindow, handoff, notifications),
		offer.NewGetOfferUseCase(s.Offers),
		offer.NewListRequestOffersUseCase(s.Offers, directory),
		offer.NewMaterializeEngagementUseCase(s.Offers, handoff),
	)

	engagementHandler := handler.NewEngagementHandler(handler.EngagementUseCases{
		Shortlist:         engagement.NewShortlistUseCase(s.Engagements, directory, clk),
		Interview:         engagement.NewScheduleInterviewUseCase(s.Engagements, s.Disputes, clk),
		Activate:          engagement.NewActivateEngagementUseCase(s.Engagements, s.Disputes, clk),
		Start:             engagement.NewStartEngagementUseCase(s.Engagements, s.Disputes, clk),
		Pause:             engagement.NewPauseEngagementUseCase(s.Engagements, s.Disputes, clk),
		Resume:            engagement.NewResumeEngagementUseCase(s.Engagements, s.Disputes, clk),
		Complete:          engagement.NewCompleteEngagementUseCase(s.Engagements, s.Disputes, escrow.NewReleaseOnCompletionUseCase(ledger), clk, notifications),
		Cancel:            engagement.NewCancelEngagementUseCase(s.Engagements, s.Disputes, clk, notifications),
		Terminate:         engagement.NewTerminateEngagementUseCase(s.Engagements, s.Disputes, clk, notifications),
		SetMilestones:     engagement.NewSetMilestonesUseCase(s.Engagements, s.Disputes, calc, clk),
		StartMilestone:    engagement.NewStartMilestoneUseCase(s.Engagements, s.Disputes, clk, strict),
		CompleteMilestone: engagement.NewCompleteMilestoneUseCase(s.Engagements, s.Disputes, clk, strict),
		Get:               engagement.NewGetEngagementUseCase(s.Engagements),
		ListEscrow:        escrow.NewListEngagementEscrowUseCase(ledger),
	})

	escrowHandler := handler.NewEscrowHandler(
		escrow.NewCreateEscrowUseCase(ledger),
		escrow.NewHoldEscrowUseCase(ledger),
		escrow.NewReleaseEscrowUseCase(ledger),
		escrow.NewRefundEscrowUseCase(ledger),
		escrow.NewGetEscrowUseCase(ledger),
	)

	disputeHandler := handler.NewDisputeHandler(
		dispute.NewFileDisputeUseCase(s.Disputes, s.Engagements, s.Escrows, s.Tx, clk, notifications),
		dispute.NewStartReviewUseCase(s.Disputes, clk),
		dispute.NewResolveDisputeUseCase(s.Disputes, s.Engagements, s.Escrows, escrow.NewSettleDisputeUseCase(ledger), s.Tx, clk, notifications),
		dispute.NewCloseDisputeUseCase(s.Disputes, s.Engagements, s.Tx, clk),
		dispute.NewGetDisputeUseCase(s.Disputes, s.Engagements),
		dispute.NewListEngagementDisputesUseCase(s.Disputes, s.Engagements),
	)

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}

	return router.Handlers{
		Offer:      offerHandler,
		Engagement: engagementHandler,
		Escrow:     escrowHandler,
		Dispute:    disputeHandler,
		Health:     health,
		WS:         deps.WS,
	}
}

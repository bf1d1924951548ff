package dispute_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/dispute"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/engagement"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/escrow"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/offer"
)

type fixture struct {
	store    *memory.Store
	sandbox  *payment.SandboxProcessor
	clock    *clock.Manual
	calc     *fee.Calculator
	seeker   valueobject.Actor
	provider valueobject.Actor
	admin    valueobject.Actor

	createOffer  *offer.CreateOfferUseCase
	respondOffer *offer.RespondOfferUseCase
	activate     *engagement.ActivateEngagementUseCase
	start        *engagement.StartEngagementUseCase
	complete     *engagement.CompleteEngagementUseCase
	getEng       *engagement.GetEngagementUseCase
	createEscrow *escrow.CreateEscrowUseCase
	holdEscrow   *escrow.HoldEscrowUseCase
	release      *escrow.ReleaseEscrowUseCase
	getEscrow    *escrow.GetEscrowUseCase
	file         *dispute.FileDisputeUseCase
	review       *dispute.StartReviewUseCase
	resolve      *dispute.ResolveDisputeUseCase
	closeDispute *dispute.CloseDisputeUseCase
	get          *dispute.GetDisputeUseCase
	list         *dispute.ListEngagementDisputesUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	calc := fee.NewCalculator(fee.DefaultRates())
	notifications := service.NewNotificationService(nil)
	f := &fixture{
		store:    store,
		sandbox:  payment.NewSandboxProcessor(),
		clock:    clk,
		calc:     calc,
		seeker:   valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()},
		provider: valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider},
		admin:    valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin},
	}
	store.PutPayoutAccount(entity.PayoutAccount{ProviderID: f.provider.UserID, Destination: "acct_provider", PayoutsEnabled: true})

	engagements, disputes, escrows := store.Engagements(), store.Disputes(), store.Escrows()
	ledger := escrow.NewLedger(escrow.LedgerDeps{
		Escrows:       escrows,
		Engagements:   engagements,
		Disputes:      disputes,
		Payouts:       store.Directory(),
		Processor:     f.sandbox,
		Calculator:    calc,
		Clock:         clk,
		Notifications: notifications,
	})
	consumer := engagement.NewCreateFromHandoffUseCase(engagements, calc, clk)

	f.createOffer = offer.NewCreateOfferUseCase(store.Offers(), store.Directory(), store.Directory(), calc, clk, notifications)
	f.respondOffer = offer.NewRespondOfferUseCase(store.Offers(), calc, clk, offer.DefaultCounterWindow, consumer, notifications)
	f.activate = engagement.NewActivateEngagementUseCase(engagements, disputes, clk)
	f.start = engagement.NewStartEngagementUseCase(engagements, disputes, clk)
	f.complete = engagement.NewCompleteEngagementUseCase(engagements, disputes, escrow.NewReleaseOnCompletionUseCase(ledger), clk, notifications)
	f.getEng = engagement.NewGetEngagementUseCase(engagements)
	f.createEscrow = escrow.NewCreateEscrowUseCase(ledger)
	f.holdEscrow = escrow.NewHoldEscrowUseCase(ledger)
	f.release = escrow.NewReleaseEscrowUseCase(ledger)
	f.getEscrow = escrow.NewGetEscrowUseCase(ledger)
	f.file = dispute.NewFileDisputeUseCase(disputes, engagements, escrows, store, clk, notifications)
	f.review = dispute.NewStartReviewUseCase(disputes, clk)
	f.resolve = dispute.NewResolveDisputeUseCase(disputes, engagements, escrows, escrow.NewSettleDisputeUseCase(ledger), store, clk, notifications)
	f.closeDispute = dispute.NewCloseDisputeUseCase(disputes, engagements, store, clk)
	f.get = dispute.NewGetDisputeUseCase(disputes, engagements)
	f.list = dispute.NewListEngagementDisputesUseCase(disputes, engagements)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// activeEngagement проводит оффер через принятие и активирует контракт.
func (f *fixture) activeEngagement(t *testing.T, rate string, hours int) *entity.Engagement {
	t.Helper()
	ctx := context.Background()
	requestID := uuid.New()
	f.store.PutRequest(entity.EngagementRequest{
		ID:              requestID,
		SeekerCompanyID: f.seeker.CompanyID,
		Title:           "Platform engineer",
		Status:          entity.RequestStatusOpen,
	})

	o, err := f.createOffer.Execute(ctx, offer.CreateOfferInput{
		Actor:         f.seeker,
		RequestID:     requestID,
		ProviderID:    f.provider.UserID,
		Rate:          dec(rate),
		DurationHours: hours,
	})
	require.NoError(t, err)

	res, err := f.respondOffer.Execute(ctx, offer.RespondOfferInput{Actor: f.provider, OfferID: o.ID, Action: "accept"})
	require.NoError(t, err)
	require.NotNil(t, res.Engagement)

	e, err := f.activate.Execute(ctx, f.seeker, res.Engagement.ID)
	require.NoError(t, err)
	require.Equal(t, valueobject.EngagementStatusActive, e.Status)
	return e
}

func (f *fixture) heldEscrow(t *testing.T, e *entity.Engagement) *entity.EscrowPayment {
	t.Helper()
	ctx := context.Background()
	p, err := f.createEscrow.Execute(ctx, escrow.CreateEscrowInput{Actor: f.seeker, EngagementID: e.ID, PaymentMethod: "pm_card_visa"})
	require.NoError(t, err)
	p, err = f.holdEscrow.Execute(ctx, f.seeker, p.ID)
	require.NoError(t, err)
	return p
}

func (f *fixture) fileDispute(t *testing.T, actor valueobject.Actor, engagementID uuid.UUID) *entity.Dispute {
	t.Helper()
	d, err := f.file.Execute(context.Background(), dispute.FileDisputeInput{
		Actor:        actor,
		EngagementID: engagementID,
		Reason:       "quality",
		Description:  "результат не соответствует договорённости",
	})
	require.NoError(t, err)
	return d
}

func TestContracting_HappyPathReleasesProviderAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.activeEngagement(t, "100", 120)
	assert.True(t, e.TotalAmount.Equal(dec("12000")))

	p := f.heldEscrow(t, e)
	assert.Equal(t, valueobject.EscrowStatusHeld, p.Status)
	assert.True(t, p.PlatformFee.Equal(dec("1800")))
	assert.True(t, p.ProviderAmount.Equal(dec("10200")))

	res, err := f.complete.Execute(ctx, engagement.CompleteEngagementInput{
		Actor:          f.seeker,
		EngagementID:   e.ID,
		ReleasePayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCompleted, res.Engagement.Status)
	require.NotNil(t, res.Payment)
	assert.Equal(t, valueobject.EscrowStatusReleased, res.Payment.Status)

	transfers := f.sandbox.Transfers()
	require.Len(t, transfers, 1)
	assert.True(t, transfers[0].Amount.Equal(dec("10200")))
	assert.Equal(t, "acct_provider", transfers[0].Destination)

	stored, err := f.getEscrow.Execute(ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Sub(stored.ReleasedAmount).Equal(dec("1800")), "комиссия остаётся на платформе")
}

func TestFileDispute_FreezesEngagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	p := f.heldEscrow(t, e)

	d := f.fileDispute(t, f.provider, e.ID)
	assert.Equal(t, valueobject.DisputeStatusOpen, d.Status)
	assert.Equal(t, valueobject.RoleProvider, d.FilerType)
	require.NotNil(t, d.EscrowPaymentID)
	assert.Equal(t, p.ID, *d.EscrowPaymentID)

	frozen, err := f.getEng.Execute(ctx, f.seeker, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusDisputed, frozen.Status)
	require.NotNil(t, frozen.PriorStatus)
	assert.Equal(t, valueobject.EngagementStatusActive, *frozen.PriorStatus)

	_, err = f.file.Execute(ctx, dispute.FileDisputeInput{Actor: f.seeker, EngagementID: e.ID, Reason: "payment", Description: "повторный спор"})
	assert.True(t, apperror.IsConflict(err))

	_, err = f.start.Execute(ctx, f.provider, e.ID)
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))

	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID, ReleasePayment: true})
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))
	assert.Empty(t, f.sandbox.Transfers())

	list, err := f.list.Execute(ctx, f.seeker, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFileDispute_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)

	_, err := f.file.Execute(ctx, dispute.FileDisputeInput{Actor: f.provider, EngagementID: e.ID, Reason: "boredom", Description: "x"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.file.Execute(ctx, dispute.FileDisputeInput{Actor: f.provider, EngagementID: e.ID, Reason: "quality", Description: "   "})
	assert.True(t, apperror.IsValidation(err))

	stranger := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider}
	_, err = f.file.Execute(ctx, dispute.FileDisputeInput{Actor: stranger, EngagementID: e.ID, Reason: "quality", Description: "x"})
	assert.True(t, apperror.IsForbidden(err))

	// завершённый контракт без удерживаемого эскроу спорить не о чем
	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID})
	require.NoError(t, err)
	_, err = f.file.Execute(ctx, dispute.FileDisputeInput{Actor: f.provider, EngagementID: e.ID, Reason: "payment", Description: "x"})
	assert.True(t, apperror.IsConflict(err))
}

func TestResolveDispute_SplitsFundsAndTerminates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	p := f.heldEscrow(t, e)
	d := f.fileDispute(t, f.seeker, e.ID)

	_, err := f.review.Execute(ctx, f.seeker, d.ID)
	assert.True(t, apperror.IsForbidden(err))
	d, err = f.review.Execute(ctx, f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusUnderReview, d.Status)

	refund := dec("400")
	_, err = f.resolve.Execute(ctx, dispute.ResolveDisputeInput{Actor: f.seeker, DisputeID: d.ID, Resolution: "x", RefundAmount: &refund})
	assert.True(t, apperror.IsForbidden(err))

	res, err := f.resolve.Execute(ctx, dispute.ResolveDisputeInput{
		Actor:        f.admin,
		DisputeID:    d.ID,
		Resolution:   "работа выполнена частично",
		RefundAmount: &refund,
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.DisputeStatusResolved, res.Dispute.Status)
	require.NotNil(t, res.Dispute.Outcome)
	assert.Equal(t, valueobject.DisputeOutcomeTerminate, *res.Dispute.Outcome)
	assert.True(t, res.Dispute.RefundAmount.Valid)
	assert.True(t, res.Dispute.RefundAmount.Decimal.Equal(refund))
	assert.Equal(t, valueobject.EngagementStatusTerminated, res.Engagement.Status)

	require.NotNil(t, res.Payment)
	assert.Equal(t, p.ID, res.Payment.ID)
	assert.Equal(t, valueobject.EscrowStatusRefunded, res.Payment.Status)
	assert.True(t, res.Payment.RefundedAmount.Equal(dec("400")))
	assert.True(t, res.Payment.ReleasedAmount.Equal(dec("600")))

	require.Len(t, f.sandbox.Refunds(), 1)
	require.Len(t, f.sandbox.Transfers(), 1)
	assert.True(t, f.sandbox.Transfers()[0].Amount.Equal(dec("600")))

	_, err = f.resolve.Execute(ctx, dispute.ResolveDisputeInput{Actor: f.admin, DisputeID: d.ID, Resolution: "ещё раз", RefundAmount: &refund})
	assert.True(t, apperror.IsConflict(err))
	assert.Len(t, f.sandbox.Refunds(), 1)
}

func TestResolveDispute_ProcessorFailureKeepsDisputeActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	f.heldEscrow(t, e)
	d := f.fileDispute(t, f.provider, e.ID)

	refund := dec("1000")
	f.sandbox.FailNext(payment.OpRefund, payment.Transient(nil, "таймаут"))
	_, err := f.resolve.Execute(ctx, dispute.ResolveDisputeInput{Actor: f.admin, DisputeID: d.ID, Resolution: "полный возврат", RefundAmount: &refund})
	assert.True(t, apperror.IsRetryable(err))

	stored, err := f.get.Execute(ctx, f.provider, d.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusOpen, stored.Status)

	res, err := f.resolve.Execute(ctx, dispute.ResolveDisputeInput{
		Actor:        f.admin,
		DisputeID:    d.ID,
		Resolution:   "полный возврат",
		RefundAmount: &refund,
		Outcome:      "cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCancelled, res.Engagement.Status)
	assert.Equal(t, valueobject.EscrowStatusRefunded, res.Payment.Status)
	assert.True(t, res.Payment.ReleasedAmount.IsZero())
	assert.Empty(t, f.sandbox.Transfers())
}

func TestResolveDispute_RestoreThenRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	p := f.heldEscrow(t, e)

	_, err := f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID})
	require.NoError(t, err)

	d := f.fileDispute(t, f.seeker, e.ID)
	completed, err := f.getEng.Execute(ctx, f.admin, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCompleted, completed.Status)

	_, err = f.release.Execute(ctx, f.seeker, p.ID, "")
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))

	res, err := f.resolve.Execute(ctx, dispute.ResolveDisputeInput{Actor: f.admin, DisputeID: d.ID, Resolution: "претензия отклонена"})
	require.NoError(t, err)
	assert.Nil(t, res.Payment)
	assert.Equal(t, valueobject.DisputeOutcomeRestore, *res.Dispute.Outcome)
	assert.Equal(t, valueobject.EngagementStatusCompleted, res.Engagement.Status)

	released, err := f.release.Execute(ctx, f.seeker, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, released.Status)
}

func TestCloseDispute_RestoresPriorStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	_, err := f.start.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)

	d := f.fileDispute(t, f.provider, e.ID)

	_, err = f.closeDispute.Execute(ctx, f.provider, d.ID, nil)
	assert.True(t, apperror.IsForbidden(err))

	notes := "стороны договорились"
	closed, err := f.closeDispute.Execute(ctx, f.admin, d.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, valueobject.DisputeStatusClosed, closed.Status)

	restored, err := f.getEng.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInProgress, restored.Status)
	assert.Nil(t, restored.PriorStatus)

	_, err = f.closeDispute.Execute(ctx, f.admin, d.ID, nil)
	assert.True(t, apperror.IsConflict(err))

	again := f.fileDispute(t, f.seeker, e.ID)
	assert.NotEqual(t, d.ID, again.ID)
}

func TestGetDispute_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "50", 20)
	d := f.fileDispute(t, f.provider, e.ID)

	_, err := f.get.Execute(ctx, f.seeker, d.ID)
	require.NoError(t, err)

	stranger := valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}
	_, err = f.get.Execute(ctx, stranger, d.ID)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.list.Execute(ctx, stranger, e.ID)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.get.Execute(ctx, f.admin, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

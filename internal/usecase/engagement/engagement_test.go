package engagement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/fee"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/clock"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/engagement"
)

type mockReleaser struct {
	mock.Mock
}

func (m *mockReleaser) Execute(ctx context.Context, actor valueobject.Actor, e *entity.Engagement, destination string) (*entity.EscrowPayment, error) {
	args := m.Called(ctx, actor, e, destination)
	p, _ := args.Get(0).(*entity.EscrowPayment)
	return p, args.Error(1)
}

type fixture struct {
	store    *memory.Store
	clock    *clock.Manual
	calc     *fee.Calculator
	seeker   valueobject.Actor
	provider valueobject.Actor
	admin    valueobject.Actor
	releaser *mockReleaser

	activate  *engagement.ActivateEngagementUseCase
	start     *engagement.StartEngagementUseCase
	pause     *engagement.PauseEngagementUseCase
	resume    *engagement.ResumeEngagementUseCase
	complete  *engagement.CompleteEngagementUseCase
	cancel    *engagement.CancelEngagementUseCase
	terminate *engagement.TerminateEngagementUseCase
	get       *engagement.GetEngagementUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC))
	notifications := service.NewNotificationService(nil)
	f := &fixture{
		store:    store,
		clock:    clk,
		calc:     fee.NewCalculator(fee.DefaultRates()),
		seeker:   valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()},
		provider: valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleProvider},
		admin:    valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin},
		releaser: new(mockReleaser),
	}
	engagements, disputes := store.Engagements(), store.Disputes()
	f.activate = engagement.NewActivateEngagementUseCase(engagements, disputes, clk)
	f.start = engagement.NewStartEngagementUseCase(engagements, disputes, clk)
	f.pause = engagement.NewPauseEngagementUseCase(engagements, disputes, clk)
	f.resume = engagement.NewResumeEngagementUseCase(engagements, disputes, clk)
	f.complete = engagement.NewCompleteEngagementUseCase(engagements, disputes, f.releaser, clk, notifications)
	f.cancel = engagement.NewCancelEngagementUseCase(engagements, disputes, clk, notifications)
	f.terminate = engagement.NewTerminateEngagementUseCase(engagements, disputes, clk, notifications)
	f.get = engagement.NewGetEngagementUseCase(engagements)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) handoff(total string) *entity.EngagementHandoff {
	split := f.calc.Split(dec(total))
	return &entity.EngagementHandoff{
		OfferID:         uuid.New(),
		RequestID:       uuid.New(),
		SeekerCompanyID: f.seeker.CompanyID,
		ProviderID:      f.provider.UserID,
		Rate:            dec("100"),
		Currency:        "USD",
		DurationHours:   100,
		TotalAmount:     split.Amount,
		PlatformFee:     split.PlatformFee,
		ProviderAmount:  split.ProviderAmount,
	}
}

// activeEngagement создаёт контракт по принятому офферу и активирует его.
func (f *fixture) activeEngagement(t *testing.T, total string) *entity.Engagement {
	t.Helper()
	e := entity.NewEngagementFromHandoff(f.handoff(total), f.calc.FacilitationFee(dec(total)), f.clock.Now())
	require.NoError(t, f.store.Engagements().Create(context.Background(), e))

	e, err := f.activate.Execute(context.Background(), f.seeker, e.ID)
	require.NoError(t, err)
	require.Equal(t, valueobject.EngagementStatusActive, e.Status)
	return e
}

func (f *fixture) openDispute(t *testing.T, engagementID uuid.UUID) {
	t.Helper()
	d, err := entity.NewDispute(engagementID, nil, valueobject.DisputeReasonQuality, "работа не принята", f.seeker, f.clock.Now())
	require.NoError(t, err)
	require.NoError(t, f.store.Disputes().Create(context.Background(), d))
}

func TestEngagement_FullLifecycleWithDeferredRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "12000")

	e, err := f.start.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInProgress, e.Status)
	assert.NotNil(t, e.StartedAt)

	e, err = f.pause.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusPaused, e.Status)

	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID})
	assert.True(t, apperror.IsConflict(err))

	e, err = f.resume.Execute(ctx, f.seeker, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInProgress, e.Status)

	f.clock.Advance(time.Hour)
	result, err := f.complete.Execute(ctx, engagement.CompleteEngagementInput{
		Actor:        f.seeker,
		EngagementID: e.ID,
		Deliverables: []entity.Deliverable{{Title: "API", URL: "https://git.example.com/api"}},
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCompleted, result.Engagement.Status)
	assert.Nil(t, result.Payment)
	require.NotNil(t, result.Engagement.Verification)
	assert.Equal(t, f.seeker.UserID, result.Engagement.Verification.VerifiedBy)

	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID})
	assert.True(t, apperror.IsConflict(err))
	f.releaser.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngagement_StartRequiresActive(t *testing.T) {
	f := newFixture(t)
	e := entity.NewEngagementFromHandoff(f.handoff("1000"), decimal.Zero, f.clock.Now())
	require.NoError(t, f.store.Engagements().Create(context.Background(), e))

	_, err := f.start.Execute(context.Background(), f.provider, e.ID)
	assert.True(t, apperror.IsConflict(err))

	_, err = f.start.Execute(context.Background(), f.provider, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestEngagement_CompleteWithRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "12000")

	released := &entity.EscrowPayment{ID: uuid.New(), Status: valueobject.EscrowStatusReleased}
	f.releaser.On("Execute", mock.Anything, f.seeker, mock.MatchedBy(func(snapshot *entity.Engagement) bool {
		return snapshot.ID == e.ID && snapshot.Status == valueobject.EngagementStatusCompleted
	}), "acct_provider").Return(released, nil).Once()

	result, err := f.complete.Execute(ctx, engagement.CompleteEngagementInput{
		Actor:          f.seeker,
		EngagementID:   e.ID,
		ReleasePayment: true,
		Destination:    "acct_provider",
	})
	require.NoError(t, err)
	assert.Equal(t, released, result.Payment)

	stored, err := f.get.Execute(ctx, f.seeker, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCompleted, stored.Status)
	f.releaser.AssertExpectations(t)
}

func TestEngagement_CompleteKeepsStatusWhenReleaseFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "12000")
	_, err := f.start.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)

	f.releaser.On("Execute", mock.Anything, mock.Anything, mock.Anything, "").
		Return(nil, apperror.New(apperror.ErrCodeProcessorTransient, "процессор недоступен")).Once()

	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID, ReleasePayment: true})
	assert.True(t, apperror.IsProcessorTransient(err))

	stored, err := f.get.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInProgress, stored.Status)
	assert.Nil(t, stored.CompletedAt)
}

func TestEngagement_CompleteAuthorization(t *testing.T) {
	f := newFixture(t)
	e := f.activeEngagement(t, "500")

	_, err := f.complete.Execute(context.Background(), engagement.CompleteEngagementInput{Actor: f.provider, EngagementID: e.ID})
	assert.True(t, apperror.IsForbidden(err))

	result, err := f.complete.Execute(context.Background(), engagement.CompleteEngagementInput{Actor: f.admin, EngagementID: e.ID})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCompleted, result.Engagement.Status)
}

func TestEngagement_BlockedByDispute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "1000")
	f.openDispute(t, e.ID)

	_, err := f.start.Execute(ctx, f.provider, e.ID)
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))

	_, err = f.complete.Execute(ctx, engagement.CompleteEngagementInput{Actor: f.seeker, EngagementID: e.ID})
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))

	_, err = f.cancel.Execute(ctx, f.seeker, e.ID, nil)
	assert.True(t, errors.Is(err, apperror.ErrBlockedByDispute))
}

func TestEngagement_CancelAndTerminate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e := f.activeEngagement(t, "1000")
	_, err := f.start.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)
	_, err = f.pause.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)

	notes := "бюджет заморожен"
	cancelled, err := f.cancel.Execute(ctx, f.seeker, e.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusCancelled, cancelled.Status)
	assert.Equal(t, &notes, cancelled.CancellationNotes)

	_, err = f.cancel.Execute(ctx, f.seeker, e.ID, nil)
	assert.True(t, apperror.IsConflict(err))

	other := f.activeEngagement(t, "1000")
	_, err = f.terminate.Execute(ctx, f.seeker, other.ID, nil)
	assert.True(t, apperror.IsForbidden(err))

	terminated, err := f.terminate.Execute(ctx, f.admin, other.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusTerminated, terminated.Status)
}

func TestEngagement_ConcurrentWriterFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.activeEngagement(t, "1000")

	stale, err := f.store.Engagements().FindByID(ctx, e.ID)
	require.NoError(t, err)

	_, err = f.start.Execute(ctx, f.provider, e.ID)
	require.NoError(t, err)

	require.NoError(t, stale.Cancel(nil, f.clock.Now()))
	err = f.store.Engagements().Update(ctx, stale, valueobject.EngagementStatusActive)
	assert.True(t, errors.Is(err, apperror.ErrStaleWrite))

	stored, err := f.store.Engagements().FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInProgress, stored.Status)
}

func TestEngagement_Milestones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engagements, disputes := f.store.Engagements(), f.store.Disputes()
	set := engagement.NewSetMilestonesUseCase(engagements, disputes, f.calc, f.clock)
	startLoose := engagement.NewStartMilestoneUseCase(engagements, disputes, f.clock, false)
	completeLoose := engagement.NewCompleteMilestoneUseCase(engagements, disputes, f.clock, false)
	completeStrict := engagement.NewCompleteMilestoneUseCase(engagements, disputes, f.clock, true)

	e := f.activeEngagement(t, "10000")

	_, err := set.Execute(ctx, f.seeker, e.ID, []engagement.MilestoneInput{
		{Title: "Дизайн", Percentage: dec("50")},
		{Title: "Разработка", Percentage: dec("60")},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = set.Execute(ctx, f.seeker, e.ID, []engagement.MilestoneInput{
		{Title: "Дизайн", Percentage: dec("50")},
		{Title: "Разработка", Percentage: dec("40")},
	})
	assert.True(t, apperror.IsValidation(err))

	e, err = set.Execute(ctx, f.seeker, e.ID, []engagement.MilestoneInput{
		{Title: "Дизайн", Percentage: dec("30")},
		{Title: "Разработка", Percentage: dec("40")},
		{Title: "Запуск", Percentage: dec("30")},
	})
	require.NoError(t, err)
	require.Len(t, e.Milestones, 3)
	assert.True(t, e.Milestones[0].Amount.Equal(dec("3000")))
	assert.True(t, e.Milestones[1].Amount.Equal(dec("4000")))
	assert.True(t, e.Milestones[2].Amount.Equal(dec("3000")))

	_, err = completeStrict.Execute(ctx, f.seeker, e.ID, 1)
	assert.True(t, apperror.IsConflict(err))

	e, err = startLoose.Execute(ctx, f.provider, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobject.MilestoneStatusInProgress, e.Milestones[1].Status)

	e, err = completeLoose.Execute(ctx, f.seeker, e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, valueobject.MilestoneStatusCompleted, e.Milestones[1].Status)

	_, err = completeLoose.Execute(ctx, f.seeker, e.ID, 7)
	assert.True(t, apperror.IsNotFound(err))

	_, err = set.Execute(ctx, f.seeker, e.ID, []engagement.MilestoneInput{{Title: "Всё", Percentage: dec("100")}})
	assert.True(t, apperror.IsConflict(err))
}

func TestEngagement_PipelineAdvancedByHandoff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requestID := uuid.New()
	f.store.PutRequest(entity.EngagementRequest{ID: requestID, SeekerCompanyID: f.seeker.CompanyID, Status: entity.RequestStatusOpen})

	shortlist := engagement.NewShortlistUseCase(f.store.Engagements(), f.store.Directory(), f.clock)
	interview := engagement.NewScheduleInterviewUseCase(f.store.Engagements(), f.store.Disputes(), f.clock)
	fromHandoff := engagement.NewCreateFromHandoffUseCase(f.store.Engagements(), f.calc, f.clock)

	staged, err := shortlist.Execute(ctx, f.seeker, requestID, f.provider.UserID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusStaged, staged.Status)

	_, err = shortlist.Execute(ctx, f.seeker, requestID, f.provider.UserID)
	assert.True(t, apperror.IsConflict(err))

	interviewing, err := interview.Execute(ctx, f.seeker, staged.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EngagementStatusInterviewing, interviewing.Status)

	h := f.handoff("4000")
	h.RequestID = requestID
	accepted, err := fromHandoff.Execute(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, staged.ID, accepted.ID)
	assert.Equal(t, valueobject.EngagementStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.OfferID)
	assert.Equal(t, h.OfferID, *accepted.OfferID)
	assert.True(t, accepted.FacilitationFee.Equal(dec("200")))

	again, err := fromHandoff.Execute(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, accepted.ID, again.ID)
}

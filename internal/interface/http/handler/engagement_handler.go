package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/dto"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/engagement"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/escrow"
	"github.com/ignatzorin/talentbridge-backend/internal/validation"
)

// transitionUseCase - общий вид простых переходов контракта.
type transitionUseCase interface {
	Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Engagement, error)
}

type notedTransitionUseCase interface {
	Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, notes *string) (*entity.Engagement, error)
}

type milestoneUseCase interface {
	Execute(ctx context.Context, actor valueobject.Actor, id uuid.UUID, index int) (*entity.Engagement, error)
}

type EngagementHandler struct {
	shortlistUC         *engagement.ShortlistUseCase
	interviewUC         *engagement.ScheduleInterviewUseCase
	activateUC          *engagement.ActivateEngagementUseCase
	startUC             *engagement.StartEngagementUseCase
	pauseUC             *engagement.PauseEngagementUseCase
	resumeUC            *engagement.ResumeEngagementUseCase
	completeUC          *engagement.CompleteEngagementUseCase
	cancelUC            *engagement.CancelEngagementUseCase
	terminateUC         *engagement.TerminateEngagementUseCase
	setMilestonesUC     *engagement.SetMilestonesUseCase
	startMilestoneUC    *engagement.StartMilestoneUseCase
	completeMilestoneUC *engagement.CompleteMilestoneUseCase
	getEngagementUC     *engagement.GetEngagementUseCase
	listEscrowUC        *escrow.ListEngagementEscrowUseCase
}

// EngagementUseCases собирает зависимости EngagementHandler.
type EngagementUseCases struct {
	Shortlist         *engagement.ShortlistUseCase
	Interview         *engagement.ScheduleInterviewUseCase
	Activate          *engagement.ActivateEngagementUseCase
	Start             *engagement.StartEngagementUseCase
	Pause             *engagement.PauseEngagementUseCase
	Resume            *engagement.ResumeEngagementUseCase
	Complete          *engagement.CompleteEngagementUseCase
	Cancel            *engagement.CancelEngagementUseCase
	Terminate         *engagement.TerminateEngagementUseCase
	SetMilestones     *engagement.SetMilestonesUseCase
	StartMilestone    *engagement.StartMilestoneUseCase
	CompleteMilestone *engagement.CompleteMilestoneUseCase
	Get               *engagement.GetEngagementUseCase
	ListEscrow        *escrow.ListEngagementEscrowUseCase
}

func NewEngagementHandler(uc EngagementUseCases) *EngagementHandler {
	return &EngagementHandler{
		shortlistUC:         uc.Shortlist,
		interviewUC:         uc.Interview,
		activateUC:          uc.Activate,
		startUC:             uc.Start,
		pauseUC:             uc.Pause,
		resumeUC:            uc.Resume,
		completeUC:          uc.Complete,
		cancelUC:            uc.Cancel,
		terminateUC:         uc.Terminate,
		setMilestonesUC:     uc.SetMilestones,
		startMilestoneUC:    uc.StartMilestone,
		completeMilestoneUC: uc.CompleteMilestone,
		getEngagementUC:     uc.Get,
		listEscrowUC:        uc.ListEscrow,
	}
}

func (h *EngagementHandler) Shortlist(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.ShortlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	eng, err := h.shortlistUC.Execute(c.Request.Context(), actor, req.RequestID, req.ProviderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToEngagementResponse(eng))
}

func (h *EngagementHandler) ScheduleInterview(c *gin.Context) { h.transition(c, h.interviewUC) }
func (h *EngagementHandler) Activate(c *gin.Context)          { h.transition(c, h.activateUC) }
func (h *EngagementHandler) Start(c *gin.Context)             { h.transition(c, h.startUC) }
func (h *EngagementHandler) Pause(c *gin.Context)             { h.transition(c, h.pauseUC) }
func (h *EngagementHandler) Resume(c *gin.Context)            { h.transition(c, h.resumeUC) }
func (h *EngagementHandler) Cancel(c *gin.Context)            { h.notedTransition(c, h.cancelUC) }
func (h *EngagementHandler) Terminate(c *gin.Context)         { h.notedTransition(c, h.terminateUC) }
func (h *EngagementHandler) StartMilestone(c *gin.Context)    { h.milestone(c, h.startMilestoneUC) }
func (h *EngagementHandler) CompleteMilestone(c *gin.Context) { h.milestone(c, h.completeMilestoneUC) }

func (h *EngagementHandler) Complete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	var req dto.CompleteEngagementRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	deliverables := make([]validation.Deliverable, 0, len(req.Deliverables))
	for _, d := range req.Deliverables {
		deliverables = append(deliverables, validation.Deliverable{Title: d.Title, URL: d.URL})
	}
	if err := validation.ValidateDeliverables(deliverables); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateNotes(req.Notes); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.completeUC.Execute(c.Request.Context(), engagement.CompleteEngagementInput{
		Actor:          actor,
		EngagementID:   engagementID,
		Deliverables:   dto.ToDeliverables(req.Deliverables),
		Notes:          req.Notes,
		ReleasePayment: req.ReleasePayment,
		Destination:    req.Destination,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ToEngagementResponse(result.Engagement)
	resp.Payment = dto.ToEscrowPaymentPtr(result.Payment)
	response.Success(c, resp)
}

func (h *EngagementHandler) SetMilestones(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	var req dto.SetMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	titles := make([]string, 0, len(req.Milestones))
	inputs := make([]engagement.MilestoneInput, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		titles = append(titles, m.Title)
		inputs = append(inputs, engagement.MilestoneInput{
			Title:      m.Title,
			Percentage: m.Percentage,
			DueDate:    m.DueDate,
		})
	}

	if err := validation.ValidateMilestoneTitles(titles); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	eng, err := h.setMilestonesUC.Execute(c.Request.Context(), actor, engagementID, inputs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(eng))
}

func (h *EngagementHandler) GetEngagement(c *gin.Context) {
	h.transition(c, h.getEngagementUC)
}

// ListEscrow отдаёт эскроу-платежи контракта.
func (h *EngagementHandler) ListEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	payments, err := h.listEscrowUC.Execute(c.Request.Context(), actor, engagementID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowPaymentListResponse(payments))
}

func (h *EngagementHandler) transition(c *gin.Context, uc transitionUseCase) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	eng, err := uc.Execute(c.Request.Context(), actor, engagementID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(eng))
}

func (h *EngagementHandler) notedTransition(c *gin.Context, uc notedTransitionUseCase) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	var req dto.NotesRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := validation.ValidateNotes(req.Notes); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	eng, err := uc.Execute(c.Request.Context(), actor, engagementID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(eng))
}

func (h *EngagementHandler) milestone(c *gin.Context, uc milestoneUseCase) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	eng, err := uc.Execute(c.Request.Context(), actor, engagementID, index)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEngagementResponse(eng))
}

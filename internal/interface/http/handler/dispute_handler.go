package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/dto"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/dispute"
	"github.com/ignatzorin/talentbridge-backend/internal/validation"
)

type DisputeHandler struct {
	fileDisputeUC    *dispute.FileDisputeUseCase
	startReviewUC    *dispute.StartReviewUseCase
	resolveDisputeUC *dispute.ResolveDisputeUseCase
	closeDisputeUC   *dispute.CloseDisputeUseCase
	getDisputeUC     *dispute.GetDisputeUseCase
	listDisputesUC   *dispute.ListEngagementDisputesUseCase
}

func NewDisputeHandler(
	fileDisputeUC *dispute.FileDisputeUseCase,
	startReviewUC *dispute.StartReviewUseCase,
	resolveDisputeUC *dispute.ResolveDisputeUseCase,
	closeDisputeUC *dispute.CloseDisputeUseCase,
	getDisputeUC *dispute.GetDisputeUseCase,
	listDisputesUC *dispute.ListEngagementDisputesUseCase,
) *DisputeHandler {
	return &DisputeHandler{
		fileDisputeUC:    fileDisputeUC,
		startReviewUC:    startReviewUC,
		resolveDisputeUC: resolveDisputeUC,
		closeDisputeUC:   closeDisputeUC,
		getDisputeUC:     getDisputeUC,
		listDisputesUC:   listDisputesUC,
	}
}

// FileDispute обрабатывает POST /engagements/:id/disputes.
func (h *DisputeHandler) FileDispute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	var req dto.FileDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateDisputeDescription(req.Description); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	d, err := h.fileDisputeUC.Execute(c.Request.Context(), dispute.FileDisputeInput{
		Actor:        actor,
		EngagementID: engagementID,
		Reason:       req.Reason,
		Description:  req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToDisputeResponse(d))
}

func (h *DisputeHandler) ListEngagementDisputes(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	engagementID, ok := uuidParam(c, "id", "некорректный ID контракта")
	if !ok {
		return
	}

	disputes, err := h.listDisputesUC.Execute(c.Request.Context(), actor, engagementID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeListResponse(disputes))
}

func (h *DisputeHandler) StartReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	d, err := h.startReviewUC.Execute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}

func (h *DisputeHandler) ResolveDispute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateResolution(req.Resolution); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.resolveDisputeUC.Execute(c.Request.Context(), dispute.ResolveDisputeInput{
		Actor:        actor,
		DisputeID:    disputeID,
		Resolution:   req.Resolution,
		RefundAmount: req.RefundAmount,
		Outcome:      req.Outcome,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ResolveDisputeResponse{
		Dispute: dto.ToDisputeResponse(result.Dispute),
		Payment: dto.ToEscrowPaymentPtr(result.Payment),
	}
	if result.Engagement != nil {
		eng := dto.ToEngagementResponse(result.Engagement)
		resp.Engagement = &eng
	}
	response.Success(c, resp)
}

func (h *DisputeHandler) CloseDispute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
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

	d, err := h.closeDisputeUC.Execute(c.Request.Context(), actor, disputeID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}

func (h *DisputeHandler) GetDispute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	disputeID, ok := uuidParam(c, "id", "некорректный ID спора")
	if !ok {
		return
	}

	d, err := h.getDisputeUC.Execute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDisputeResponse(d))
}

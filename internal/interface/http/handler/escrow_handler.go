package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/dto"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/escrow"
	"github.com/ignatzorin/talentbridge-backend/internal/validation"
)

type EscrowHandler struct {
	createEscrowUC  *escrow.CreateEscrowUseCase
	holdEscrowUC    *escrow.HoldEscrowUseCase
	releaseEscrowUC *escrow.ReleaseEscrowUseCase
	refundEscrowUC  *escrow.RefundEscrowUseCase
	getEscrowUC     *escrow.GetEscrowUseCase
}

func NewEscrowHandler(
	createEscrowUC *escrow.CreateEscrowUseCase,
	holdEscrowUC *escrow.HoldEscrowUseCase,
	releaseEscrowUC *escrow.ReleaseEscrowUseCase,
	refundEscrowUC *escrow.RefundEscrowUseCase,
	getEscrowUC *escrow.GetEscrowUseCase,
) *EscrowHandler {
	return &EscrowHandler{
		createEscrowUC:  createEscrowUC,
		holdEscrowUC:    holdEscrowUC,
		releaseEscrowUC: releaseEscrowUC,
		refundEscrowUC:  refundEscrowUC,
		getEscrowUC:     getEscrowUC,
	}
}

// CreateEscrow создаёт платёж и авторизует его в процессоре.
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	payment, err := h.createEscrowUC.Execute(c.Request.Context(), escrow.CreateEscrowInput{
		Actor:         actor,
		EngagementID:  req.EngagementID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToEscrowPaymentResponse(payment))
}

func (h *EscrowHandler) HoldEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(c, "id", "некорректный ID платежа")
	if !ok {
		return
	}

	payment, err := h.holdEscrowUC.Execute(c.Request.Context(), actor, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowPaymentResponse(payment))
}

func (h *EscrowHandler) ReleaseEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(c, "id", "некорректный ID платежа")
	if !ok {
		return
	}

	var req dto.ReleaseEscrowRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	payment, err := h.releaseEscrowUC.Execute(c.Request.Context(), actor, paymentID, req.Destination)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowPaymentResponse(payment))
}

func (h *EscrowHandler) RefundEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(c, "id", "некорректный ID платежа")
	if !ok {
		return
	}

	var req dto.RefundEscrowRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := validation.ValidateRefundReason(req.Reason); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	payment, err := h.refundEscrowUC.Execute(c.Request.Context(), actor, paymentID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowPaymentResponse(payment))
}

func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	paymentID, ok := uuidParam(c, "id", "некорректный ID платежа")
	if !ok {
		return
	}

	payment, err := h.getEscrowUC.Execute(c.Request.Context(), actor, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToEscrowPaymentResponse(payment))
}

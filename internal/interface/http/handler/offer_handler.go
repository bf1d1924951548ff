package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/dto"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/response"
	"github.com/ignatzorin/talentbridge-backend/internal/usecase/offer"
	"github.com/ignatzorin/talentbridge-backend/internal/validation"
)

type OfferHandler struct {
	createOfferUC  *offer.CreateOfferUseCase
	respondOfferUC *offer.RespondOfferUseCase
	getOfferUC     *offer.GetOfferUseCase
	listOffersUC   *offer.ListRequestOffersUseCase
	materializeUC  *offer.MaterializeEngagementUseCase
}

func NewOfferHandler(
	createOfferUC *offer.CreateOfferUseCase,
	respondOfferUC *offer.RespondOfferUseCase,
	getOfferUC *offer.GetOfferUseCase,
	listOffersUC *offer.ListRequestOffersUseCase,
	materializeUC *offer.MaterializeEngagementUseCase,
) *OfferHandler {
	return &OfferHandler{
		createOfferUC:  createOfferUC,
		respondOfferUC: respondOfferUC,
		getOfferUC:     getOfferUC,
		listOffersUC:   listOffersUC,
		materializeUC:  materializeUC,
	}
}

func (h *OfferHandler) CreateOffer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateOfferMessage(req.Message); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	created, err := h.createOfferUC.Execute(c.Request.Context(), offer.CreateOfferInput{
		Actor:         actor,
		RequestID:     req.RequestID,
		ProviderID:    req.ProviderID,
		Rate:          req.Rate,
		Currency:      req.Currency,
		StartDate:     req.StartDate,
		DurationHours: req.DurationHours,
		Message:       req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToOfferResponse(created))
}

func (h *OfferHandler) GetOffer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	offerID, ok := uuidParam(c, "id", "некорректный ID оффера")
	if !ok {
		return
	}

	found, err := h.getOfferUC.Execute(c.Request.Context(), actor, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOfferResponse(found))
}

// RespondToOffer обрабатывает accept, decline и counter.
func (h *OfferHandler) RespondToOffer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	offerID, ok := uuidParam(c, "id", "некорректный ID оффера")
	if !ok {
		return
	}

	var req dto.RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}
	if err := validation.ValidateOfferMessage(req.Message); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.respondOfferUC.Execute(c.Request.Context(), offer.RespondOfferInput{
		Actor:       actor,
		OfferID:     offerID,
		Action:      req.Action,
		CounterRate: req.CounterRate,
		Message:     req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.RespondOfferResponse{Offer: dto.ToOfferResponse(result.Offer)}
	if result.Engagement != nil {
		eng := dto.ToEngagementResponse(result.Engagement)
		resp.Engagement = &eng
	}
	response.Success(c, resp)
}

// MaterializeEngagement создаёт контракт по принятому офферу, если он не был создан при принятии.
func (h *OfferHandler) MaterializeEngagement(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	offerID, ok := uuidParam(c, "id", "некорректный ID оффера")
	if !ok {
		return
	}

	eng, err := h.materializeUC.Execute(c.Request.Context(), actor, offerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToEngagementResponse(eng))
}

func (h *OfferHandler) ListRequestOffers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	requestID, ok := uuidParam(c, "id", "некорректный ID заявки")
	if !ok {
		return
	}

	offers, err := h.listOffersUC.Execute(c.Request.Context(), actor, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOfferListResponse(offers))
}

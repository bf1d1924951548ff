package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/talentbridge-backend/internal/config"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/http/handlers"
	"github.com/ignatzorin/talentbridge-backend/internal/http/middleware"
	"github.com/ignatzorin/talentbridge-backend/internal/interface/http/handler"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
)

// Handlers - все HTTP обработчики сервера.
type Handlers struct {
	Offer      *handler.OfferHandler
	Engagement *handler.EngagementHandler
	Escrow     *handler.EscrowHandler
	Dispute    *handler.DisputeHandler
	Health     *handlers.HealthHandler
	WS         *handlers.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(metrics.Middleware())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	v1 := api.Group("/v1")
	v1.Use(middleware.AuthMiddleware(tokenManager))

	// операции с деньгами ограничены по частоте отдельно
	money := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	id := middleware.UUIDValidator("id")
	adminOnly := middleware.RequireRole(valueobject.RoleAdmin)

	offers := v1.Group("/offers")
	{
		offers.POST("", h.Offer.CreateOffer)
		offers.GET("/:id", id, h.Offer.GetOffer)
		offers.POST("/:id/respond", id, h.Offer.RespondToOffer)
		offers.POST("/:id/engagement", id, h.Offer.MaterializeEngagement)
	}
	v1.GET("/requests/:id/offers", id, h.Offer.ListRequestOffers)

	engagements := v1.Group("/engagements")
	{
		engagements.POST("/shortlist", h.Engagement.Shortlist)
		engagements.GET("/:id", id, h.Engagement.GetEngagement)
		engagements.POST("/:id/interview", id, h.Engagement.ScheduleInterview)
		engagements.POST("/:id/activate", id, h.Engagement.Activate)
		engagements.POST("/:id/start", id, h.Engagement.Start)
		engagements.POST("/:id/pause", id, h.Engagement.Pause)
		engagements.POST("/:id/resume", id, h.Engagement.Resume)
		engagements.POST("/:id/complete", id, money, h.Engagement.Complete)
		engagements.POST("/:id/cancel", id, h.Engagement.Cancel)
		engagements.POST("/:id/terminate", id, adminOnly, h.Engagement.Terminate)
		engagements.PUT("/:id/milestones", id, h.Engagement.SetMilestones)
		engagements.POST("/:id/milestones/:index/start", id, h.Engagement.StartMilestone)
		engagements.POST("/:id/milestones/:index/complete", id, h.Engagement.CompleteMilestone)
		engagements.GET("/:id/escrow", id, h.Engagement.ListEscrow)
		engagements.POST("/:id/disputes", id, h.Dispute.FileDispute)
		engagements.GET("/:id/disputes", id, h.Dispute.ListEngagementDisputes)
	}

	escrow := v1.Group("/escrow")
	escrow.Use(money)
	{
		escrow.POST("", h.Escrow.CreateEscrow)
		escrow.GET("/:id", id, h.Escrow.GetEscrow)
		escrow.POST("/:id/hold", id, h.Escrow.HoldEscrow)
		escrow.POST("/:id/release", id, h.Escrow.ReleaseEscrow)
		escrow.POST("/:id/refund", id, h.Escrow.RefundEscrow)
	}

	disputes := v1.Group("/disputes")
	{
		disputes.GET("/:id", id, h.Dispute.GetDispute)
		disputes.POST("/:id/review", id, adminOnly, h.Dispute.StartReview)
		disputes.POST("/:id/resolve", id, adminOnly, money, h.Dispute.ResolveDispute)
		disputes.POST("/:id/close", id, adminOnly, h.Dispute.CloseDispute)
	}

	return r
}

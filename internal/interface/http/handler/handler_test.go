package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/http/middleware"
)

func newTestRouter(actor *valueobject.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if actor != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextActorKey, *actor)
			c.Next()
		})
	}
	return r
}

func testActor() *valueobject.Actor {
	return &valueobject.Actor{UserID: uuid.New(), Role: valueobject.RoleSeeker, CompanyID: uuid.New()}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOfferHandler_CreateOffer_Unauthorized(t *testing.T) {
	r := newTestRouter(nil)
	h := &OfferHandler{}
	r.POST("/offers", h.CreateOffer)

	w := serve(r, "POST", "/offers", `{}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOfferHandler_CreateOffer_InvalidBody(t *testing.T) {
	r := newTestRouter(testActor())
	h := &OfferHandler{}
	r.POST("/offers", h.CreateOffer)

	w := serve(r, "POST", "/offers", `{"rate": "100"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferHandler_GetOffer_InvalidID(t *testing.T) {
	r := newTestRouter(testActor())
	h := &OfferHandler{}
	r.GET("/offers/:id", h.GetOffer)

	w := serve(r, "GET", "/offers/invalid-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferHandler_RespondToOffer_UnknownAction(t *testing.T) {
	r := newTestRouter(testActor())
	h := &OfferHandler{}
	r.POST("/offers/:id/respond", h.RespondToOffer)

	w := serve(r, "POST", "/offers/"+uuid.NewString()+"/respond", `{"action": "withdraw"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngagementHandler_Transitions_Unauthorized(t *testing.T) {
	r := newTestRouter(nil)
	h := &EngagementHandler{}
	r.POST("/engagements/:id/activate", h.Activate)
	r.POST("/engagements/:id/cancel", h.Cancel)

	id := uuid.NewString()
	assert.Equal(t, http.StatusUnauthorized, serve(r, "POST", "/engagements/"+id+"/activate", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "POST", "/engagements/"+id+"/cancel", "").Code)
}

func TestEngagementHandler_Transitions_InvalidID(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EngagementHandler{}
	r.POST("/engagements/:id/start", h.Start)
	r.POST("/engagements/:id/terminate", h.Terminate)
	r.POST("/engagements/:id/complete", h.Complete)

	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/engagements/bad/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/engagements/bad/terminate", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/engagements/bad/complete", "").Code)
}

func TestEngagementHandler_Milestone_InvalidIndex(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EngagementHandler{}
	r.POST("/engagements/:id/milestones/:index/start", h.StartMilestone)

	id := uuid.NewString()
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/engagements/"+id+"/milestones/first/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/engagements/"+id+"/milestones/-1/start", "").Code)
}

func TestEngagementHandler_SetMilestones_EmptyPlan(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EngagementHandler{}
	r.PUT("/engagements/:id/milestones", h.SetMilestones)

	w := serve(r, "PUT", "/engagements/"+uuid.NewString()+"/milestones", `{"milestones": []}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEscrowHandler_CreateEscrow_Unauthorized(t *testing.T) {
	r := newTestRouter(nil)
	h := &EscrowHandler{}
	r.POST("/escrow", h.CreateEscrow)

	w := serve(r, "POST", "/escrow", `{"engagement_id": "`+uuid.NewString()+`"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEscrowHandler_InvalidID(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EscrowHandler{}
	r.POST("/escrow/:id/hold", h.HoldEscrow)
	r.POST("/escrow/:id/release", h.ReleaseEscrow)
	r.POST("/escrow/:id/refund", h.RefundEscrow)
	r.GET("/escrow/:id", h.GetEscrow)

	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/escrow/invalid-uuid/hold", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/escrow/invalid-uuid/release", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "POST", "/escrow/invalid-uuid/refund", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "GET", "/escrow/invalid-uuid", "").Code)
}

func TestEscrowHandler_ReleaseEscrow_MalformedBody(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EscrowHandler{}
	r.POST("/escrow/:id/release", h.ReleaseEscrow)

	w := serve(r, "POST", "/escrow/"+uuid.NewString()+"/release", `{"destination":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_FileDispute_MissingDescription(t *testing.T) {
	r := newTestRouter(testActor())
	h := &DisputeHandler{}
	r.POST("/engagements/:id/disputes", h.FileDispute)

	w := serve(r, "POST", "/engagements/"+uuid.NewString()+"/disputes", `{"reason": "quality"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_ResolveDispute_UnknownOutcome(t *testing.T) {
	r := newTestRouter(testActor())
	h := &DisputeHandler{}
	r.POST("/disputes/:id/resolve", h.ResolveDispute)

	w := serve(r, "POST", "/disputes/"+uuid.NewString()+"/resolve", `{"resolution": "ok", "outcome": "split"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_GetDispute_Unauthorized(t *testing.T) {
	r := newTestRouter(nil)
	h := &DisputeHandler{}
	r.GET("/disputes/:id", h.GetDispute)

	w := serve(r, "GET", "/disputes/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_FileDispute_ShortDescription(t *testing.T) {
	r := newTestRouter(testActor())
	h := &DisputeHandler{}
	r.POST("/engagements/:id/disputes", h.FileDispute)

	w := serve(r, "POST", "/engagements/"+uuid.NewString()+"/disputes", `{"reason": "quality", "description": "плохо"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngagementHandler_Complete_InvalidDeliverableLink(t *testing.T) {
	r := newTestRouter(testActor())
	h := &EngagementHandler{}
	r.POST("/engagements/:id/complete", h.Complete)

	w := serve(r, "POST", "/engagements/"+uuid.NewString()+"/complete", `{"deliverables": [{"title": "API", "url": "javascript:alert(1)"}]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

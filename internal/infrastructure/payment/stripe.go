package payment

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
}

type transferAPI interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

type refundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeProcessor - адаптер Stripe: авторизация с ручным capture, переводы на
// подключённые аккаунты исполнителей и возвраты.
type StripeProcessor struct {
	intents   paymentIntentAPI
	transfers transferAPI
	refunds   refundAPI
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{
		intents:   sc.PaymentIntents,
		transfers: sc.Transfers,
		refunds:   sc.Refunds,
	}
}

func withMetadata(ctx context.Context, p *stripe.Params, key string, metadata map[string]string) {
	p.Context = ctx
	p.SetIdempotencyKey(key)
	for k, v := range metadata {
		p.AddMetadata(k, v)
	}
}

func (s *StripeProcessor) AuthorizeCharge(ctx context.Context, req repository.ChargeRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(valueobject.MinorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
	}
	if req.PaymentMethod != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethod)
	}
	withMetadata(ctx, &params.Params, req.IdempotencyKey, req.Metadata)

	pi, err := s.intents.New(params)
	if err != nil {
		return "", classify(err, "stripe: не удалось авторизовать платёж")
	}
	if pi.Status != stripe.PaymentIntentStatusRequiresCapture {
		return "", Permanent(nil, "stripe: платёж не авторизован, статус "+string(pi.Status))
	}
	return pi.ID, nil
}

func (s *StripeProcessor) CaptureCharge(ctx context.Context, intentID, idempotencyKey string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	withMetadata(ctx, &params.Params, idempotencyKey, nil)

	pi, err := s.intents.Capture(intentID, params)
	if err != nil {
		return classify(err, "stripe: не удалось списать авторизованный платёж")
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Transient(nil, "stripe: списание не подтверждено, статус "+string(pi.Status))
	}
	return nil
}

func (s *StripeProcessor) Transfer(ctx context.Context, req repository.TransferRequest) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(valueobject.MinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(req.Destination),
	}
	withMetadata(ctx, &params.Params, req.IdempotencyKey, req.Metadata)

	tr, err := s.transfers.New(params)
	if err != nil {
		return "", classify(err, "stripe: не удалось перевести средства исполнителю")
	}
	return tr.ID, nil
}

func (s *StripeProcessor) Refund(ctx context.Context, req repository.RefundRequest) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
	}
	if req.Amount != nil {
		params.Amount = stripe.Int64(valueobject.MinorUnits(*req.Amount))
	}
	withMetadata(ctx, &params.Params, req.IdempotencyKey, req.Metadata)

	rf, err := s.refunds.New(params)
	if err != nil {
		return "", classify(err, "stripe: не удалось вернуть средства")
	}
	if rf.Status == stripe.RefundStatusFailed || rf.Status == stripe.RefundStatusCanceled {
		return "", Permanent(nil, "stripe: возврат отклонён, статус "+string(rf.Status))
	}
	return rf.ID, nil
}

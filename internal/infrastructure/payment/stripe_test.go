package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type mockIntents struct {
	mock.Mock
}

func (m *mockIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *mockIntents) Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

type mockTransfers struct {
	mock.Mock
}

func (m *mockTransfers) New(params *stripe.TransferParams) (*stripe.Transfer, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Transfer), args.Error(1)
}

func TestStripeProcessor_AuthorizeCharge(t *testing.T) {
	intents := new(mockIntents)
	p := &StripeProcessor{intents: intents}

	intents.On("New", mock.MatchedBy(func(params *stripe.PaymentIntentParams) bool {
		return *params.Amount == 1200000 &&
			*params.Currency == "usd" &&
			*params.CaptureMethod == string(stripe.PaymentIntentCaptureMethodManual) &&
			*params.IdempotencyKey == "esc_1"
	})).Return(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresCapture}, nil)

	id, err := p.AuthorizeCharge(context.Background(), repository.ChargeRequest{
		Amount:         decimal.NewFromInt(12000),
		Currency:       "USD",
		PaymentMethod:  "pm_card_visa",
		IdempotencyKey: "esc_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", id)
	intents.AssertExpectations(t)
}

func TestStripeProcessor_AuthorizeRequiresAction(t *testing.T) {
	intents := new(mockIntents)
	p := &StripeProcessor{intents: intents}
	intents.On("New", mock.Anything).
		Return(&stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusRequiresAction}, nil)

	_, err := p.AuthorizeCharge(context.Background(), repository.ChargeRequest{Amount: decimal.NewFromInt(1), Currency: "USD", IdempotencyKey: "k"})
	assert.True(t, apperror.IsProcessorPermanent(err))
}

func TestStripeProcessor_CaptureDeclined(t *testing.T) {
	intents := new(mockIntents)
	p := &StripeProcessor{intents: intents}
	intents.On("Capture", "pi_1", mock.Anything).Return(nil, &stripe.Error{HTTPStatusCode: 402, Msg: "declined"})

	err := p.CaptureCharge(context.Background(), "pi_1", "k")
	assert.True(t, apperror.IsProcessorPermanent(err))
}

func TestStripeProcessor_TransferServerError(t *testing.T) {
	transfers := new(mockTransfers)
	p := &StripeProcessor{transfers: transfers}
	transfers.On("New", mock.MatchedBy(func(params *stripe.TransferParams) bool {
		return *params.Destination == "acct_9" && *params.Amount == 1020000
	})).Return(nil, &stripe.Error{HTTPStatusCode: 500})

	_, err := p.Transfer(context.Background(), repository.TransferRequest{
		Amount: decimal.NewFromInt(10200), Currency: "USD", Destination: "acct_9", IdempotencyKey: "k",
	})
	assert.True(t, apperror.IsProcessorTransient(err))
	transfers.AssertExpectations(t)
}

type ctxKey struct{}

func TestWithMetadata_SetsContextKeyAndMetadata(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	params := &stripe.TransferParams{}

	withMetadata(ctx, &params.Params, "esc_k", map[string]string{"escrow_id": "42"})

	assert.Equal(t, ctx, params.Context)
	require.NotNil(t, params.IdempotencyKey)
	assert.Equal(t, "esc_k", *params.IdempotencyKey)
	assert.Equal(t, "42", params.Metadata["escrow_id"])
}

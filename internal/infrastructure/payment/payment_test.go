package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

func TestIdempotencyKey_StableAndDistinct(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	held := IdempotencyKey(id, valueobject.EscrowStatusHeld, nil)
	assert.Equal(t, held, IdempotencyKey(id, valueobject.EscrowStatusHeld, nil))
	assert.Len(t, held, len("esc_")+32)
	assert.Contains(t, held, "esc_")

	assert.NotEqual(t, held, IdempotencyKey(id, valueobject.EscrowStatusReleased, nil))
	assert.NotEqual(t, held, IdempotencyKey(uuid.New(), valueobject.EscrowStatusHeld, nil))

	a := decimal.RequireFromString("10")
	b := decimal.RequireFromString("10.00")
	c := decimal.RequireFromString("10.01")
	assert.Equal(t,
		IdempotencyKey(id, valueobject.EscrowStatusRefunded, &a),
		IdempotencyKey(id, valueobject.EscrowStatusRefunded, &b))
	assert.NotEqual(t,
		IdempotencyKey(id, valueobject.EscrowStatusRefunded, &a),
		IdempotencyKey(id, valueobject.EscrowStatusRefunded, &c))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, true},
		{"rate limited", &stripe.Error{HTTPStatusCode: 429}, true},
		{"server error", &stripe.Error{HTTPStatusCode: 502}, true},
		{"idempotency conflict", &stripe.Error{HTTPStatusCode: 409}, true},
		{"card declined", &stripe.Error{HTTPStatusCode: 402}, false},
		{"bad request", &stripe.Error{HTTPStatusCode: 400}, false},
		{"unknown", errors.New("boom"), true},
		{"already permanent", Permanent(nil, "нет"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, "ошибка")
			require.Error(t, err)
			assert.Equal(t, tt.transient, apperror.IsProcessorTransient(err))
			assert.Equal(t, !tt.transient, apperror.IsProcessorPermanent(err))
		})
	}
	assert.NoError(t, classify(nil, "ошибка"))
}

func TestSandboxProcessor_IdempotentByKey(t *testing.T) {
	ctx := context.Background()
	sb := NewSandboxProcessor()
	req := repository.ChargeRequest{
		Amount:         decimal.RequireFromString("12000"),
		Currency:       "USD",
		PaymentMethod:  "pm_card_visa",
		IdempotencyKey: "esc_a",
	}

	first, err := sb.AuthorizeCharge(ctx, req)
	require.NoError(t, err)
	second, err := sb.AuthorizeCharge(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, sb.Calls(OpAuthorize))

	require.NoError(t, sb.CaptureCharge(ctx, first, "esc_b"))

	tr := repository.TransferRequest{Amount: decimal.RequireFromString("10200"), Currency: "USD", Destination: "acct_1", IdempotencyKey: "esc_c"}
	t1, err := sb.Transfer(ctx, tr)
	require.NoError(t, err)
	t2, err := sb.Transfer(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
	assert.Len(t, sb.Transfers(), 1)
}

func TestSandboxProcessor_TransferKeyReusedWithOtherDestination(t *testing.T) {
	ctx := context.Background()
	sb := NewSandboxProcessor()
	tr := repository.TransferRequest{Amount: decimal.RequireFromString("10200"), Currency: "USD", Destination: "acct_1", IdempotencyKey: "esc_c"}
	_, err := sb.Transfer(ctx, tr)
	require.NoError(t, err)

	tr.Destination = "acct_2"
	_, err = sb.Transfer(ctx, tr)
	assert.True(t, apperror.IsProcessorPermanent(err))
	require.Len(t, sb.Transfers(), 1)
	assert.Equal(t, "acct_1", sb.Transfers()[0].Destination)
}

func TestSandboxProcessor_RefundLimits(t *testing.T) {
	ctx := context.Background()
	sb := NewSandboxProcessor()
	intent, err := sb.AuthorizeCharge(ctx, repository.ChargeRequest{Amount: decimal.NewFromInt(100), Currency: "USD", IdempotencyKey: "k1"})
	require.NoError(t, err)

	part := decimal.NewFromInt(40)
	_, err = sb.Refund(ctx, repository.RefundRequest{PaymentIntentID: intent, Amount: &part, IdempotencyKey: "k2"})
	require.NoError(t, err)

	tooMuch := decimal.NewFromInt(61)
	_, err = sb.Refund(ctx, repository.RefundRequest{PaymentIntentID: intent, Amount: &tooMuch, IdempotencyKey: "k3"})
	assert.True(t, apperror.IsProcessorPermanent(err))

	_, err = sb.Refund(ctx, repository.RefundRequest{PaymentIntentID: intent, IdempotencyKey: "k4"})
	require.NoError(t, err)
	assert.Len(t, sb.Refunds(), 2)
}

func TestSandboxProcessor_DeclinedCard(t *testing.T) {
	sb := NewSandboxProcessor()
	_, err := sb.AuthorizeCharge(context.Background(), repository.ChargeRequest{
		Amount: decimal.NewFromInt(100), Currency: "USD", PaymentMethod: "pm_card_declined", IdempotencyKey: "k",
	})
	assert.True(t, apperror.IsProcessorPermanent(err))
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Timeout: time.Second, MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestResilientProcessor_RetriesTransientWithSameKey(t *testing.T) {
	sb := NewSandboxProcessor()
	sb.FailNext(OpAuthorize, Transient(nil, "таймаут"))
	sb.FailNext(OpAuthorize, &stripe.Error{HTTPStatusCode: 503})
	p := NewResilientProcessor(sb, fastPolicy(3))

	req := repository.ChargeRequest{Amount: decimal.NewFromInt(50), Currency: "USD", IdempotencyKey: "esc_retry"}
	id, err := p.AuthorizeCharge(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 3, sb.Calls(OpAuthorize))

	again, err := sb.AuthorizeCharge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestResilientProcessor_StopsOnPermanent(t *testing.T) {
	sb := NewSandboxProcessor()
	sb.FailNext(OpTransfer, Permanent(nil, "аккаунт заблокирован"))
	p := NewResilientProcessor(sb, fastPolicy(5))

	_, err := p.Transfer(context.Background(), repository.TransferRequest{
		Amount: decimal.NewFromInt(10), Currency: "USD", Destination: "acct_1", IdempotencyKey: "k",
	})
	assert.True(t, apperror.IsProcessorPermanent(err))
	assert.Equal(t, 1, sb.Calls(OpTransfer))
}

func TestResilientProcessor_ExhaustsAttempts(t *testing.T) {
	sb := NewSandboxProcessor()
	for i := 0; i < 3; i++ {
		sb.FailNext(OpCapture, errors.New("connection reset"))
	}
	p := NewResilientProcessor(sb, fastPolicy(2))

	err := p.CaptureCharge(context.Background(), "pi_x", "k")
	assert.True(t, apperror.IsProcessorTransient(err))
	assert.Equal(t, 2, sb.Calls(OpCapture))
}

func TestResilientProcessor_CancelledContext(t *testing.T) {
	sb := NewSandboxProcessor()
	p := NewResilientProcessor(sb, fastPolicy(3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Refund(ctx, repository.RefundRequest{PaymentIntentID: "pi_x", IdempotencyKey: "k"})
	assert.True(t, apperror.IsProcessorTransient(err))
}

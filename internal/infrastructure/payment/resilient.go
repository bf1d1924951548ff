package payment

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/logger"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
	"github.com/ignatzorin/talentbridge-backend/internal/tracing"
)

type RetryPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// ResilientProcessor оборачивает процессор таймаутом на попытку и повторами
// временных ошибок. Все попытки идут с одним ключом идемпотентности.
type ResilientProcessor struct {
	next   repository.PaymentProcessor
	policy RetryPolicy
}

func NewResilientProcessor(next repository.PaymentProcessor, policy RetryPolicy) *ResilientProcessor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Timeout <= 0 {
		policy.Timeout = 10 * time.Second
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 200 * time.Millisecond
	}
	return &ResilientProcessor{next: next, policy: policy}
}

func (p *ResilientProcessor) AuthorizeCharge(ctx context.Context, req repository.ChargeRequest) (string, error) {
	var intentID string
	err := p.do(ctx, OpAuthorize, req.IdempotencyKey, func(ctx context.Context) error {
		id, err := p.next.AuthorizeCharge(ctx, req)
		intentID = id
		return err
	})
	return intentID, err
}

func (p *ResilientProcessor) CaptureCharge(ctx context.Context, intentID, idempotencyKey string) error {
	return p.do(ctx, OpCapture, idempotencyKey, func(ctx context.Context) error {
		return p.next.CaptureCharge(ctx, intentID, idempotencyKey)
	})
}

func (p *ResilientProcessor) Transfer(ctx context.Context, req repository.TransferRequest) (string, error) {
	var transferID string
	err := p.do(ctx, OpTransfer, req.IdempotencyKey, func(ctx context.Context) error {
		id, err := p.next.Transfer(ctx, req)
		transferID = id
		return err
	})
	return transferID, err
}

func (p *ResilientProcessor) Refund(ctx context.Context, req repository.RefundRequest) (string, error) {
	var refundID string
	err := p.do(ctx, OpRefund, req.IdempotencyKey, func(ctx context.Context) error {
		id, err := p.next.Refund(ctx, req)
		refundID = id
		return err
	})
	return refundID, err
}

func (p *ResilientProcessor) do(ctx context.Context, op, key string, call func(ctx context.Context) error) (err error) {
	ctx, span := tracing.StartSpan(ctx, "processor."+op, tracing.Operation(op), tracing.IdempotencyKey(key))
	start := time.Now()
	log := logger.L().WithFields(logrus.Fields{
		"operation":       op,
		"idempotency_key": key,
	})

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "transient"
			if apperror.IsProcessorPermanent(err) {
				outcome = "permanent"
			}
		}
		metrics.ProcessorCallsTotal.WithLabelValues(op, outcome).Inc()
		metrics.ProcessorCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		tracing.EndSpan(span, err)
	}()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.policy.BaseDelay
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(p.policy.MaxAttempts-1)), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, p.policy.Timeout)
		defer cancel()

		callErr := classify(call(callCtx), "процессор не ответил")
		if callErr == nil {
			return nil
		}
		log.WithError(callErr).WithField("attempt", attempt).Warn("processor: попытка не удалась")
		if apperror.IsProcessorPermanent(callErr) {
			return backoff.Permanent(callErr)
		}
		return callErr
	}, policy)

	// Retry возвращает ctx.Err() без обёртки, если контекст истёк между попытками.
	err = classify(err, "процессор не ответил")
	span.SetAttributes(tracing.Attempt(attempt))
	return err
}

package payment

import (
	"context"
	"errors"
	"net"

	"github.com/stripe/stripe-go/v81"

	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

// Transient помечает ошибку процессора как повторяемую.
func Transient(err error, message string) error {
	return apperror.Wrap(err, apperror.ErrCodeProcessorTransient, message)
}

// Permanent помечает ошибку процессора как окончательный отказ.
func Permanent(err error, message string) error {
	return apperror.Wrap(err, apperror.ErrCodeProcessorPermanent, message)
}

// classify переводит ошибку Stripe или сети в ошибку приложения.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if apperror.IsProcessorTransient(err) || apperror.IsProcessorPermanent(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(err, message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient(err, message)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == 0,
			stripeErr.HTTPStatusCode == 409,
			stripeErr.HTTPStatusCode == 429,
			stripeErr.HTTPStatusCode >= 500:
			return Transient(err, message)
		default:
			return Permanent(err, message)
		}
	}

	return Transient(err, message)
}

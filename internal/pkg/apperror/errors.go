package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeExpired            ErrorCode = "EXPIRED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeProcessorTransient ErrorCode = "PROCESSOR_TRANSIENT"
	ErrCodeProcessorPermanent ErrorCode = "PROCESSOR_PERMANENT"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал с предопределёнными ошибками.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeExpired:
		return http.StatusGone
	case ErrCodeProcessorTransient:
		return http.StatusServiceUnavailable
	case ErrCodeProcessorPermanent:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindOf возвращает код ошибки приложения или ErrCodeInternal для прочих ошибок.
func KindOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return is(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return is(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return is(err, ErrCodeConflict)
}

func IsExpired(err error) bool {
	return is(err, ErrCodeExpired)
}

func IsProcessorTransient(err error) bool {
	return is(err, ErrCodeProcessorTransient)
}

func IsProcessorPermanent(err error) bool {
	return is(err, ErrCodeProcessorPermanent)
}

// IsRetryable сообщает, можно ли повторить операцию с тем же ключом идемпотентности.
func IsRetryable(err error) bool {
	return IsProcessorTransient(err)
}

var (
	ErrOfferNotFound      = New(ErrCodeNotFound, "оффер не найден")
	ErrEngagementNotFound = New(ErrCodeNotFound, "контракт не найден")
	ErrEscrowNotFound     = New(ErrCodeNotFound, "эскроу-платёж не найден")
	ErrDisputeNotFound    = New(ErrCodeNotFound, "спор не найден")
	ErrRequestNotFound    = New(ErrCodeNotFound, "заявка на подбор не найдена")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrStaleWrite         = New(ErrCodeConflict, "запись была изменена параллельным запросом")
	ErrBlockedByDispute   = New(ErrCodeConflict, "по контракту открыт спор")
	ErrOfferExpired       = New(ErrCodeExpired, "срок ответа на встречное предложение истёк")
)

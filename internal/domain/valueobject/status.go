package valueobject

import "github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"

// transitionAllowed проверяет переход по таблице допустимых переходов.
func transitionAllowed[S comparable](table map[S][]S, from, to S) bool {
	allowed, ok := table[from]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusDeclined  OfferStatus = "declined"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusExpired   OfferStatus = "expired"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusPending:   {OfferStatusAccepted, OfferStatusDeclined, OfferStatusCountered},
	OfferStatusCountered: {OfferStatusAccepted, OfferStatusDeclined, OfferStatusCountered, OfferStatusExpired},
	OfferStatusAccepted:  {},
	OfferStatusDeclined:  {},
	OfferStatusExpired:   {},
}

func (s OfferStatus) IsValid() bool {
	_, ok := offerTransitions[s]
	return ok
}

func (s OfferStatus) CanTransitionTo(newStatus OfferStatus) bool {
	return transitionAllowed(offerTransitions, s, newStatus)
}

// IsTerminal сообщает, что оффер больше не принимает ответов.
func (s OfferStatus) IsTerminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusDeclined || s == OfferStatusExpired
}

func NewOfferStatus(status string) (OfferStatus, error) {
	s := OfferStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус оффера")
	}
	return s, nil
}

type EngagementStatus string

const (
	EngagementStatusStaged       EngagementStatus = "staged"
	EngagementStatusInterviewing EngagementStatus = "interviewing"
	EngagementStatusAccepted     EngagementStatus = "accepted"
	EngagementStatusActive       EngagementStatus = "active"
	EngagementStatusInProgress   EngagementStatus = "in_progress"
	EngagementStatusPaused       EngagementStatus = "paused"
	EngagementStatusCompleted    EngagementStatus = "completed"
	EngagementStatusTerminated   EngagementStatus = "terminated"
	EngagementStatusDisputed     EngagementStatus = "disputed"
	EngagementStatusCancelled    EngagementStatus = "cancelled"
)

// Переход в disputed и обратно выполняется только через спор и сюда не входит.
var engagementTransitions = map[EngagementStatus][]EngagementStatus{
	EngagementStatusStaged:       {EngagementStatusInterviewing, EngagementStatusAccepted},
	EngagementStatusInterviewing: {EngagementStatusAccepted},
	EngagementStatusAccepted:     {EngagementStatusActive},
	EngagementStatusActive:       {EngagementStatusInProgress, EngagementStatusCompleted, EngagementStatusCancelled, EngagementStatusTerminated},
	EngagementStatusInProgress:   {EngagementStatusPaused, EngagementStatusCompleted, EngagementStatusCancelled, EngagementStatusTerminated},
	EngagementStatusPaused:       {EngagementStatusInProgress, EngagementStatusCancelled, EngagementStatusTerminated},
	EngagementStatusDisputed:     {},
	EngagementStatusCompleted:    {},
	EngagementStatusTerminated:   {},
	EngagementStatusCancelled:    {},
}

func (s EngagementStatus) IsValid() bool {
	_, ok := engagementTransitions[s]
	return ok
}

func (s EngagementStatus) CanTransitionTo(newStatus EngagementStatus) bool {
	return transitionAllowed(engagementTransitions, s, newStatus)
}

func (s EngagementStatus) IsTerminal() bool {
	return s == EngagementStatusCompleted || s == EngagementStatusTerminated || s == EngagementStatusCancelled
}

func NewEngagementStatus(status string) (EngagementStatus, error) {
	s := EngagementStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус контракта")
	}
	return s, nil
}

type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowStatusPending:  {EscrowStatusHeld},
	EscrowStatusHeld:     {EscrowStatusReleased, EscrowStatusRefunded},
	EscrowStatusReleased: {},
	EscrowStatusRefunded: {},
}

func (s EscrowStatus) IsValid() bool {
	_, ok := escrowTransitions[s]
	return ok
}

func (s EscrowStatus) CanTransitionTo(newStatus EscrowStatus) bool {
	return transitionAllowed(escrowTransitions, s, newStatus)
}

func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

func NewEscrowStatus(status string) (EscrowStatus, error) {
	s := EscrowStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус эскроу")
	}
	return s, nil
}

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusClosed      DisputeStatus = "closed"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusResolved, DisputeStatusClosed},
	DisputeStatusUnderReview: {DisputeStatusResolved, DisputeStatusClosed},
	DisputeStatusResolved:    {},
	DisputeStatusClosed:      {},
}

func (s DisputeStatus) IsValid() bool {
	_, ok := disputeTransitions[s]
	return ok
}

func (s DisputeStatus) CanTransitionTo(newStatus DisputeStatus) bool {
	return transitionAllowed(disputeTransitions, s, newStatus)
}

// IsActive сообщает, что спор замораживает контракт и эскроу.
func (s DisputeStatus) IsActive() bool {
	return s == DisputeStatusOpen || s == DisputeStatusUnderReview
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	return s, nil
}

type DisputeReason string

const (
	DisputeReasonQuality       DisputeReason = "quality"
	DisputeReasonNonDelivery   DisputeReason = "non_delivery"
	DisputeReasonScopeChange   DisputeReason = "scope_change"
	DisputeReasonPayment       DisputeReason = "payment"
	DisputeReasonCommunication DisputeReason = "communication"
	DisputeReasonOther         DisputeReason = "other"
)

func NewDisputeReason(reason string) (DisputeReason, error) {
	r := DisputeReason(reason)
	switch r {
	case DisputeReasonQuality, DisputeReasonNonDelivery, DisputeReasonScopeChange,
		DisputeReasonPayment, DisputeReasonCommunication, DisputeReasonOther:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректная причина спора")
}

// DisputeOutcome определяет судьбу контракта после решения спора.
type DisputeOutcome string

const (
	DisputeOutcomeRestore   DisputeOutcome = "restore"
	DisputeOutcomeTerminate DisputeOutcome = "terminate"
	DisputeOutcomeCancel    DisputeOutcome = "cancel"
)

func NewDisputeOutcome(outcome string) (DisputeOutcome, error) {
	o := DisputeOutcome(outcome)
	switch o {
	case DisputeOutcomeRestore, DisputeOutcomeTerminate, DisputeOutcomeCancel:
		return o, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректный исход спора")
}

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
)

func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusInProgress, MilestoneStatusCompleted:
		return true
	}
	return false
}

type OfferAction string

const (
	OfferActionAccept  OfferAction = "accept"
	OfferActionDecline OfferAction = "decline"
	OfferActionCounter OfferAction = "counter"
)

func NewOfferAction(action string) (OfferAction, error) {
	a := OfferAction(action)
	switch a {
	case OfferActionAccept, OfferActionDecline, OfferActionCounter:
		return a, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "некорректное действие с оффером")
}

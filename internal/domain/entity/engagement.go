package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type Engagement struct {
	ID                uuid.UUID
	OfferID           *uuid.UUID
	RequestID         uuid.UUID
	SeekerCompanyID   uuid.UUID
	ProviderID        uuid.UUID
	Rate              decimal.Decimal
	Currency          string
	DurationHours     int
	TotalAmount       decimal.Decimal
	PlatformFee       decimal.Decimal
	ProviderAmount    decimal.Decimal
	FacilitationFee   decimal.Decimal
	Status            valueobject.EngagementStatus
	PriorStatus       *valueobject.EngagementStatus
	StartDate         *time.Time
	StartedAt         *time.Time
	EndedAt           *time.Time
	PausedAt          *time.Time
	ResumedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	CompletionNotes   *string
	CancellationNotes *string
	Deliverables      []Deliverable
	Verification      *Verification
	Milestones        []Milestone
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Deliverable struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Verification - подтверждение приёмки работ заказчиком.
type Verification struct {
	VerifiedBy uuid.UUID `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
}

type Milestone struct {
	Title       string                      `json:"title"`
	Percentage  decimal.Decimal             `json:"percentage"`
	Amount      decimal.Decimal             `json:"amount"`
	DueDate     *time.Time                  `json:"due_date,omitempty"`
	Status      valueobject.MilestoneStatus `json:"status"`
	StartedAt   *time.Time                  `json:"started_at,omitempty"`
	CompletedAt *time.Time                  `json:"completed_at,omitempty"`
}

// NewStagedEngagement создаёт контракт на этапе подбора кандидата.
func NewStagedEngagement(requestID, seekerCompanyID, providerID uuid.UUID, now time.Time) (*Engagement, error) {
	if requestID == uuid.Nil || providerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не указаны заявка или исполнитель")
	}
	return &Engagement{
		ID:              uuid.New(),
		RequestID:       requestID,
		SeekerCompanyID: seekerCompanyID,
		ProviderID:      providerID,
		Currency:        valueobject.DefaultCurrency,
		Status:          valueobject.EngagementStatusStaged,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewEngagementFromHandoff создаёт контракт сразу в статусе accepted.
func NewEngagementFromHandoff(h *EngagementHandoff, facilitationFee decimal.Decimal, now time.Time) *Engagement {
	e := &Engagement{
		ID:              uuid.New(),
		RequestID:       h.RequestID,
		SeekerCompanyID: h.SeekerCompanyID,
		ProviderID:      h.ProviderID,
		Status:          valueobject.EngagementStatusAccepted,
		Version:         1,
		CreatedAt:       now,
	}
	e.applyHandoff(h, facilitationFee, now)
	return e
}

func (e *Engagement) applyHandoff(h *EngagementHandoff, facilitationFee decimal.Decimal, now time.Time) {
	offerID := h.OfferID
	e.OfferID = &offerID
	e.Rate = h.Rate
	e.Currency = h.Currency
	e.DurationHours = h.DurationHours
	e.StartDate = h.StartDate
	e.TotalAmount = h.TotalAmount
	e.PlatformFee = h.PlatformFee
	e.ProviderAmount = h.ProviderAmount
	e.FacilitationFee = facilitationFee
	e.UpdatedAt = now
}

// Clone возвращает независимую копию, включая этапы и результаты.
func (e *Engagement) Clone() *Engagement {
	c := *e
	if e.Milestones != nil {
		c.Milestones = append([]Milestone(nil), e.Milestones...)
	}
	if e.Deliverables != nil {
		c.Deliverables = append([]Deliverable(nil), e.Deliverables...)
	}
	if e.Verification != nil {
		v := *e.Verification
		c.Verification = &v
	}
	if e.PriorStatus != nil {
		s := *e.PriorStatus
		c.PriorStatus = &s
	}
	return &c
}

func (e *Engagement) IsParticipant(actor valueobject.Actor) bool {
	return actor.IsSeekerOf(e.SeekerCompanyID) || actor.IsProvider(e.ProviderID)
}

func (e *Engagement) IsSeeker(actor valueobject.Actor) bool {
	return actor.IsSeekerOf(e.SeekerCompanyID)
}

func (e *Engagement) transition(to valueobject.EngagementStatus, message string) error {
	if !e.Status.CanTransitionTo(to) {
		return apperror.New(apperror.ErrCodeConflict, message)
	}
	e.Status = to
	return nil
}

func (e *Engagement) ScheduleInterview(now time.Time) error {
	if err := e.transition(valueobject.EngagementStatusInterviewing, "интервью можно назначить только отобранному кандидату"); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

// AcceptOffer переводит кандидата из воронки подбора в accepted по принятому офферу.
func (e *Engagement) AcceptOffer(h *EngagementHandoff, facilitationFee decimal.Decimal, now time.Time) error {
	if err := e.transition(valueobject.EngagementStatusAccepted, "контракт уже вышел из воронки подбора"); err != nil {
		return err
	}
	e.applyHandoff(h, facilitationFee, now)
	return nil
}

func (e *Engagement) Activate(now time.Time) error {
	if err := e.transition(valueobject.EngagementStatusActive, "активировать можно только принятый контракт"); err != nil {
		return err
	}
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) Start(now time.Time) error {
	if e.Status != valueobject.EngagementStatusActive {
		return apperror.New(apperror.ErrCodeConflict, "начать работу можно только по активному контракту")
	}
	e.Status = valueobject.EngagementStatusInProgress
	e.StartedAt = &now
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) Pause(now time.Time) error {
	if e.Status != valueobject.EngagementStatusInProgress {
		return apperror.New(apperror.ErrCodeConflict, "приостановить можно только контракт в работе")
	}
	e.Status = valueobject.EngagementStatusPaused
	e.PausedAt = &now
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) Resume(now time.Time) error {
	if e.Status != valueobject.EngagementStatusPaused {
		return apperror.New(apperror.ErrCodeConflict, "возобновить можно только приостановленный контракт")
	}
	e.Status = valueobject.EngagementStatusInProgress
	e.ResumedAt = &now
	e.UpdatedAt = now
	return nil
}

// CanComplete проверяет предусловие завершения без изменения контракта.
func (e *Engagement) CanComplete() error {
	if !e.Status.CanTransitionTo(valueobject.EngagementStatusCompleted) {
		return apperror.New(apperror.ErrCodeConflict, "завершить можно только активный контракт или контракт в работе")
	}
	return nil
}

func (e *Engagement) Complete(deliverables []Deliverable, notes *string, approvedBy uuid.UUID, now time.Time) error {
	if err := e.CanComplete(); err != nil {
		return err
	}
	e.Status = valueobject.EngagementStatusCompleted
	e.Deliverables = deliverables
	e.CompletionNotes = notes
	e.Verification = &Verification{VerifiedBy: approvedBy, VerifiedAt: now}
	e.CompletedAt = &now
	e.EndedAt = &now
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) Cancel(notes *string, now time.Time) error {
	if err := e.transition(valueobject.EngagementStatusCancelled, "отменить можно только активный, приостановленный контракт или контракт в работе"); err != nil {
		return err
	}
	e.CancellationNotes = notes
	e.CancelledAt = &now
	e.EndedAt = &now
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) Terminate(notes *string, now time.Time) error {
	if err := e.transition(valueobject.EngagementStatusTerminated, "контракт нельзя расторгнуть в текущем статусе"); err != nil {
		return err
	}
	e.CancellationNotes = notes
	e.EndedAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkDisputed замораживает контракт и запоминает статус для восстановления.
// Для завершённых контрактов статус не меняется: заморожены только средства.
func (e *Engagement) MarkDisputed(now time.Time) (bool, error) {
	if e.Status == valueobject.EngagementStatusDisputed {
		return false, apperror.ErrBlockedByDispute
	}
	if e.Status.IsTerminal() {
		return false, nil
	}
	prior := e.Status
	e.PriorStatus = &prior
	e.Status = valueobject.EngagementStatusDisputed
	e.UpdatedAt = now
	return true, nil
}

// ReleaseDispute возвращает контракт из disputed в соответствии с исходом спора.
// Возвращает false, если контракт не был заморожен.
func (e *Engagement) ReleaseDispute(outcome valueobject.DisputeOutcome, notes *string, now time.Time) bool {
	if e.Status != valueobject.EngagementStatusDisputed {
		return false
	}

	switch outcome {
	case valueobject.DisputeOutcomeTerminate:
		e.Status = valueobject.EngagementStatusTerminated
		e.EndedAt = &now
		e.CancellationNotes = notes
	case valueobject.DisputeOutcomeCancel:
		e.Status = valueobject.EngagementStatusCancelled
		e.CancelledAt = &now
		e.EndedAt = &now
		e.CancellationNotes = notes
	default:
		if e.PriorStatus != nil {
			e.Status = *e.PriorStatus
		} else {
			e.Status = valueobject.EngagementStatusActive
		}
	}
	e.PriorStatus = nil
	e.UpdatedAt = now
	return true
}

// SetMilestones заменяет план этапов. Сумма этапов должна совпадать с суммой контракта.
func (e *Engagement) SetMilestones(milestones []Milestone, now time.Time) error {
	if e.Status.IsTerminal() || e.Status == valueobject.EngagementStatusDisputed {
		return apperror.New(apperror.ErrCodeConflict, "этапы нельзя менять в текущем статусе контракта")
	}
	for _, m := range e.Milestones {
		if m.Status != valueobject.MilestoneStatusPending {
			return apperror.New(apperror.ErrCodeConflict, "этапы нельзя менять после начала работ по ним")
		}
	}

	sum := decimal.Zero
	for i := range milestones {
		if milestones[i].Title == "" {
			return apperror.New(apperror.ErrCodeValidation, "название этапа обязательно")
		}
		if milestones[i].Amount.IsNegative() {
			return apperror.New(apperror.ErrCodeValidation, "сумма этапа не может быть отрицательной")
		}
		milestones[i].Status = valueobject.MilestoneStatusPending
		sum = sum.Add(milestones[i].Amount)
	}
	if len(milestones) > 0 && !sum.Equal(e.TotalAmount) {
		return apperror.New(apperror.ErrCodeValidation, "сумма этапов должна совпадать с суммой контракта")
	}

	e.Milestones = milestones
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) milestoneAt(index int) (*Milestone, error) {
	if index < 0 || index >= len(e.Milestones) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "этап не найден")
	}
	return &e.Milestones[index], nil
}

func (e *Engagement) ensureWorking() error {
	if e.Status != valueobject.EngagementStatusActive && e.Status != valueobject.EngagementStatusInProgress {
		return apperror.New(apperror.ErrCodeConflict, "этапы можно вести только по активному контракту")
	}
	return nil
}

func (e *Engagement) ensureOrder(index int) error {
	for i := 0; i < index; i++ {
		if e.Milestones[i].Status != valueobject.MilestoneStatusCompleted {
			return apperror.New(apperror.ErrCodeConflict, "предыдущие этапы ещё не завершены")
		}
	}
	return nil
}

func (e *Engagement) StartMilestone(index int, strictOrder bool, now time.Time) error {
	if err := e.ensureWorking(); err != nil {
		return err
	}
	m, err := e.milestoneAt(index)
	if err != nil {
		return err
	}
	if m.Status != valueobject.MilestoneStatusPending {
		return apperror.New(apperror.ErrCodeConflict, "этап уже начат")
	}
	if strictOrder {
		if err := e.ensureOrder(index); err != nil {
			return err
		}
	}
	m.Status = valueobject.MilestoneStatusInProgress
	m.StartedAt = &now
	e.UpdatedAt = now
	return nil
}

func (e *Engagement) CompleteMilestone(index int, strictOrder bool, now time.Time) error {
	if err := e.ensureWorking(); err != nil {
		return err
	}
	m, err := e.milestoneAt(index)
	if err != nil {
		return err
	}
	if m.Status == valueobject.MilestoneStatusCompleted {
		return apperror.New(apperror.ErrCodeConflict, "этап уже завершён")
	}
	if strictOrder {
		if err := e.ensureOrder(index); err != nil {
			return err
		}
	}
	m.Status = valueobject.MilestoneStatusCompleted
	m.CompletedAt = &now
	e.UpdatedAt = now
	return nil
}

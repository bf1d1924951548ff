// Package memory - хранилище в памяти для тестов и локального запуска без базы.
// Обновления проверяют статус и версию, уникальность активных записей соблюдается.
// Транзакции выполняются по очереди и при ошибке откатываются к снимку, снятому
// в начале транзакции.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/entity"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	"github.com/ignatzorin/talentbridge-backend/internal/pkg/apperror"
)

type txKey struct{}

type Store struct {
	txMu        sync.Mutex
	mu          sync.Mutex
	offers      map[uuid.UUID]entity.Offer
	engagements map[uuid.UUID]*entity.Engagement
	escrows     map[uuid.UUID]entity.EscrowPayment
	disputes    map[uuid.UUID]entity.Dispute
	requests    map[uuid.UUID]entity.EngagementRequest
	candidates  map[uuid.UUID][]entity.Candidate
	payouts     map[uuid.UUID]entity.PayoutAccount
}

func NewStore() *Store {
	return &Store{
		offers:      make(map[uuid.UUID]entity.Offer),
		engagements: make(map[uuid.UUID]*entity.Engagement),
		escrows:     make(map[uuid.UUID]entity.EscrowPayment),
		disputes:    make(map[uuid.UUID]entity.Dispute),
		requests:    make(map[uuid.UUID]entity.EngagementRequest),
		candidates:  make(map[uuid.UUID][]entity.Candidate),
		payouts:     make(map[uuid.UUID]entity.PayoutAccount),
	}
}

// WithinTransaction выполняет fn и при ошибке восстанавливает записи на момент начала.
// Вложенный вызов выполняется в рамках внешней транзакции.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	offers      map[uuid.UUID]entity.Offer
	engagements map[uuid.UUID]*entity.Engagement
	escrows     map[uuid.UUID]entity.EscrowPayment
	disputes    map[uuid.UUID]entity.Dispute
}

// snapshot копирует карты записей. Записи хранятся копиями и не меняются на месте,
// поэтому поверхностной копии карт достаточно.
func (s *Store) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storeSnapshot{
		offers:      maps.Clone(s.offers),
		engagements: maps.Clone(s.engagements),
		escrows:     maps.Clone(s.escrows),
		disputes:    maps.Clone(s.disputes),
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = snap.offers
	s.engagements = snap.engagements
	s.escrows = snap.escrows
	s.disputes = snap.disputes
}

// PutRequest добавляет заявку на подбор.
func (s *Store) PutRequest(r entity.EngagementRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
}

// PutCandidates задаёт выдачу подбора для заявки.
func (s *Store) PutCandidates(requestID uuid.UUID, candidates []entity.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[requestID] = append([]entity.Candidate(nil), candidates...)
}

func (s *Store) PutPayoutAccount(a entity.PayoutAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts[a.ProviderID] = a
}

func (s *Store) Offers() *OfferRepository {
	return &OfferRepository{s: s}
}

func (s *Store) Engagements() *EngagementRepository {
	return &EngagementRepository{s: s}
}

func (s *Store) Escrows() *EscrowRepository {
	return &EscrowRepository{s: s}
}

func (s *Store) Disputes() *DisputeRepository {
	return &DisputeRepository{s: s}
}

func (s *Store) Directory() *DirectoryRepository {
	return &DirectoryRepository{s: s}
}

func guard(storedStatus, expected string, storedVersion, version int) error {
	if storedStatus != expected || storedVersion != version {
		return apperror.ErrStaleWrite
	}
	return nil
}

type OfferRepository struct {
	s *Store
}

func (r *OfferRepository) Create(ctx context.Context, offer *entity.Offer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.offers {
		if o.RequestID == offer.RequestID && o.ProviderID == offer.ProviderID && !o.Status.IsTerminal() {
			return apperror.New(apperror.ErrCodeConflict, "по этой паре уже есть активный оффер")
		}
	}
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r *OfferRepository) Update(ctx context.Context, offer *entity.Offer, expected valueobject.OfferStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.offers[offer.ID]
	if !ok {
		return apperror.ErrOfferNotFound
	}
	if err := guard(string(stored.Status), string(expected), stored.Version, offer.Version); err != nil {
		return err
	}
	offer.Version++
	r.s.offers[offer.ID] = *offer
	return nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.offers[id]
	if !ok {
		return nil, apperror.ErrOfferNotFound
	}
	return &o, nil
}

func (r *OfferRepository) FindActiveByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.offers {
		if o.RequestID == requestID && o.ProviderID == providerID && !o.Status.IsTerminal() {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

func (r *OfferRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Offer
	for _, o := range r.s.offers {
		if o.RequestID == requestID {
			found := o
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type EngagementRepository struct {
	s *Store
}

func (r *EngagementRepository) Create(ctx context.Context, engagement *entity.Engagement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if engagement.OfferID != nil {
		for _, e := range r.s.engagements {
			if e.OfferID != nil && *e.OfferID == *engagement.OfferID {
				return apperror.New(apperror.ErrCodeConflict, "контракт по офферу уже создан")
			}
		}
	}
	r.s.engagements[engagement.ID] = engagement.Clone()
	return nil
}

func (r *EngagementRepository) Update(ctx context.Context, engagement *entity.Engagement, expected valueobject.EngagementStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.engagements[engagement.ID]
	if !ok {
		return apperror.ErrEngagementNotFound
	}
	if err := guard(string(stored.Status), string(expected), stored.Version, engagement.Version); err != nil {
		return err
	}
	engagement.Version++
	r.s.engagements[engagement.ID] = engagement.Clone()
	return nil
}

func (r *EngagementRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Engagement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.engagements[id]
	if !ok {
		return nil, apperror.ErrEngagementNotFound
	}
	return e.Clone(), nil
}

func (r *EngagementRepository) FindByOfferID(ctx context.Context, offerID uuid.UUID) (*entity.Engagement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.engagements {
		if e.OfferID != nil && *e.OfferID == offerID {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

func (r *EngagementRepository) FindPipelineByRequestAndProvider(ctx context.Context, requestID, providerID uuid.UUID) (*entity.Engagement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.engagements {
		if e.RequestID != requestID || e.ProviderID != providerID {
			continue
		}
		if e.Status == valueobject.EngagementStatusStaged || e.Status == valueobject.EngagementStatusInterviewing {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

type EscrowRepository struct {
	s *Store
}

func (r *EscrowRepository) Create(ctx context.Context, payment *entity.EscrowPayment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.escrows {
		if p.EngagementID == payment.EngagementID && !p.Status.IsTerminal() {
			return apperror.New(apperror.ErrCodeConflict, "по контракту уже есть незавершённый платёж")
		}
	}
	r.s.escrows[payment.ID] = *payment
	return nil
}

func (r *EscrowRepository) Update(ctx context.Context, payment *entity.EscrowPayment, expected valueobject.EscrowStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.escrows[payment.ID]
	if !ok {
		return apperror.ErrEscrowNotFound
	}
	if err := guard(string(stored.Status), string(expected), stored.Version, payment.Version); err != nil {
		return err
	}
	payment.Version++
	r.s.escrows[payment.ID] = *payment
	return nil
}

func (r *EscrowRepository) DeleteUnauthorized(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.escrows[id]
	if !ok {
		return nil
	}
	if stored.Status != valueobject.EscrowStatusPending || stored.IsAuthorized() {
		return apperror.ErrStaleWrite
	}
	delete(r.s.escrows, id)
	return nil
}

func (r *EscrowRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EscrowPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.escrows[id]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	return &p, nil
}

func (r *EscrowRepository) FindOpenByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.EscrowPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.escrows {
		if p.EngagementID == engagementID && !p.Status.IsTerminal() {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (r *EscrowRepository) FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.EscrowPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.EscrowPayment
	for _, p := range r.s.escrows {
		if p.EngagementID == engagementID {
			found := p
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type DisputeRepository struct {
	s *Store
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.disputes {
		if d.EngagementID == dispute.EngagementID && d.Status.IsActive() {
			return apperror.New(apperror.ErrCodeConflict, "по контракту уже открыт спор")
		}
	}
	r.s.disputes[dispute.ID] = *dispute
	return nil
}

func (r *DisputeRepository) Update(ctx context.Context, dispute *entity.Dispute, expected valueobject.DisputeStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.disputes[dispute.ID]
	if !ok {
		return apperror.ErrDisputeNotFound
	}
	if err := guard(string(stored.Status), string(expected), stored.Version, dispute.Version); err != nil {
		return err
	}
	dispute.Version++
	r.s.disputes[dispute.ID] = *dispute
	return nil
}

func (r *DisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	return &d, nil
}

func (r *DisputeRepository) FindActiveByEngagementID(ctx context.Context, engagementID uuid.UUID) (*entity.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.disputes {
		if d.EngagementID == engagementID && d.Status.IsActive() {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (r *DisputeRepository) FindByEngagementID(ctx context.Context, engagementID uuid.UUID) ([]*entity.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var result []*entity.Dispute
	for _, d := range r.s.disputes {
		if d.EngagementID == engagementID {
			found := d
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// DirectoryRepository отдаёт заявки, выдачу подбора и реквизиты выплат.
type DirectoryRepository struct {
	s *Store
}

func (r *DirectoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.EngagementRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	return &req, nil
}

func (r *DirectoryRepository) RankedCandidates(ctx context.Context, requestID uuid.UUID) ([]entity.Candidate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	candidates := append([]entity.Candidate(nil), r.s.candidates[requestID]...)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Rank < candidates[j].Rank })
	return candidates, nil
}

func (r *DirectoryRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) (*entity.PayoutAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.payouts[providerID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

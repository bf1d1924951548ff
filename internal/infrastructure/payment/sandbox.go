package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
)

const (
	OpAuthorize = "authorize"
	OpCapture   = "capture"
	OpTransfer  = "transfer"
	OpRefund    = "refund"
)

type sandboxIntent struct {
	amount   decimal.Decimal
	captured bool
	refunded decimal.Decimal
}

// SandboxProcessor - процессор в памяти для локального запуска и тестов.
// Повтор вызова с тем же ключом возвращает первый результат без побочных эффектов.
// Повтор перевода с тем же ключом, но другими параметрами отклоняется, как в Stripe.
type SandboxProcessor struct {
	mu        sync.Mutex
	intents   map[string]*sandboxIntent
	results   map[string]string
	failures  map[string][]error
	calls     map[string]int
	transfers []repository.TransferRequest
	refunds   []repository.RefundRequest
	// параметры перевода по ключу идемпотентности
	transferByKey map[string]repository.TransferRequest
}

func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{
		intents:  make(map[string]*sandboxIntent),
		results:  make(map[string]string),
		failures: make(map[string][]error),
		calls:    make(map[string]int),

		transferByKey: make(map[string]repository.TransferRequest),
	}
}

// FailNext ставит в очередь ошибку для следующего вызова операции op.
func (s *SandboxProcessor) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// Calls возвращает число вызовов операции, включая неудачные.
func (s *SandboxProcessor) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *SandboxProcessor) Transfers() []repository.TransferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.TransferRequest(nil), s.transfers...)
}

func (s *SandboxProcessor) Refunds() []repository.RefundRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.RefundRequest(nil), s.refunds...)
}

// begin учитывает вызов и возвращает запланированную ошибку или прошлый результат.
func (s *SandboxProcessor) begin(ctx context.Context, op, key string) (string, bool, error) {
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return "", false, Transient(err, "sandbox: запрос прерван")
	}
	if queue := s.failures[op]; len(queue) > 0 {
		s.failures[op] = queue[1:]
		return "", false, classify(queue[0], "sandbox: "+op+" не выполнен")
	}
	if id, ok := s.results[op+":"+key]; ok {
		return id, true, nil
	}
	return "", false, nil
}

func (s *SandboxProcessor) AuthorizeCharge(ctx context.Context, req repository.ChargeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, done, err := s.begin(ctx, OpAuthorize, req.IdempotencyKey)
	if err != nil || done {
		return id, err
	}
	if !req.Amount.IsPositive() {
		return "", Permanent(nil, "sandbox: сумма авторизации должна быть положительной")
	}
	if req.PaymentMethod == "pm_card_declined" {
		return "", Permanent(nil, "sandbox: карта отклонена")
	}

	id = "pi_" + compactID()
	s.intents[id] = &sandboxIntent{amount: req.Amount, refunded: decimal.Zero}
	s.results[OpAuthorize+":"+req.IdempotencyKey] = id
	return id, nil
}

func (s *SandboxProcessor) CaptureCharge(ctx context.Context, intentID, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, done, err := s.begin(ctx, OpCapture, idempotencyKey)
	if err != nil || done {
		return err
	}
	intent, ok := s.intents[intentID]
	if !ok {
		return Permanent(nil, fmt.Sprintf("sandbox: intent %s не найден", intentID))
	}
	intent.captured = true
	s.results[OpCapture+":"+idempotencyKey] = intentID
	return nil
}

func (s *SandboxProcessor) Transfer(ctx context.Context, req repository.TransferRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, done, err := s.begin(ctx, OpTransfer, req.IdempotencyKey)
	if err != nil {
		return "", err
	}
	if done {
		prev := s.transferByKey[req.IdempotencyKey]
		if prev.Destination != req.Destination || !prev.Amount.Equal(req.Amount) {
			return "", Permanent(nil, "sandbox: ключ идемпотентности использован с другими параметрами перевода")
		}
		return id, nil
	}
	if req.Destination == "" {
		return "", Permanent(nil, "sandbox: не указан получатель перевода")
	}
	if !req.Amount.IsPositive() {
		return "", Permanent(nil, "sandbox: сумма перевода должна быть положительной")
	}

	id = "tr_" + compactID()
	s.transfers = append(s.transfers, req)
	s.transferByKey[req.IdempotencyKey] = req
	s.results[OpTransfer+":"+req.IdempotencyKey] = id
	return id, nil
}

func (s *SandboxProcessor) Refund(ctx context.Context, req repository.RefundRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, done, err := s.begin(ctx, OpRefund, req.IdempotencyKey)
	if err != nil || done {
		return id, err
	}
	intent, ok := s.intents[req.PaymentIntentID]
	if !ok {
		return "", Permanent(nil, fmt.Sprintf("sandbox: intent %s не найден", req.PaymentIntentID))
	}
	amount := intent.amount.Sub(intent.refunded)
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() || intent.refunded.Add(amount).GreaterThan(intent.amount) {
		return "", Permanent(nil, "sandbox: сумма возврата превышает платёж")
	}
	intent.refunded = intent.refunded.Add(amount)

	id = "re_" + compactID()
	s.refunds = append(s.refunds, req)
	s.results[OpRefund+":"+req.IdempotencyKey] = id
	return id, nil
}

func compactID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:12])
}

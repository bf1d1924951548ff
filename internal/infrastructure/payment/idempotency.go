package payment

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
)

// IdempotencyKey выводит стабильный ключ из платежа и целевого статуса.
// Для частичных операций в ключ входит сумма, чтобы разные суммы не склеивались.
func IdempotencyKey(escrowID uuid.UUID, target valueobject.EscrowStatus, amount *decimal.Decimal) string {
	material := escrowID.String() + ":" + string(target)
	if amount != nil {
		material += ":" + amount.StringFixed(2)
	}
	sum := blake2b.Sum256([]byte(material))
	return "esc_" + hex.EncodeToString(sum[:16])
}

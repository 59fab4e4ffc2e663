package models

import (
	"lms/src/types"

	"github.com/google/uuid"
)

// WebhookEvent is the delivery dedup ledger. EventKey is the provider's
// event id when it sends one, otherwise "<reference>:<status>". The
// unique index rejects re-deliveries before any business logic runs,
// independently of the transaction state machine.
type WebhookEvent struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	EventKey  string      `gorm:"uniqueIndex;not null" json:"event_key"`
	Reference string      `json:"reference,omitempty"`
	Payload   types.JSONB `json:"payload,omitempty"`

	types.Timestamps
}

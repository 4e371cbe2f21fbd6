package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssuanceOutcome string

const (
	OutcomeIssued              IssuanceOutcome = "issued"
	OutcomeTransactionFailed   IssuanceOutcome = "transaction_failed"
	OutcomeMetadataStoreFailed IssuanceOutcome = "metadata_store_failed"
)

// Issuance is the audit record of one purchase attempt.
type Issuance struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EventID      string          `gorm:"not null;index" json:"event_id"`
	OwnerAddress string          `gorm:"not null;index" json:"owner_address"`
	TicketID     string          `json:"ticket_id,omitempty"`
	TxDigest     string          `json:"tx_digest,omitempty"`
	BlobID       string          `json:"blob_id,omitempty"`
	Outcome      IssuanceOutcome `gorm:"not null" json:"outcome"`
	Failure      string          `json:"failure,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (issuance *Issuance) BeforeCreate(tx *gorm.DB) (err error) {
	if issuance.ID == uuid.Nil {
		issuance.ID = uuid.New()
	}
	return
}

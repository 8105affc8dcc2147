package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	TransferStatusPending    = "pending"
	TransferStatusCompleted  = "completed"
	TransferStatusFailed     = "failed"
	TransferStatusRolledBack = "rolled_back"
)

// SourceChain is the permissioned ledger all transfers originate from.
const SourceChain = "fabric"

const MaxRecordsPerTransfer = 10

var destinationChains = map[string]bool{
	"ethereum": true,
	"polygon":  true,
	"bsc":      true,
}

func IsSupportedDestination(chain string) bool {
	return destinationChains[chain]
}

func IsTransferStatus(status string) bool {
	switch status {
	case TransferStatusPending, TransferStatusCompleted, TransferStatusFailed, TransferStatusRolledBack:
		return true
	default:
		return false
	}
}

// ValidTransition encodes the transfer state machine. Transfers start out as
// pending and are never deleted; completed is the only state a rollback can
// leave from.
func ValidTransition(from, to string) bool {
	switch from {
	case TransferStatusPending:
		return to == TransferStatusCompleted || to == TransferStatusFailed
	case TransferStatusCompleted:
		return to == TransferStatusRolledBack
	default:
		return false
	}
}

type Transfer struct {
	ID                 int                 `json:"-"`
	UUID               string              `json:"transferId" gorm:"uniqueIndex"`
	SourceChain        string              `json:"sourceChain"`
	DestinationChain   string              `json:"destinationChain"`
	Recipient          string              `json:"recipient"`
	RequiredSignatures int                 `json:"requiredSignatures"`
	Status             string              `json:"status" gorm:"index"`
	StatusReason       string              `json:"statusReason,omitempty"`
	TxID               string              `json:"txId,omitempty"`
	BridgeTxID         string              `json:"bridgeTxId,omitempty"`
	RollbackReason     string              `json:"-"`
	RollbackTxID       string              `json:"-"`
	RolledBackAt       *time.Time          `json:"-"`
	OwnerID            int                 `json:"-"`
	Owner              *User               `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Records            []TransferRecord    `json:"-" gorm:"foreignKey:TransferID;references:ID"`
	Signatures         []TransferSignature `json:"signatures" gorm:"foreignKey:TransferID;references:ID"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`

	// Derived fields kept in sync by SyncDerivedFields.
	RecordIDs []string         `json:"recordIds" gorm:"-"`
	Rollback  *RollbackDetails `json:"rollback,omitempty" gorm:"-"`
}

func (Transfer) TableName() string {
	return "transfers"
}

type RollbackDetails struct {
	Reason       string     `json:"reason"`
	RollbackTxID string     `json:"rollbackTxId"`
	RolledBackAt *time.Time `json:"rolledBackAt"`
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) (err error) {
	if t.SourceChain == "" {
		t.SourceChain = SourceChain
	}
	if t.Status == "" {
		t.Status = TransferStatusPending
	}
	return
}

func (t *Transfer) AfterFind(tx *gorm.DB) (err error) {
	t.SyncDerivedFields()
	return
}

// SyncDerivedFields fills in the presentation-only fields (recordIds and the
// rollback sub-record) from the persisted columns and associations.
func (t *Transfer) SyncDerivedFields() {
	t.RecordIDs = make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		t.RecordIDs = append(t.RecordIDs, r.RecordUUID)
	}

	if t.Status == TransferStatusRolledBack {
		t.Rollback = &RollbackDetails{
			Reason:       t.RollbackReason,
			RollbackTxID: t.RollbackTxID,
			RolledBackAt: t.RolledBackAt,
		}
	} else {
		t.Rollback = nil
	}
}

type TransferRecord struct {
	ID         int    `json:"-"`
	TransferID int    `json:"-" gorm:"index"`
	RecordUUID string `json:"recordId"`
	Position   int    `json:"-"`
}

func (TransferRecord) TableName() string {
	return "transfer_records"
}

type TransferSignature struct {
	ID         int    `json:"-"`
	TransferID int    `json:"-" gorm:"index"`
	SignerID   string `json:"signerId"`
	Signature  string `json:"signature"`
	Position   int    `json:"-"`
}

func (TransferSignature) TableName() string {
	return "transfer_signatures"
}

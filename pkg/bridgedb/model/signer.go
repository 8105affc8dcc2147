package model

import "time"

// Signer is an identity allowed to sign off on batch transfers. The bridge
// only checks structural quorum rules against this registry; cryptographic
// verification of the signature blobs happens on the source ledger.
type Signer struct {
	ID        int       `json:"id"`
	SignerID  string    `json:"signer_id" gorm:"uniqueIndex"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Signer) TableName() string {
	return "signers"
}

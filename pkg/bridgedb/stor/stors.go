package stor

import (
	"time"

	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

type TransferStor interface {
	CreateTransfer(transfer *model.Transfer) (*model.Transfer, error)
	GetTransferByUUID(transferUUID string) (*model.Transfer, error)
	ListTransfers(status string, page, limit int) ([]model.Transfer, int64, error)
	SetTransferTxID(transferUUID, txID string) error
	MarkTransferCompleted(transferUUID, txID, bridgeTxID string) (*model.Transfer, error)
	MarkTransferFailed(transferUUID, reason string) (*model.Transfer, error)
	MarkTransferRolledBack(transferUUID, reason, rollbackTxID string) (*model.Transfer, error)
	ListPendingTransfersOlderThan(age time.Duration) ([]model.Transfer, error)
}

type UserStor interface {
	CreateUser(user *model.User) (*model.User, error)
	GetUserByAPIToken(apitoken string) (*model.User, error)
}

type SignerStor interface {
	CreateSigner(signer *model.Signer) (*model.Signer, error)
	GetSignerBySignerID(signerID string) (*model.Signer, error)
}

type RateWindowStor interface {
	IncrementCount(scope string, userID int, windowStart int64) (int, error)
	PruneWindowsBefore(windowStart int64) error
}

type Stors struct {
	TransferStor   TransferStor
	UserStor       UserStor
	SignerStor     SignerStor
	RateWindowStor RateWindowStor
}

func NewGormStors(db *gorm.DB) *Stors {
	return &Stors{
		TransferStor:   NewGormTransferStor(db),
		UserStor:       NewGormUserStor(db),
		SignerStor:     NewGormSignerStor(db),
		RateWindowStor: NewGormRateWindowStor(db),
	}
}

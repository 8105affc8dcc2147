package stor

import (
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

type GormTransferStor struct {
	db *gorm.DB
}

func NewGormTransferStor(db *gorm.DB) *GormTransferStor {
	return &GormTransferStor{db: db}
}

func (s *GormTransferStor) CreateTransfer(transfer *model.Transfer) (*model.Transfer, error) {
	var err error

	if transfer.UUID == "" {
		if transfer.UUID, err = uuid.GenerateUUID(); err != nil {
			return nil, err
		}
	}

	for i := range transfer.Records {
		transfer.Records[i].Position = i
	}

	for i := range transfer.Signatures {
		transfer.Signatures[i].Position = i
	}

	err = WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(transfer).Error
	})

	if err != nil {
		return nil, err
	}

	transfer.SyncDerivedFields()

	return transfer, nil
}

func (s *GormTransferStor) GetTransferByUUID(transferUUID string) (*model.Transfer, error) {
	var transfer model.Transfer
	err := s.db.Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Signatures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("uuid = ?", transferUUID).
		First(&transfer).Error
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *GormTransferStor) ListTransfers(status string, page, limit int) ([]model.Transfer, int64, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 10
	}

	if limit > 100 {
		limit = 100
	}

	q := s.db.Model(&model.Transfer{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transfers []model.Transfer
	err := q.Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Signatures", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at desc, id desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&transfers).Error
	if err != nil {
		return nil, 0, err
	}

	return transfers, total, nil
}

func (s *GormTransferStor) SetTransferTxID(transferUUID, txID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Model(&model.Transfer{}).
			Where("uuid = ? and status = ?", transferUUID, model.TransferStatusPending).
			Update("tx_id", txID).Error
	})
}

func (s *GormTransferStor) MarkTransferCompleted(transferUUID, txID, bridgeTxID string) (*model.Transfer, error) {
	updates := map[string]interface{}{
		"status":        model.TransferStatusCompleted,
		"bridge_tx_id":  bridgeTxID,
		"status_reason": "",
	}
	if txID != "" {
		updates["tx_id"] = txID
	}

	return s.transition(transferUUID, model.TransferStatusPending, updates)
}

func (s *GormTransferStor) MarkTransferFailed(transferUUID, reason string) (*model.Transfer, error) {
	return s.transition(transferUUID, model.TransferStatusPending, map[string]interface{}{
		"status":        model.TransferStatusFailed,
		"status_reason": reason,
	})
}

func (s *GormTransferStor) MarkTransferRolledBack(transferUUID, reason, rollbackTxID string) (*model.Transfer, error) {
	now := time.Now()
	return s.transition(transferUUID, model.TransferStatusCompleted, map[string]interface{}{
		"status":          model.TransferStatusRolledBack,
		"rollback_reason": reason,
		"rollback_tx_id":  rollbackTxID,
		"rolled_back_at":  &now,
	})
}

func (s *GormTransferStor) ListPendingTransfersOlderThan(age time.Duration) ([]model.Transfer, error) {
	cutoff := time.Now().Add(-age)
	var transfers []model.Transfer
	err := s.db.Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("status = ? and updated_at < ?", model.TransferStatusPending, cutoff).
		Order("created_at").
		Find(&transfers).Error
	return transfers, err
}

// transition performs a conditional update so a transfer can only move along
// the edge fromStatus -> updates["status"]. A concurrent writer that got there
// first shows up as zero updated rows and is reported as ErrInvalidTransition.
func (s *GormTransferStor) transition(transferUUID, fromStatus string, updates map[string]interface{}) (*model.Transfer, error) {
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&model.Transfer{}).
			Where("uuid = ? and status = ?", transferUUID, fromStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var existing model.Transfer
			if err := tx.Where("uuid = ?", transferUUID).First(&existing).Error; err != nil {
				return err
			}
			return ErrInvalidTransition
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return s.GetTransferByUUID(transferUUID)
}

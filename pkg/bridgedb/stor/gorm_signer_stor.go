package stor

import (
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

type GormSignerStor struct {
	db *gorm.DB
}

func NewGormSignerStor(db *gorm.DB) *GormSignerStor {
	return &GormSignerStor{db: db}
}

func (s *GormSignerStor) CreateSigner(signer *model.Signer) (*model.Signer, error) {
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(signer).Error
	})

	if err != nil {
		return nil, err
	}

	return signer, nil
}

func (s *GormSignerStor) GetSignerBySignerID(signerID string) (*model.Signer, error) {
	var signer model.Signer
	if err := s.db.Where("signer_id = ?", signerID).First(&signer).Error; err != nil {
		return nil, err
	}

	return &signer, nil
}

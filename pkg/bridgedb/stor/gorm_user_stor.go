package stor

import (
	"github.com/hashicorp/go-uuid"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

type GormUserStor struct {
	db *gorm.DB
}

func NewGormUserStor(db *gorm.DB) *GormUserStor {
	return &GormUserStor{db: db}
}

func (s *GormUserStor) CreateUser(user *model.User) (*model.User, error) {
	var err error

	if user.UUID == "" {
		if user.UUID, err = uuid.GenerateUUID(); err != nil {
			return nil, err
		}
	}

	err = WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *GormUserStor) GetUserByAPIToken(apitoken string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("api_token = ?", apitoken).First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

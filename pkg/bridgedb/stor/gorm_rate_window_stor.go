package stor

import (
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

type GormRateWindowStor struct {
	db *gorm.DB
}

func NewGormRateWindowStor(db *gorm.DB) *GormRateWindowStor {
	return &GormRateWindowStor{db: db}
}

// IncrementCount bumps the fixed-window counter for (scope, userID,
// windowStart) and returns the new count. Two instances racing on a new
// window collide on the unique index; WithTxRetry turns the loser's retry
// into an increment of the winner's row.
func (s *GormRateWindowStor) IncrementCount(scope string, userID int, windowStart int64) (int, error) {
	var count int

	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		res := tx.Model(&model.RateWindow{}).
			Where("scope = ? and user_id = ? and window_start = ?", scope, userID, windowStart).
			UpdateColumn("count", gorm.Expr("count + 1"))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			window := model.RateWindow{Scope: scope, UserID: userID, WindowStart: windowStart, Count: 1}
			if err := tx.Create(&window).Error; err != nil {
				return err
			}
			count = 1
			return nil
		}

		var window model.RateWindow
		if err := tx.Where("scope = ? and user_id = ? and window_start = ?", scope, userID, windowStart).
			First(&window).Error; err != nil {
			return err
		}
		count = window.Count

		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

func (s *GormRateWindowStor) PruneWindowsBefore(windowStart int64) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Where("window_start < ?", windowStart).Delete(&model.RateWindow{}).Error
	})
}

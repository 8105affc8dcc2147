package stor

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotImplemented = errors.New("not implemented")

// ErrInvalidTransition is returned when a status update would move a transfer
// along an edge that isn't in the state machine, including updates that lost a
// race with a concurrent writer.
var ErrInvalidTransition = errors.New("invalid status transition")

func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

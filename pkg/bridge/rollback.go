package bridge

import (
	"context"

	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
	"github.com/pkg/errors"
)

const maxRollbackReasonLength = 500

// RollbackEngine reverses a completed transfer with a compensating
// transaction on the source ledger. Rollback is state-gated, not time-gated:
// only completed transfers qualify, and a ledger refusal is final. There is
// deliberately no retry loop here, because repeating a reversal against an
// asset that has since moved is unsafe.
type RollbackEngine struct {
	transferStor stor.TransferStor
	client       ledgerclient.Client
	locker       *lock.IdLocker
}

func NewRollbackEngine(transferStor stor.TransferStor, client ledgerclient.Client, locker *lock.IdLocker) *RollbackEngine {
	return &RollbackEngine{
		transferStor: transferStor,
		client:       client,
		locker:       locker,
	}
}

func (e *RollbackEngine) Rollback(ctx context.Context, caller *model.User, transferUUID, reason string) (*model.Transfer, error) {
	if len(reason) == 0 || len(reason) > maxRollbackReasonLength {
		return nil, validationErrorf("reason must be between 1 and %d characters", maxRollbackReasonLength)
	}

	var result *model.Transfer

	err := e.locker.WithLock(transferUUID, func() error {
		transfer, err := e.transferStor.GetTransferByUUID(transferUUID)
		switch {
		case stor.IsRecordNotFound(err):
			return errors.Wrap(ErrTransferNotFound, transferUUID)
		case err != nil:
			return err
		}

		// Unauthorized callers get the same answer as an unknown transfer so
		// the endpoint doesn't leak which transfer ids exist.
		if transfer.OwnerID != caller.ID {
			return errors.Wrap(ErrTransferNotFound, transferUUID)
		}

		if transfer.Status != model.TransferStatusCompleted {
			return errors.Wrapf(ErrRollbackNotAllowed, "transfer is %s, only completed transfers can be rolled back",
				transfer.Status)
		}

		rollbackTxID, err := e.client.Reverse(ctx, transferUUID, reason)
		if err != nil {
			// The ledger refused the reversal; the transfer stays completed
			// and a human decides what happens next.
			return errors.Wrapf(ErrRollbackNotAllowed, "source ledger rejected the reversal: %s", err)
		}

		result, err = e.transferStor.MarkTransferRolledBack(transferUUID, reason, rollbackTxID)
		if errors.Is(err, stor.ErrInvalidTransition) {
			return errors.Wrap(ErrRollbackNotAllowed, "transfer state changed during rollback")
		}

		return err
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

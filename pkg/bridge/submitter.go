package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
)

// Submitter turns a pending transfer into exactly one source-ledger
// transaction covering every record in the group. The transfer UUID rides
// along as the idempotency key, so retrying a submission that may or may not
// have landed cannot double-move records.
type Submitter struct {
	transferStor stor.TransferStor
	client       ledgerclient.Client
	locker       *lock.IdLocker
	maxAttempts  int
	retryDelay   time.Duration
}

func NewSubmitter(transferStor stor.TransferStor, client ledgerclient.Client, locker *lock.IdLocker, maxAttempts int, retryDelay time.Duration) *Submitter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Submitter{
		transferStor: transferStor,
		client:       client,
		locker:       locker,
		maxAttempts:  maxAttempts,
		retryDelay:   retryDelay,
	}
}

// Submit performs the ledger call and records the outcome on the transfer.
// The group commits or fails as a whole; there is no partial success within a
// batch. Transient gateway failures are retried up to maxAttempts; if they
// never clear, the transfer is left pending for the reconciler, because the
// submission may have landed on the ledger without us seeing the response.
func (s *Submitter) Submit(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	req := ledgerclient.SubmitRequest{
		TransferUUID:     transfer.UUID,
		RecordUUIDs:      transfer.RecordIDs,
		DestinationChain: transfer.DestinationChain,
		Recipient:        transfer.Recipient,
	}

	var (
		result  *ledgerclient.SubmitResult
		lastErr error
	)

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return transfer, nil
			case <-time.After(s.retryDelay):
			}
		}

		result, lastErr = s.client.Submit(ctx, req)
		if lastErr == nil {
			break
		}

		if !ledgerclient.IsTransient(lastErr) {
			break
		}

		log.Infof("Transient submit failure for transfer %s (attempt %d of %d): %s",
			transfer.UUID, attempt+1, s.maxAttempts, lastErr)
	}

	var updated *model.Transfer

	err := s.locker.WithLock(transfer.UUID, func() error {
		var err error

		switch {
		case lastErr == nil && result.BridgeTxID != "":
			updated, err = s.transferStor.MarkTransferCompleted(transfer.UUID, result.TxID, result.BridgeTxID)

		case lastErr == nil:
			// The source ledger accepted the group but the destination chain
			// hasn't finalized. Record the txId and let the reconciler finish.
			if err = s.transferStor.SetTransferTxID(transfer.UUID, result.TxID); err != nil {
				return err
			}
			updated, err = s.transferStor.GetTransferByUUID(transfer.UUID)

		case ledgerclient.IsTransient(lastErr):
			// Out of retries with no definitive answer. Leave the transfer
			// pending; the reconciler will settle it from the ledger's
			// authoritative status.
			log.Errorf("Submission for transfer %s unresolved after %d attempts: %s",
				transfer.UUID, s.maxAttempts, lastErr)
			updated = transfer
			return nil

		default:
			// Permanent rejection: every record in the group fails with the
			// same shared reason.
			updated, err = s.transferStor.MarkTransferFailed(transfer.UUID, lastErr.Error())
		}

		if errors.Is(err, stor.ErrInvalidTransition) {
			// A concurrent writer (the reconciler) already settled this
			// transfer. Its answer stands.
			updated, err = s.transferStor.GetTransferByUUID(transfer.UUID)
		}

		return err
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

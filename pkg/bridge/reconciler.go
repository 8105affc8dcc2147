package bridge

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
	"github.com/pkg/errors"
)

type ReconcilerOptionFN func(*Reconciler)

// Reconciler settles transfers that were answered provisionally: any transfer
// still pending past the response budget is resolved to completed or failed
// from the ledger's authoritative transaction status. It is the second half
// of the "respond fast, reconcile later" pair, cooperating with the
// coordinator through the persisted transfer row.
type Reconciler struct {
	transferStor stor.TransferStor
	client       ledgerclient.Client
	locker       *lock.IdLocker
	pollInterval time.Duration
	pendingAge   time.Duration
}

func NewReconciler(optFNs ...ReconcilerOptionFN) *Reconciler {
	r := &Reconciler{
		pollInterval: 20 * time.Second,
		pendingAge:   10 * time.Second,
	}

	for _, optfn := range optFNs {
		optfn(r)
	}

	return r
}

func WithTransferStor(transferStor stor.TransferStor) ReconcilerOptionFN {
	return func(r *Reconciler) {
		r.transferStor = transferStor
	}
}

func WithLedgerClient(client ledgerclient.Client) ReconcilerOptionFN {
	return func(r *Reconciler) {
		r.client = client
	}
}

func WithLocker(locker *lock.IdLocker) ReconcilerOptionFN {
	return func(r *Reconciler) {
		r.locker = locker
	}
}

func WithPollInterval(interval time.Duration) ReconcilerOptionFN {
	return func(r *Reconciler) {
		r.pollInterval = interval
	}
}

func WithPendingAge(age time.Duration) ReconcilerOptionFN {
	return func(r *Reconciler) {
		r.pendingAge = age
	}
}

func (r *Reconciler) Run(ctx context.Context) {
	for {
		r.reconcilePendingTransfers(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.pollInterval):
		}
	}
}

func (r *Reconciler) reconcilePendingTransfers(ctx context.Context) {
	transfers, err := r.transferStor.ListPendingTransfersOlderThan(r.pendingAge)
	if err != nil {
		// Problem reaching the database. Skip this pass and let the next
		// tick try again once the database has (hopefully) recovered.
		log.Errorf("Failed listing pending transfers: %s", err)
		return
	}

	for _, transfer := range transfers {
		if ctx.Err() != nil {
			return
		}

		if err := r.ReconcileTransfer(ctx, transfer.UUID); err != nil {
			log.Errorf("Failed reconciling transfer %s: %s", transfer.UUID, err)
		}
	}
}

// ReconcileTransfer resolves a single pending transfer from the ledger's
// authoritative status. Holding the per-transfer lock (and re-reading the row
// under it) keeps it from racing the submitter or the rollback engine.
func (r *Reconciler) ReconcileTransfer(ctx context.Context, transferUUID string) error {
	return r.locker.WithLock(transferUUID, func() error {
		transfer, err := r.transferStor.GetTransferByUUID(transferUUID)
		if err != nil {
			return errors.Wrapf(err, "unable to load transfer %s", transferUUID)
		}

		if transfer.Status != model.TransferStatusPending {
			// Settled while we waited on the lock.
			return nil
		}

		status, err := r.client.TxStatus(ctx, transferUUID)
		if err != nil {
			return errors.Wrapf(err, "status check for transfer %s", transferUUID)
		}

		switch status.Status {
		case ledgerclient.TxStatusConfirmed:
			_, err = r.transferStor.MarkTransferCompleted(transferUUID, status.TxID, status.BridgeTxID)
			if err != nil {
				return err
			}
			log.Infof("Reconciled transfer %s to completed", transferUUID)

		case ledgerclient.TxStatusRejected:
			reason := status.Reason
			if reason == "" {
				reason = "rejected by source ledger"
			}
			if _, err = r.transferStor.MarkTransferFailed(transferUUID, reason); err != nil {
				return err
			}
			log.Infof("Reconciled transfer %s to failed: %s", transferUUID, reason)

		default:
			// Still pending on chain, check again next pass.
		}

		return nil
	})
}

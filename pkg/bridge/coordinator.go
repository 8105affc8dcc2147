package bridge

import (
	"context"
	"regexp"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-uuid"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
	"github.com/pkg/errors"
)

var recipientPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TransferRequestRecord is one record in a batch request.
type TransferRequestRecord struct {
	RecordID         string `json:"recordId"`
	DestinationChain string `json:"destinationChain"`
	Recipient        string `json:"recipient"`
}

// TransferRequest is the union of the single-record and batch request shapes.
// Single mode fills the top level fields; batch mode fills Records and
// Signatures.
type TransferRequest struct {
	RecordID         string                  `json:"recordId"`
	DestinationChain string                  `json:"destinationChain"`
	Recipient        string                  `json:"recipient"`
	Records          []TransferRequestRecord `json:"records"`
	Signatures       []SignatureInput        `json:"signatures"`
}

func (r TransferRequest) isBatch() bool {
	return len(r.Records) > 0
}

// Coordinator is the orchestration entry point for the bridge. All
// collaborators arrive through the constructor; it holds no global state.
type Coordinator struct {
	transferStor       stor.TransferStor
	client             ledgerclient.Client
	quorum             *QuorumVerifier
	submitter          *Submitter
	locker             *lock.IdLocker
	submitBudget       time.Duration
	requiredSignatures int
}

func NewCoordinator(transferStor stor.TransferStor, client ledgerclient.Client, quorum *QuorumVerifier,
	submitter *Submitter, locker *lock.IdLocker, submitBudget time.Duration, requiredSignatures int) *Coordinator {
	if requiredSignatures < 2 {
		requiredSignatures = 2
	}

	return &Coordinator{
		transferStor:       transferStor,
		client:             client,
		quorum:             quorum,
		submitter:          submitter,
		locker:             locker,
		submitBudget:       submitBudget,
		requiredSignatures: requiredSignatures,
	}
}

// Transfer validates a request, creates the transfer in pending, and races
// the ledger submission against the latency budget. If the submission doesn't
// finish inside the budget the provisional pending row is returned and the
// submission keeps running; the reconciler settles the final status. Once the
// row exists, submission failures are recorded on it, never returned here.
func (c *Coordinator) Transfer(ctx context.Context, caller *model.User, req TransferRequest) (*model.Transfer, error) {
	records, err := normalizeTransferRequest(req)
	if err != nil {
		return nil, err
	}

	if req.isBatch() {
		if err := c.quorum.Verify(req.Signatures, c.requiredSignatures); err != nil {
			return nil, err
		}
	}

	for _, rec := range records {
		hasAccess, err := c.client.CheckAccess(ctx, caller.UUID, rec.RecordID)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to verify access to record %s", rec.RecordID)
		}

		if !hasAccess {
			return nil, errors.Wrapf(ErrRecordAccessDenied, "record %s", rec.RecordID)
		}
	}

	transfer := &model.Transfer{
		DestinationChain:   records[0].DestinationChain,
		Recipient:          records[0].Recipient,
		RequiredSignatures: c.requiredSignatures,
		Status:             model.TransferStatusPending,
		OwnerID:            caller.ID,
	}

	for _, rec := range records {
		transfer.Records = append(transfer.Records, model.TransferRecord{RecordUUID: rec.RecordID})
	}

	for _, sig := range req.Signatures {
		transfer.Signatures = append(transfer.Signatures, model.TransferSignature{
			SignerID:  sig.SignerID,
			Signature: sig.Signature,
		})
	}

	if transfer, err = c.transferStor.CreateTransfer(transfer); err != nil {
		return nil, errors.Wrap(err, "unable to create transfer")
	}

	// Respond fast, reconcile later. The submission runs detached from the
	// request context: a client disconnect never cancels an in-flight chain
	// call, it only stops the caller from seeing the outcome directly.
	done := make(chan *model.Transfer, 1)
	go func() {
		updated, err := c.submitter.Submit(context.Background(), transfer)
		if err != nil {
			log.Errorf("Recording submission outcome for transfer %s failed: %s", transfer.UUID, err)
			done <- transfer
			return
		}
		done <- updated
	}()

	select {
	case updated := <-done:
		return updated, nil
	case <-time.After(c.submitBudget):
		return transfer, nil
	case <-ctx.Done():
		return transfer, nil
	}
}

func (c *Coordinator) GetTransfer(transferUUID string) (*model.Transfer, error) {
	transfer, err := c.transferStor.GetTransferByUUID(transferUUID)
	switch {
	case stor.IsRecordNotFound(err):
		return nil, errors.Wrap(ErrTransferNotFound, transferUUID)
	case err != nil:
		return nil, err
	default:
		return transfer, nil
	}
}

func (c *Coordinator) History(status string, page, limit int) ([]model.Transfer, int64, error) {
	if status != "" && !model.IsTransferStatus(status) {
		return nil, 0, validationErrorf("unknown status filter '%s'", status)
	}

	return c.transferStor.ListTransfers(status, page, limit)
}

// normalizeTransferRequest flattens single and batch mode into one record
// list and applies the structural validation rules: 1-10 records, unique
// record UUIDs, a supported destination chain shared by the whole group, and
// a well-formed recipient address.
func normalizeTransferRequest(req TransferRequest) ([]TransferRequestRecord, error) {
	records := req.Records
	if !req.isBatch() {
		if req.RecordID == "" {
			return nil, validationErrorf("recordId is required")
		}
		records = []TransferRequestRecord{{
			RecordID:         req.RecordID,
			DestinationChain: req.DestinationChain,
			Recipient:        req.Recipient,
		}}
	}

	if len(records) > model.MaxRecordsPerTransfer {
		return nil, validationErrorf("a transfer covers at most %d records, got %d",
			model.MaxRecordsPerTransfer, len(records))
	}

	seen := make(map[string]bool)
	for i, rec := range records {
		if _, err := uuid.ParseUUID(rec.RecordID); err != nil {
			return nil, validationErrorf("recordId '%s' is not a valid UUID", rec.RecordID)
		}

		if seen[rec.RecordID] {
			return nil, validationErrorf("duplicate recordId '%s'", rec.RecordID)
		}
		seen[rec.RecordID] = true

		if !model.IsSupportedDestination(rec.DestinationChain) {
			return nil, validationErrorf("unsupported destinationChain '%s'", rec.DestinationChain)
		}

		if !recipientPattern.MatchString(rec.Recipient) {
			return nil, validationErrorf("recipient must be a 0x prefixed 40 character hex address")
		}

		// One submission covers the group, so the group must agree on where
		// it is going.
		if rec.DestinationChain != records[0].DestinationChain || rec.Recipient != records[0].Recipient {
			return nil, validationErrorf("record %d does not share the batch destination", i)
		}
	}

	return records, nil
}

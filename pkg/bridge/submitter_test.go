package bridge

import (
	"context"
	"testing"

	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCompletesWhenBridgeTxPresent(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1", "r2")

	updated, err := tc.newSubmitter(3).Submit(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, model.TransferStatusCompleted, updated.Status)
	assert.Equal(t, "tx-"+transfer.UUID, updated.TxID)
	assert.Equal(t, "btx-"+transfer.UUID, updated.BridgeTxID)
	assert.Equal(t, 1, tc.client.SubmitCallCount(transfer.UUID))
}

func TestSubmitLeavesPendingUntilChainFinality(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1")

	tc.client.SubmitFN = func(req ledgerclient.SubmitRequest) (*ledgerclient.SubmitResult, error) {
		return &ledgerclient.SubmitResult{TxID: "tx-accepted"}, nil
	}

	updated, err := tc.newSubmitter(3).Submit(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, model.TransferStatusPending, updated.Status)
	assert.Equal(t, "tx-accepted", updated.TxID)
	assert.Empty(t, updated.BridgeTxID)
}

func TestSubmitGroupFailsAsAWhole(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1", "r2", "r3")

	tc.client.SubmitFN = func(req ledgerclient.SubmitRequest) (*ledgerclient.SubmitResult, error) {
		return nil, &ledgerclient.APIError{StatusCode: 422, Code: "INVALID_BATCH", Message: "custody conflict"}
	}

	updated, err := tc.newSubmitter(3).Submit(context.Background(), transfer)
	require.NoError(t, err)

	// One shared outcome for every record in the group, no partial success.
	assert.Equal(t, model.TransferStatusFailed, updated.Status)
	assert.Contains(t, updated.StatusReason, "custody conflict")
	assert.Len(t, updated.RecordIDs, 3)

	// Permanent rejections are not retried.
	assert.Equal(t, 1, tc.client.SubmitCallCount(transfer.UUID))
}

func TestSubmitRetriesTransientErrors(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1")

	calls := 0
	tc.client.SubmitFN = func(req ledgerclient.SubmitRequest) (*ledgerclient.SubmitResult, error) {
		calls++
		if calls < 3 {
			return nil, &ledgerclient.APIError{StatusCode: 503, Code: "UNAVAILABLE", Message: "try later"}
		}
		return &ledgerclient.SubmitResult{TxID: "tx-1", BridgeTxID: "btx-1"}, nil
	}

	updated, err := tc.newSubmitter(5).Submit(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, model.TransferStatusCompleted, updated.Status)
	assert.Equal(t, 3, tc.client.SubmitCallCount(transfer.UUID))
}

func TestSubmitLeavesPendingWhenRetriesExhausted(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1")

	tc.client.SubmitFN = func(req ledgerclient.SubmitRequest) (*ledgerclient.SubmitResult, error) {
		return nil, &ledgerclient.APIError{StatusCode: 503, Code: "UNAVAILABLE", Message: "still down"}
	}

	updated, err := tc.newSubmitter(2).Submit(context.Background(), transfer)
	require.NoError(t, err)

	// The submission may have landed without us seeing the answer, so the
	// transfer stays pending for the reconciler rather than being failed.
	assert.Equal(t, model.TransferStatusPending, updated.Status)
	assert.Equal(t, 2, tc.client.SubmitCallCount(transfer.UUID))
}

func TestSubmitIsIdempotentPerTransfer(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1")

	submitter := tc.newSubmitter(3)

	first, err := submitter.Submit(context.Background(), transfer)
	require.NoError(t, err)
	require.Equal(t, model.TransferStatusCompleted, first.Status)

	// A client retry after a timeout replays the same logical submission.
	// Every attempt carries the same transfer UUID as idempotency key, and
	// the already-settled row is left untouched.
	second, err := submitter.Submit(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, model.TransferStatusCompleted, second.Status)
	assert.Equal(t, first.TxID, second.TxID)
	assert.Equal(t, first.BridgeTxID, second.BridgeTxID)
}

func TestSubmitAcceptsReconcilerOutcome(t *testing.T) {
	tc := newBridgeTestCase(t)
	transfer := tc.createPendingTransfer("r1")

	// Simulate the reconciler settling the transfer while the submission was
	// still in flight.
	tc.client.SubmitFN = func(req ledgerclient.SubmitRequest) (*ledgerclient.SubmitResult, error) {
		_, err := tc.stors.TransferStor.MarkTransferFailed(transfer.UUID, "settled by reconciler")
		require.NoError(t, err)
		return &ledgerclient.SubmitResult{TxID: "tx-1", BridgeTxID: "btx-1"}, nil
	}

	updated, err := tc.newSubmitter(3).Submit(context.Background(), transfer)
	require.NoError(t, err)

	assert.Equal(t, model.TransferStatusFailed, updated.Status)
}

package ledgerclient

import "context"

// Transaction status values reported by the ledger gateway.
const (
	TxStatusConfirmed = "confirmed"
	TxStatusRejected  = "rejected"
	TxStatusPending   = "pending"
)

// SubmitRequest asks the gateway to move custody of a group of records to a
// destination chain in a single source-ledger transaction. TransferUUID
// doubles as the idempotency key: the gateway must treat a resubmission with
// the same UUID as the same logical transaction.
type SubmitRequest struct {
	TransferUUID     string   `json:"transfer_id"`
	RecordUUIDs      []string `json:"record_ids"`
	DestinationChain string   `json:"destination_chain"`
	Recipient        string   `json:"recipient"`
}

type SubmitResult struct {
	TxID       string `json:"tx_id"`
	BridgeTxID string `json:"bridge_tx_id,omitempty"`
}

type TxStatusResult struct {
	Status     string `json:"status"`
	TxID       string `json:"tx_id,omitempty"`
	BridgeTxID string `json:"bridge_tx_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Client is the narrow interface the bridge consumes for all source-ledger
// interaction. Implementations may block on network calls, so every method
// takes a context.
type Client interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	Reverse(ctx context.Context, transferUUID, reason string) (string, error)
	TxStatus(ctx context.Context, transferUUID string) (*TxStatusResult, error)
	CheckAccess(ctx context.Context, callerUUID, recordUUID string) (bool, error)
}

package ledgerclient

import (
	"context"
	"sync"
)

// MockClient is a programmable Client for tests. Behavior is injected through
// the FN fields; unset FNs fall back to succeeding with canned values. Submit
// calls are counted per transfer UUID so tests can assert idempotency.
type MockClient struct {
	SubmitFN      func(req SubmitRequest) (*SubmitResult, error)
	ReverseFN     func(transferUUID, reason string) (string, error)
	TxStatusFN    func(transferUUID string) (*TxStatusResult, error)
	CheckAccessFN func(callerUUID, recordUUID string) (bool, error)

	mu          sync.Mutex
	submitCalls map[string]int
}

func NewMockClient() *MockClient {
	return &MockClient{submitCalls: make(map[string]int)}
}

func (c *MockClient) Submit(_ context.Context, req SubmitRequest) (*SubmitResult, error) {
	c.mu.Lock()
	c.submitCalls[req.TransferUUID]++
	c.mu.Unlock()

	if c.SubmitFN != nil {
		return c.SubmitFN(req)
	}

	return &SubmitResult{TxID: "tx-" + req.TransferUUID, BridgeTxID: "btx-" + req.TransferUUID}, nil
}

func (c *MockClient) Reverse(_ context.Context, transferUUID, reason string) (string, error) {
	if c.ReverseFN != nil {
		return c.ReverseFN(transferUUID, reason)
	}

	return "rtx-" + transferUUID, nil
}

func (c *MockClient) TxStatus(_ context.Context, transferUUID string) (*TxStatusResult, error) {
	if c.TxStatusFN != nil {
		return c.TxStatusFN(transferUUID)
	}

	return &TxStatusResult{Status: TxStatusPending}, nil
}

func (c *MockClient) CheckAccess(_ context.Context, callerUUID, recordUUID string) (bool, error) {
	if c.CheckAccessFN != nil {
		return c.CheckAccessFN(callerUUID, recordUUID)
	}

	return true, nil
}

func (c *MockClient) SubmitCallCount(transferUUID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCalls[transferUUID]
}

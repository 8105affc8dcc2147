package ledgerclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// HTTPClient talks to the source-ledger gateway REST API.
type HTTPClient struct {
	rc *resty.Client
}

func NewHTTPClient(baseURL, apikey string) *HTTPClient {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	if apikey != "" {
		rc.SetHeader("X-API-Key", apikey)
	}

	return &HTTPClient{rc: rc}
}

func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	var result SubmitResult

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/transfers")

	if err != nil {
		return nil, errors.Wrapf(err, "submit failed for transfer %s", req.TransferUUID)
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &result, nil
}

func (c *HTTPClient) Reverse(ctx context.Context, transferUUID, reason string) (string, error) {
	var result struct {
		RollbackTxID string `json:"rollback_tx_id"`
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"reason": reason}).
		SetResult(&result).
		Post("/transfers/" + transferUUID + "/reverse")

	if err != nil {
		return "", errors.Wrapf(err, "reverse failed for transfer %s", transferUUID)
	}

	if resp.IsError() {
		return "", ToErrorFromResponse(resp)
	}

	return result.RollbackTxID, nil
}

func (c *HTTPClient) TxStatus(ctx context.Context, transferUUID string) (*TxStatusResult, error) {
	var result TxStatusResult

	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/transfers/" + transferUUID + "/status")

	if err != nil {
		return nil, errors.Wrapf(err, "status check failed for transfer %s", transferUUID)
	}

	if resp.IsError() {
		return nil, ToErrorFromResponse(resp)
	}

	return &result, nil
}

func (c *HTTPClient) CheckAccess(ctx context.Context, callerUUID, recordUUID string) (bool, error) {
	var result struct {
		HasAccess bool `json:"has_access"`
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("user_id", callerUUID).
		SetResult(&result).
		Get("/records/" + recordUUID + "/access")

	if err != nil {
		return false, errors.Wrapf(err, "access check failed for record %s", recordUUID)
	}

	if resp.IsError() {
		return false, ToErrorFromResponse(resp)
	}

	return result.HasAccess, nil
}

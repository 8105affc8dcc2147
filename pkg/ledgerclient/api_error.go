package ledgerclient

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var ErrLedgerAPI = errors.New("ledger api")

// ErrorResponse describes the JSON the ledger gateway responds with when an API call fails
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// APIError carries the HTTP status so callers can tell a permanent rejection
// from a transient failure worth retrying.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger api (HTTP Status: %d) - %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrLedgerAPI
}

func ToErrorFromResponse(resp *resty.Response) error {
	var errorResponse ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errorResponse); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Code:       "UNPARSEABLE",
			Message:    fmt.Sprintf("unable to parse json error response: %s", err),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode(),
		Code:       errorResponse.Code,
		Message:    errorResponse.Message,
	}
}

// IsTransient reports whether a failed gateway call is worth retrying.
// Network level failures never reached the gateway so they are always
// retryable; an APIError is retryable only for timeouts, throttling and
// server side errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}

	switch {
	case apiErr.StatusCode == 408:
		return true
	case apiErr.StatusCode == 429:
		return true
	case apiErr.StatusCode >= 500:
		return true
	default:
		return false
	}
}

package webapi

import (
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/medcustody/ledgerbridge/pkg/bridge"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/pkg/errors"
)

type BridgeController struct {
	coordinator *bridge.Coordinator
	rollback    *bridge.RollbackEngine
}

func NewBridgeController(coordinator *bridge.Coordinator, rollback *bridge.RollbackEngine) *BridgeController {
	return &BridgeController{coordinator: coordinator, rollback: rollback}
}

type transferResponse struct {
	TransferID string `json:"transferId"`
	TxID       string `json:"txId"`
	BridgeTxID string `json:"bridgeTxId,omitempty"`
	Status     string `json:"status"`
}

type rollbackResponse struct {
	Success bool   `json:"success"`
	TxID    string `json:"txId"`
	Message string `json:"message"`
}

type historyResponse struct {
	Transfers []model.Transfer `json:"transfers"`
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *BridgeController) CreateTransfer(ctx echo.Context) error {
	caller, ok := ctx.Get("User").(model.User)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req bridge.TransferRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: "malformed request body"})
	}

	transfer, err := c.coordinator.Transfer(ctx.Request().Context(), &caller, req)
	if err != nil {
		return respondWithError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, transferResponse{
		TransferID: transfer.UUID,
		TxID:       transfer.TxID,
		BridgeTxID: transfer.BridgeTxID,
		Status:     transfer.Status,
	})
}

func (c *BridgeController) RollbackTransfer(ctx echo.Context) error {
	caller, ok := ctx.Get("User").(model.User)
	if !ok {
		return echo.ErrUnauthorized
	}

	var req struct {
		Reason string `json:"reason"`
	}

	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: "malformed request body"})
	}

	transfer, err := c.rollback.Rollback(ctx.Request().Context(), &caller, ctx.Param("transferId"), req.Reason)
	if err != nil {
		return respondWithError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, rollbackResponse{
		Success: true,
		TxID:    transfer.RollbackTxID,
		Message: "transfer rolled back",
	})
}

func (c *BridgeController) GetTransfer(ctx echo.Context) error {
	transfer, err := c.coordinator.GetTransfer(ctx.Param("transferId"))
	if err != nil {
		return respondWithError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, transfer)
}

func (c *BridgeController) GetHistory(ctx echo.Context) error {
	page := queryIntWithDefault(ctx, "page", 1)
	limit := queryIntWithDefault(ctx, "limit", 10)

	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 10
	}

	if limit > 100 {
		limit = 100
	}

	transfers, total, err := c.coordinator.History(ctx.QueryParam("status"), page, limit)
	if err != nil {
		return respondWithError(ctx, err)
	}

	if transfers == nil {
		transfers = []model.Transfer{}
	}

	return ctx.JSON(http.StatusOK, historyResponse{
		Transfers: transfers,
		Total:     total,
		Page:      page,
		Limit:     limit,
	})
}

func queryIntWithDefault(ctx echo.Context, name string, defaultValue int) int {
	val := ctx.QueryParam(name)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

// respondWithError translates the bridge error taxonomy into HTTP responses.
// Anything unclassified is an external ledger or database failure: the caller
// gets a generic 500 and the detail only goes to the log.
func respondWithError(ctx echo.Context, err error) error {
	switch {
	case bridge.IsValidationError(err):
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
	case errors.Is(err, bridge.ErrQuorumNotMet):
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "QUORUM_NOT_MET", Message: err.Error()})
	case errors.Is(err, bridge.ErrRollbackNotAllowed):
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "ROLLBACK_NOT_ALLOWED", Message: err.Error()})
	case errors.Is(err, bridge.ErrRecordAccessDenied):
		return ctx.JSON(http.StatusForbidden, errorResponse{Error: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, bridge.ErrTransferNotFound):
		return ctx.JSON(http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "no such transfer"})
	default:
		log.Errorf("Bridge request failed: %s", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "SUBMISSION_FAILED", Message: "internal error"})
	}
}

package handlers

import (
	"remitgate/internal/adapters/http/middleware"
	"remitgate/internal/core/services"
	"remitgate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles transaction authorization endpoints
type TransactionHandler struct {
	txService    *services.TransactionService
	statsService *services.StatisticsService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *services.TransactionService, statsService *services.StatisticsService) *TransactionHandler {
	return &TransactionHandler{
		txService:    txService,
		statsService: statsService,
	}
}

// VerifyRequest represents a verification decision
type VerifyRequest struct {
	Approve *bool   `json:"approve"`
	Notes   *string `json:"notes"`
}

// SubmitRequest represents a batch submission
type SubmitRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

// Verify approves or rejects a pending transaction
// @Summary Verify transaction
// @Description Approve or reject a PENDING transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param body body VerifyRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/verify [post]
func (h *TransactionHandler) Verify(c *fiber.Ctx) error {
	employee, ok := middleware.CurrentEmployee(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Approve == nil {
		return response.InvalidField(c, "approve", "is required")
	}

	tx, err := h.txService.Verify(c.UserContext(), employee, &services.VerifyInput{
		TransactionID: c.Params("id"),
		Approve:       *req.Approve,
		Notes:         req.Notes,
		IPAddress:     c.IP(),
	})
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Transaction "+string(tx.Status), fiber.Map{
		"transaction": tx,
	})
}

// Submit hands a batch of verified transactions to settlement
// @Summary Submit batch
// @Description Move 1-50 VERIFIED transactions to PROCESSING, all or nothing
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitRequest true "Transaction ids"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /transactions/submit [post]
func (h *TransactionHandler) Submit(c *fiber.Ctx) error {
	employee, ok := middleware.CurrentEmployee(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	summary, err := h.txService.SubmitBatch(c.UserContext(), employee, req.TransactionIDs, c.IP())
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Batch submitted for settlement", summary)
}

// Get returns a single transaction
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.txService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Transaction retrieved successfully", fiber.Map{
		"transaction": tx,
	})
}

// Statistics returns aggregate counts
// @Summary Transaction statistics
// @Description Counts per status plus today's count and amount (UTC day)
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /transactions/statistics [get]
func (h *TransactionHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.statsService.Statistics(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}

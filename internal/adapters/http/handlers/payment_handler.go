package handlers

import (
	"crypto/subtle"
	"errors"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/config"
	"medask-forum/internal/core/services"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment and posting-credit endpoints
type PaymentHandler struct {
	creditService *services.CreditService
	cfg           *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(creditService *services.CreditService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		creditService: creditService,
		cfg:           cfg,
	}
}

// WebhookRequest represents the payment provider confirmation callback
type WebhookRequest struct {
	Reference string  `json:"reference"`
	UserID    uint    `json:"user_id"`
	Amount    float64 `json:"amount"`
	Posts     int     `json:"posts"`
}

// GrantRequest represents a moderator credit grant request
type GrantRequest struct {
	UserID uint   `json:"user_id"`
	Posts  int    `json:"posts"`
	Remark string `json:"remark"`
}

// Webhook handles the payment provider confirmation callback
// @Summary Payment confirmation webhook
// @Description Provider callback confirming a payment; idempotent on the reference
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared webhook secret"
// @Param body body WebhookRequest true "Confirmation payload"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	secret := c.Get("X-Webhook-Secret")
	if h.cfg.Payment.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.Payment.WebhookSecret)) != 1 {
		return response.Unauthorized(c, "Invalid webhook secret")
	}

	var req WebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reference == "" || req.UserID == 0 || req.Posts <= 0 || req.Amount <= 0 {
		return response.BadRequest(c, "Missing or invalid confirmation fields")
	}

	input := &services.ConfirmPaymentInput{
		Reference: req.Reference,
		UserID:    req.UserID,
		Amount:    req.Amount,
		Posts:     req.Posts,
	}

	record, err := h.creditService.ConfirmPayment(c.Context(), input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to confirm payment")
	}

	return response.Success(c, "Payment confirmed", fiber.Map{
		"record": record.ToResponse(),
	})
}

// MyCredits returns the caller's credit position
// @Summary My posting credits
// @Description Get the caller's posting credit summary and payment records
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments/my-credits [get]
func (h *PaymentHandler) MyCredits(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	summary, err := h.creditService.Summary(c.Context(), userID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		return response.InternalServerError(c, "Failed to get credit summary")
	}

	return response.Success(c, "Credit summary retrieved", summary)
}

// Grant handles moderator credit grants
// @Summary Grant posting credits
// @Description Grant free posting credits to a user (admin only)
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GrantRequest true "Grant data"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/credits/grant [post]
func (h *PaymentHandler) Grant(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 || req.Posts <= 0 {
		return response.BadRequest(c, "User and a positive post count are required")
	}

	input := &services.GrantInput{
		UserID: req.UserID,
		Posts:  req.Posts,
		Remark: req.Remark,
	}

	record, err := h.creditService.Grant(c.Context(), input, adminID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to grant credits")
	}

	return response.Created(c, "Credits granted", fiber.Map{
		"record": record.ToResponse(),
	})
}

// Refund handles moderator refunds
// @Summary Refund a payment
// @Description Refund a payment record and remove its unused credits (admin only)
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/credits/{id}/refund [post]
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	recordID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid payment record ID")
	}

	record, err := h.creditService.Refund(c.Context(), recordID, adminID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment record not found")
		case errors.Is(err, services.ErrAlreadyRefunded):
			return response.Conflict(c, "Payment record already refunded")
		case errors.Is(err, services.ErrRefundNotPossible):
			return response.BadRequest(c, "Payment record cannot be refunded")
		default:
			return response.InternalServerError(c, "Failed to refund payment")
		}
	}

	return response.Success(c, "Payment refunded", fiber.Map{
		"record": record.ToResponse(),
	})
}

// ListUserRecords lists a user's payment records
// @Summary List user payment records
// @Description List all payment records of a user (admin only)
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/credits [get]
func (h *PaymentHandler) ListUserRecords(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	records, err := h.creditService.ListByUser(c.Context(), userID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		return response.InternalServerError(c, "Failed to list payment records")
	}

	responses := make([]*models.PaymentRecordResponse, len(records))
	for i, r := range records {
		responses[i] = r.ToResponse()
	}

	return response.Success(c, "Payment records retrieved", fiber.Map{
		"records": responses,
	})
}

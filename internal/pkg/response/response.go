package response

import "github.com/gofiber/fiber/v2"

// Error taxonomy codes surfaced to API clients. POLICY_VIOLATION and
// INSUFFICIENT_CREDIT are deterministic outcomes; CONFLICT invites one
// retry after a re-fetch; STORE_UNAVAILABLE is retriable with backoff.
const (
	CodePolicyViolation    = "POLICY_VIOLATION"
	CodeInsufficientCredit = "INSUFFICIENT_CREDIT"
	CodeConflict           = "CONFLICT"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
	})
}

// ErrorWithCode sends an error response carrying a machine-readable code
func ErrorWithCode(c *fiber.Ctx, statusCode int, code, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// PaymentRequired sends a 402 response with the INSUFFICIENT_CREDIT code
// so clients can route straight to the payment flow
func PaymentRequired(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusPaymentRequired, CodeInsufficientCredit, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 response with the CONFLICT code
func Conflict(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusConflict, CodeConflict, message)
}

// PolicyViolation sends a 422 response with the POLICY_VIOLATION code
func PolicyViolation(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusUnprocessableEntity, CodePolicyViolation, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// ServiceUnavailable sends a 503 response with the STORE_UNAVAILABLE code.
// Callers must treat it as neither allowed nor denied.
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return ErrorWithCode(c, fiber.StatusServiceUnavailable, CodeStoreUnavailable, message)
}

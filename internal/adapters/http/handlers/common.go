package handlers

import (
	"errors"

	"medask-forum/internal/core/domain"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// mapDomainError translates taxonomy errors into their HTTP shapes.
// Returns false when err is not a taxonomy error and the caller should
// map it itself.
func mapDomainError(c *fiber.Ctx, err error) (bool, error) {
	switch {
	case errors.Is(err, domain.ErrPolicyViolation):
		return true, response.PolicyViolation(c, err.Error())
	case errors.Is(err, domain.ErrInsufficientCredit):
		return true, response.PaymentRequired(c, "No posting credit remaining, please purchase a post")
	case errors.Is(err, domain.ErrConflict):
		return true, response.Conflict(c, "The resource changed underneath you, please retry")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return true, response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	case errors.Is(err, domain.ErrForbidden):
		return true, response.Forbidden(c, "You don't have permission to perform this action")
	}
	return false, nil
}

// currentUserID reads the authenticated user ID set by the auth middleware
func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok
}

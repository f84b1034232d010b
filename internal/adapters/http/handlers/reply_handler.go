package handlers

import (
	"errors"
	"strings"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/services"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReplyHandler handles reply endpoints
type ReplyHandler struct {
	replyService *services.ReplyService
}

// NewReplyHandler creates a new reply handler
func NewReplyHandler(replyService *services.ReplyService) *ReplyHandler {
	return &ReplyHandler{replyService: replyService}
}

// CreateReplyRequest represents create reply request body
type CreateReplyRequest struct {
	Body string `json:"body"`
}

// CheckEligibility returns whether the caller may reply to the topic
// @Summary Check reply eligibility
// @Description Check whether the caller may reply to the topic right now
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /topics/{id}/replies/eligibility [get]
func (h *ReplyHandler) CheckEligibility(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	elig, err := h.replyService.CanReply(c.Context(), topicID, userID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to check eligibility")
	}

	return response.Success(c, "Eligibility checked", elig)
}

// Create handles reply submission
// @Summary Post reply
// @Description Submit a reply to a topic; participants are capped, expert replies answer the topic
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param body body CreateReplyRequest true "Reply data"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /topics/{id}/replies [post]
func (h *ReplyHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	var req CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Body) == "" {
		return response.BadRequest(c, "Reply body is required")
	}

	input := &services.CreateReplyInput{Body: req.Body}

	reply, err := h.replyService.Create(c.Context(), topicID, input, userID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to post reply")
	}

	return response.Created(c, "Reply posted successfully", fiber.Map{
		"reply": reply.ToResponse(),
	})
}

// List handles listing the replies of a topic
// @Summary List replies
// @Description List the replies of a topic in posting order
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /topics/{id}/replies [get]
func (h *ReplyHandler) List(c *fiber.Ctx) error {
	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	replies, err := h.replyService.ListByTopic(c.Context(), topicID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to list replies")
	}

	responses := make([]*models.ReplyResponse, len(replies))
	for i, r := range replies {
		responses[i] = r.ToResponse()
	}

	return response.Success(c, "Replies retrieved successfully", fiber.Map{
		"replies": responses,
	})
}

// Delete handles moderator reply deletion
// @Summary Delete reply
// @Description Delete a reply (moderators only); deleting the expert's answer reopens the topic
// @Tags Replies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reply ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /replies/{id} [delete]
func (h *ReplyHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	replyID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid reply ID")
	}

	if err := h.replyService.Delete(c.Context(), replyID, userID, c.IP()); err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrReplyNotFound) {
			return response.NotFound(c, "Reply not found")
		}
		return response.InternalServerError(c, "Failed to delete reply")
	}

	return response.Success(c, "Reply deleted", nil)
}

package handlers

import (
	"errors"
	"strconv"
	"strings"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/services"
	"medask-forum/internal/pkg/pagination"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TopicHandler handles topic endpoints
type TopicHandler struct {
	topicService *services.TopicService
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(topicService *services.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

// CreateTopicRequest represents create topic request body
type CreateTopicRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	CategoryID uint   `json:"category_id"`
}

// TransitionRequest represents a status change request body
type TransitionRequest struct {
	Status string `json:"status"`
}

// CheckEligibility returns whether the caller may create a topic right now
// @Summary Check topic creation eligibility
// @Description Check whether the caller may create a new topic, with a reason code when denied
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /topics/eligibility [get]
func (h *TopicHandler) CheckEligibility(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	elig, err := h.topicService.CanCreateTopic(c.Context(), userID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		return response.InternalServerError(c, "Failed to check eligibility")
	}

	return response.Success(c, "Eligibility checked", elig)
}

// Create handles topic creation
// @Summary Create topic
// @Description Create a new topic, consuming one posting credit atomically
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTopicRequest true "Topic data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /topics [post]
func (h *TopicHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if len(req.Title) > 200 {
		return response.BadRequest(c, "Title must be at most 200 characters")
	}
	if strings.TrimSpace(req.Body) == "" {
		return response.BadRequest(c, "Body is required")
	}
	if req.CategoryID == 0 {
		return response.BadRequest(c, "Category is required")
	}

	input := &services.CreateTopicInput{
		Title:      req.Title,
		Body:       req.Body,
		CategoryID: req.CategoryID,
	}

	topic, err := h.topicService.Create(c.Context(), input, userID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		switch {
		case errors.Is(err, services.ErrCategoryNotFound):
			return response.BadRequest(c, "Unknown category")
		default:
			return response.InternalServerError(c, "Failed to create topic")
		}
	}

	return response.Created(c, "Topic created successfully", fiber.Map{
		"topic": topic.ToResponse(),
	})
}

// List handles topic listing
// @Summary List topics
// @Description List topics with status and category filters
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Param category_id query int false "Filter by category"
// @Success 200 {object} response.Response
// @Router /topics [get]
func (h *TopicHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	categoryID, _ := strconv.Atoi(c.Query("category_id", "0"))

	input := &services.ListInput{
		Page:       params.Page,
		Limit:      params.Limit,
		Status:     c.Query("status"),
		CategoryID: uint(categoryID),
	}

	result, err := h.topicService.List(c.Context(), input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		return response.BadRequest(c, "Invalid list parameters")
	}

	return response.Success(c, "Topics retrieved successfully", h.toListResponse(result))
}

// ListMine handles listing the caller's own topics
// @Summary List my topics
// @Description List topics authored by the current user
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /topics/mine [get]
func (h *TopicHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	input := &services.ListInput{
		Page:     params.Page,
		Limit:    params.Limit,
		AuthorID: &userID,
	}

	result, err := h.topicService.List(c.Context(), input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		return response.InternalServerError(c, "Failed to list topics")
	}

	return response.Success(c, "Topics retrieved successfully", h.toListResponse(result))
}

// Get handles fetching a single topic
// @Summary Get topic
// @Description Get a topic by ID
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /topics/{id} [get]
func (h *TopicHandler) Get(c *fiber.Ctx) error {
	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	topic, err := h.topicService.GetByID(c.Context(), topicID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to get topic")
	}

	return response.Success(c, "Topic retrieved successfully", fiber.Map{
		"topic": topic.ToResponse(),
	})
}

// Transition handles a requested status change
// @Summary Change topic status
// @Description Request a topic status change (IN_PROGRESS for expert self-assign, CLOSED to close)
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Param body body TransitionRequest true "Target status"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /topics/{id}/status [patch]
func (h *TopicHandler) Transition(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	topic, err := h.topicService.Transition(c.Context(), topicID, req.Status, userID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			return response.NotFound(c, "Topic not found")
		default:
			return response.BadRequest(c, "Invalid status change request")
		}
	}

	return response.Success(c, "Topic status updated", fiber.Map{
		"topic": topic.ToResponse(),
	})
}

// Close handles topic closing
// @Summary Close topic
// @Description Close a topic (author or moderator)
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /topics/{id}/close [post]
func (h *TopicHandler) Close(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	topic, err := h.topicService.Close(c.Context(), topicID, userID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to close topic")
	}

	return response.Success(c, "Topic closed", fiber.Map{
		"topic": topic.ToResponse(),
	})
}

// Assign handles expert self-assignment
// @Summary Take a topic
// @Description Expert self-assigns an OPEN topic (moves it to IN_PROGRESS)
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /topics/{id}/assign [post]
func (h *TopicHandler) Assign(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	topic, err := h.topicService.AssignExpert(c.Context(), topicID, userID, c.IP())
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to assign topic")
	}

	return response.Success(c, "Topic assigned", fiber.Map{
		"topic": topic.ToResponse(),
	})
}

// History returns the audit trail of a topic
// @Summary Topic history
// @Description Get the audit trail of a topic (moderators only)
// @Tags Topics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Topic ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /topics/{id}/history [get]
func (h *TopicHandler) History(c *fiber.Ctx) error {
	topicID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid topic ID")
	}

	entries, err := h.topicService.History(c.Context(), topicID)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		if errors.Is(err, services.ErrTopicNotFound) {
			return response.NotFound(c, "Topic not found")
		}
		return response.InternalServerError(c, "Failed to get topic history")
	}

	return response.Success(c, "Topic history retrieved", fiber.Map{
		"history": entries,
	})
}

func (h *TopicHandler) toListResponse(result *services.ListOutput) fiber.Map {
	topics := make([]*models.TopicResponse, len(result.Topics))
	for i, t := range result.Topics {
		topics[i] = t.ToResponse()
	}

	return fiber.Map{
		"topics":      topics,
		"total":       result.Total,
		"page":        result.Page,
		"limit":       result.Limit,
		"total_pages": result.TotalPages,
	}
}

// parseID parses a positive uint route parameter
func parseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

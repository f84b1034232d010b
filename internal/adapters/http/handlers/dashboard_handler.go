package handlers

import (
	"medask-forum/internal/core/domain"
	"medask-forum/internal/core/services"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetAdminDashboard returns admin dashboard data
// @Summary Admin Dashboard
// @Description Get admin dashboard with system overview (Admin only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get admin dashboard")
	}

	return response.Success(c, "Admin dashboard retrieved successfully", data)
}

// GetExpertDashboard returns expert dashboard data
// @Summary Expert Dashboard
// @Description Get expert dashboard with the open queue and assigned topics (Expert only)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/expert [get]
func (h *DashboardHandler) GetExpertDashboard(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetExpertDashboard(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get expert dashboard")
	}

	return response.Success(c, "Expert dashboard retrieved successfully", data)
}

// GetUserDashboard returns participant dashboard data
// @Summary User Dashboard
// @Description Get participant dashboard with topic status and remaining credits
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard/user [get]
func (h *DashboardHandler) GetUserDashboard(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetUserDashboard(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get user dashboard")
	}

	return response.Success(c, "User dashboard retrieved successfully", data)
}

// GetMyDashboard returns dashboard based on user role
// @Summary My Dashboard
// @Description Get dashboard based on current user's role (auto-detect)
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetMyDashboard(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	roles, _ := c.Locals("roles").([]string)

	var data interface{}
	var err error
	view := "user"

	switch {
	case hasRole(roles, string(domain.RoleAdmin)):
		view = "admin"
		data, err = h.dashboardService.GetAdminDashboard(c.Context())
	case hasRole(roles, string(domain.RoleExpert)):
		view = "expert"
		data, err = h.dashboardService.GetExpertDashboard(c.Context(), userID)
	default:
		data, err = h.dashboardService.GetUserDashboard(c.Context(), userID)
	}

	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", fiber.Map{
		"view": view,
		"data": data,
	})
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

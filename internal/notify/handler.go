package notify

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
)

// Handler handles the outbound email route. Access is guarded by a shared
// secret rather than the OAuth machinery, since callers here are trusted
// frontends, not drive users.
type Handler struct {
	service *Service
	token   string
}

// NewHandler creates a notify handler configured from the environment.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
		token:   os.Getenv("EMAIL_TOKEN"),
	}
}

// RegisterRoutes registers the email routes with the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/email/send", h.handleSend)
}

func (h *Handler) handleSend(c echo.Context) error {
	if h.token == "" {
		return c.String(http.StatusInternalServerError, "Missing email token")
	}
	if c.Request().Header.Get(echo.HeaderAuthorization) != "Bearer "+h.token {
		return c.String(http.StatusUnauthorized, "Unauthorized")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}
	if err := req.Email.Validate(); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}

	if err := h.service.Send(c.Request().Context(), &req.Email); err != nil {
		c.Logger().Errorf("relaying email failed: %v", err)
		return c.String(http.StatusBadGateway, "Failed to send email")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

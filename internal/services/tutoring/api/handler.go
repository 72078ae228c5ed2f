// Package api provides the HTTP surface for the tutoring service.
package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/louisbranch/studyhall/internal/platform/errors"
	"github.com/louisbranch/studyhall/internal/platform/requestctx"
	"github.com/louisbranch/studyhall/internal/services/tutoring"
)

// Handler handles HTTP requests against the tutoring service.
type Handler struct {
	svc *tutoring.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *tutoring.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers routes with the echo server. All session routes
// require an authenticated caller.
func (h *Handler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	g := e.Group("/v1/sessions", auth)
	g.POST("", h.BookSession)
	g.GET("", h.ListSessions)
	g.GET("/:id", h.GetSession)
	g.GET("/:id/transfers", h.ListTransfers)

	g.POST("/:id/teacher", h.RequestTeacher)
	g.POST("/:id/complete", h.CompleteSession)
	g.POST("/:id/dispute", h.DisputeSession)
	g.POST("/:id/resolve", h.ResolveSession)
	g.POST("/:id/release", h.ReleasePayment)
	g.POST("/:id/funds", h.AddFunds)
	g.POST("/:id/refund", h.RefundFunds)
	g.POST("/:id/cancel", h.CancelSession)

	g.PUT("/:id/description", h.UpdateDescription)
	g.PUT("/:id/objectives", h.UpdateObjectives)
	g.POST("/:id/materials", h.AddMaterial)
	g.PUT("/:id/price", h.UpdatePrice)
	g.POST("/:id/feedback", h.ProvideFeedback)
	g.POST("/:id/rating", h.ProvideRating)
	g.PUT("/:id/deadlines", h.SetDeadlines)
	g.PATCH("/:id/deadlines", h.UpdateDeadlines)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// actorID returns the authenticated caller identity for the request.
func actorID(c echo.Context) string {
	return requestctx.ActorIDFromContext(c.Request().Context())
}

// renderError writes a domain error as a JSON response with the mapped status.
// Errors outside the domain taxonomy surface as opaque 500s.
func renderError(c echo.Context, err error) error {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	body := map[string]any{"error": message, "code": string(code)}
	if appErr != nil && len(appErr.Metadata) > 0 {
		body["metadata"] = appErr.Metadata
	}
	return c.JSON(status, body)
}

package possync

import (
	"errors"
	"strconv"

	"catalog-sync/core/logger"
	"catalog-sync/feature/pos"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for POS integrations.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integration and webhook routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrations/:tenant")
	group.Post("/sync", h.HandleSync)
	group.Get("/status", h.HandleStatus)
	group.Get("/runs", h.HandleRuns)
	group.Get("/square/authorize", h.HandleAuthorize)
	group.Post("/:provider/connect", h.HandleConnect)
	group.Delete("/:provider", h.HandleDisconnect)

	app.Post("/webhooks/:provider", h.HandleWebhook)
}

func errorBody(code, message string) fiber.Map {
	return fiber.Map{"error": fiber.Map{"code": code, "message": message}}
}

// writeError maps service errors to status codes.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var validation *ValidationError
	status, code := fiber.StatusInternalServerError, "internal"

	switch {
	case errors.As(err, &validation):
		status, code = fiber.StatusBadRequest, "validation_failed"
	case errors.Is(err, pos.ErrUnsupportedProvider):
		status, code = fiber.StatusBadRequest, "unsupported_provider"
	case errors.Is(err, pos.ErrInvalidCredentials):
		status, code = fiber.StatusUnprocessableEntity, "invalid_credentials"
	case errors.Is(err, pos.ErrConflictingIntegration):
		status, code = fiber.StatusConflict, "conflicting_integration"
	case errors.Is(err, pos.ErrSyncInProgress):
		status, code = fiber.StatusConflict, "sync_in_progress"
	case errors.Is(err, pos.ErrNotConnected):
		status, code = fiber.StatusNotFound, "not_connected"
	case errors.Is(err, pos.ErrAuthExpired):
		status, code = fiber.StatusBadGateway, "auth_expired"
	case errors.Is(err, pos.ErrFetchFailed):
		status, code = fiber.StatusBadGateway, "fetch_failed"
	case errors.Is(err, pos.ErrTransactionApply):
		status, code = fiber.StatusInternalServerError, "transaction_failed"
	case errors.Is(err, pos.ErrSignatureInvalid):
		status, code = fiber.StatusUnauthorized, "signature_invalid"
	}

	if status >= fiber.StatusInternalServerError {
		logger.WithRayID(h.service.logger, c).Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(errorBody(code, err.Error()))
}

func (h *Handler) provider(c *fiber.Ctx) (pos.Provider, error) {
	return pos.ParseProvider(c.Params("provider"))
}

// HandleConnect validates and stores provider credentials.
func (h *Handler) HandleConnect(c *fiber.Ctx) error {
	provider, err := h.provider(c)
	if err != nil {
		return h.writeError(c, err)
	}

	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return h.writeError(c, &ValidationError{Err: err})
	}

	info, err := h.service.Connect(c.UserContext(), c.Params("tenant"), provider, req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(info)
}

// HandleDisconnect removes a provider connection.
func (h *Handler) HandleDisconnect(c *fiber.Ctx) error {
	provider, err := h.provider(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.service.Disconnect(c.UserContext(), c.Params("tenant"), provider); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleStatus returns the integration status.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	st, err := h.service.Status(c.UserContext(), c.Params("tenant"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(st)
}

// HandleSync runs a manual sync and returns its result.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	res, err := h.service.SyncNow(c.UserContext(), c.Params("tenant"))
	if err != nil {
		if res != nil && !res.Skipped {
			// Failed runs still report what was recorded.
			status := fiber.StatusBadGateway
			if errors.Is(err, pos.ErrTransactionApply) {
				status = fiber.StatusInternalServerError
			}
			logger.WithRayID(h.service.logger, c).Warn("Manual sync failed", zap.String("run_id", res.RunID), zap.Error(err))
			return c.Status(status).JSON(fiber.Map{
				"error":  fiber.Map{"code": "sync_failed", "message": err.Error()},
				"result": res,
			})
		}
		return h.writeError(c, err)
	}
	return c.JSON(res)
}

// HandleRuns lists recent sync runs.
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		return h.writeError(c, &ValidationError{Err: errors.New("limit must be between 1 and 200")})
	}

	runs, err := h.service.History(c.UserContext(), c.Params("tenant"), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleAuthorize returns the Square OAuth consent URL.
func (h *Handler) HandleAuthorize(c *fiber.Ctx) error {
	url, err := h.service.AuthorizeURL(c.Query("state"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleWebhook verifies and acknowledges a provider notification.
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	provider, err := h.provider(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorBody("unsupported_provider", err.Error()))
	}

	verifier, err := h.service.registry.Verifier(provider)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorBody("unsupported_provider", err.Error()))
	}

	res, err := h.service.HandleWebhook(c.UserContext(), provider, c.Body(), c.Get(verifier.SignatureHeader()))
	if errors.Is(err, pos.ErrSignatureInvalid) {
		logger.WithRayID(h.service.logger, c).Warn("Webhook signature rejected", zap.String("provider", string(provider)))
		return c.Status(fiber.StatusUnauthorized).JSON(errorBody("signature_invalid", err.Error()))
	}
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Webhook handling failed", zap.Error(err))
		return c.JSON(fiber.Map{"outcome": "error"})
	}
	return c.JSON(res)
}

package handler

import (
	"context"
	"errors"
	"time"

	"github.com/clicktally/clicktally/internal/app/service"
	infraprom "github.com/clicktally/clicktally/internal/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const healthPingTimeout = 5 * time.Second

// ClickDeps groups dependencies required by the public click endpoints.
type ClickDeps struct {
	Logger   *zap.Logger
	Clicks   service.ClickService
	Postgres *pgxpool.Pool
}

// ClickHandler implements the public surface: health probes and click intake.
type ClickHandler struct {
	logger   *zap.Logger
	clicks   service.ClickService
	postgres *pgxpool.Pool
}

// NewClickHandler creates a click handler with the provided dependencies.
func NewClickHandler(deps ClickDeps) *ClickHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickHandler{
		logger:   logger,
		clicks:   deps.Clicks,
		postgres: deps.Postgres,
	}
}

// Register wires public routes onto the provided router.
func (h *ClickHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Post("/api/click", h.Record)
}

// Health reports service liveness and database reachability.
func (h *ClickHandler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	if h.postgres != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
		defer cancel()
		if err := h.postgres.Ping(ctx); err != nil {
			dbStatus = "unreachable"
		}
	}

	return c.JSON(fiber.Map{
		"service":  "clicktally",
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// RecordClickRequest represents the request body for recording a click.
type RecordClickRequest struct {
	PlatformID   string `json:"platform_id"`
	PlatformName string `json:"platform_name"`
	PlatformURL  string `json:"platform_url"`
}

// Record handles POST /api/click
func (h *ClickHandler) Record(c *fiber.Ctx) error {
	var req RecordClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := h.clicks.Record(ctx, service.RecordClickInput{
		PlatformID:   req.PlatformID,
		PlatformName: req.PlatformName,
		PlatformURL:  req.PlatformURL,
		IPAddress:    c.IP(),
		UserAgent:    c.Get("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Incomplete click data",
			})
		}
		h.logger.Error("failed to record click", zap.Error(err), zap.String("platform_id", req.PlatformID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to record click",
		})
	}

	infraprom.ClicksRecorded.WithLabelValues(req.PlatformID).Inc()
	h.logger.Debug("click recorded",
		zap.Int64("id", id),
		zap.String("platform_id", req.PlatformID),
		zap.String("platform_name", req.PlatformName),
	)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Click recorded successfully",
		"id":      id,
	})
}

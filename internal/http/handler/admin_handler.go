package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clicktally/clicktally/internal/app/model"
	"github.com/clicktally/clicktally/internal/app/repository"
	"github.com/clicktally/clicktally/internal/app/service"
	"github.com/clicktally/clicktally/internal/http/middleware"
	infraprom "github.com/clicktally/clicktally/internal/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by the admin handlers.
type AdminDeps struct {
	Logger  *zap.Logger
	Auth    service.AuthService
	Clicks  service.ClickService
	Reports service.ReportService
}

// AdminHandler implements authentication and the protected reporting endpoints.
type AdminHandler struct {
	logger  *zap.Logger
	auth    service.AuthService
	clicks  service.ClickService
	reports service.ReportService
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:  logger,
		auth:    deps.Auth,
		clicks:  deps.Clicks,
		reports: deps.Reports,
	}
}

// Register wires admin routes onto the provided router. requireSession gates
// every protected route before its handler runs.
func (h *AdminHandler) Register(router fiber.Router, requireSession fiber.Handler) {
	api := router.Group("/api")

	admin := api.Group("/admin")
	admin.Post("/login", h.Login)
	admin.Get("/check", h.Check)
	admin.Post("/logout", requireSession, h.Logout)
	admin.Get("/history", requireSession, h.History)
	admin.Get("/export-csv", requireSession, h.ExportCSV)
	admin.Delete("/clicks", requireSession, h.DeleteAll)

	api.Get("/stats", requireSession, h.Stats)
}

// LoginRequest represents the request body for admin login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Username and password are required",
		})
	}

	token, err := h.auth.Login(h.userContext(c), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			infraprom.LoginAttempts.WithLabelValues("failure").Inc()
			h.logger.Warn("login attempt failed", zap.String("username", req.Username), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Incorrect username or password",
			})
		}
		h.logger.Error("login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to log in",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   int(model.SessionTTL.Seconds()),
	})

	infraprom.LoginAttempts.WithLabelValues("success").Inc()
	h.logger.Info("login successful", zap.String("username", req.Username))

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Login successful",
		"username": req.Username,
	})
}

// Check handles GET /api/admin/check. It is a read-only probe and never
// requires a session.
func (h *AdminHandler) Check(c *fiber.Ctx) error {
	session, err := h.auth.Check(h.userContext(c), c.Cookies(middleware.SessionCookieName))
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			return c.JSON(fiber.Map{
				"success":       true,
				"authenticated": false,
			})
		}
		h.logger.Error("session check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to check session",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"username":      session.Username,
	})
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	username := h.sessionUsername(c)

	if err := h.auth.Logout(h.userContext(c), c.Cookies(middleware.SessionCookieName)); err != nil {
		h.logger.Error("logout failed", zap.Error(err), zap.String("username", username))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to log out",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-time.Hour),
	})

	h.logger.Info("logout", zap.String("username", username))

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout successful",
	})
}

// Stats handles GET /api/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reports.Stats(h.userContext(c))
	if err != nil {
		h.logger.Error("failed to build stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch statistics",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// History handles GET /api/admin/history
func (h *AdminHandler) History(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", service.DefaultPageSize)
	filter := repository.ClickFilter{
		PlatformID: c.Query("platform"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}

	history, err := h.clicks.History(h.userContext(c), filter, page, limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidFilter) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to fetch history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch history",
		})
	}

	infraprom.HistoryQueries.Inc()

	return c.JSON(fiber.Map{
		"success": true,
		"history": history,
	})
}

// ExportCSV handles GET /api/admin/export-csv
func (h *AdminHandler) ExportCSV(c *fiber.Ctx) error {
	filter := repository.ClickFilter{
		PlatformID: c.Query("platform"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}

	var buf bytes.Buffer
	rows, err := h.reports.WriteCSV(h.userContext(c), filter, &buf)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidFilter) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		h.logger.Error("failed to export CSV", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to export CSV",
		})
	}

	infraprom.CSVExports.Inc()
	h.logger.Info("CSV exported",
		zap.Int("rows", rows),
		zap.String("username", h.sessionUsername(c)),
	)

	filename := fmt.Sprintf("clicks_export_%s.csv", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

// DeleteAll handles DELETE /api/admin/clicks
func (h *AdminHandler) DeleteAll(c *fiber.Ctx) error {
	deleted, err := h.clicks.DeleteAll(h.userContext(c))
	if err != nil {
		h.logger.Error("failed to delete clicks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete clicks",
		})
	}

	h.logger.Warn("all clicks deleted",
		zap.Int64("deleted_count", deleted),
		zap.String("username", h.sessionUsername(c)),
	)

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "All clicks were deleted successfully",
		"deleted_count": deleted,
	})
}

func (h *AdminHandler) userContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func (h *AdminHandler) sessionUsername(c *fiber.Ctx) string {
	if session, ok := c.Locals(middleware.SessionLocalsKey).(*model.Session); ok && session != nil {
		return session.Username
	}
	return ""
}

package integrity

import (
	"entity-mapper/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck runs every check.
// @Summary Run All Integrity Checks
// @Description Checks the bucket folders and the database schema.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]any)

	if missing, err := h.service.CheckStructure(c.Context()); err != nil {
		report["structure"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["structure"] = fiber.Map{"status": "ok", "missing": missing}
	}

	if schema, err := h.service.CheckSchema(); err != nil {
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	return c.JSON(report)
}

// HandleStructureCheck checks and optionally fixes the bucket folders.
// @Summary Check Structure
// @Description Checks that the catalog and export folders exist in the bucket. Optionally creates missing folders.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckStructure(c.Context())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(missing) > 0 && c.QueryBool("fix", false) {
		l.Warn("Fixing missing folders", zap.Strings("missing", missing))
		if err := h.service.FixStructure(c.Context(), missing); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to fix structure",
				"details": err.Error(),
				"missing": missing,
			})
		}
		return c.JSON(fiber.Map{"status": "fixed", "fixed": missing})
	}

	return c.JSON(fiber.Map{"status": "checked", "missing": missing})
}

// HandleSchemaCheck checks the database schema.
// @Summary Check Schema
// @Description Checks that the library tables have every column the models expect.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckSchema()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

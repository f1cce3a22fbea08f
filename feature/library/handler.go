package library

import (
	"errors"
	"time"

	"entity-mapper/core/logger"
	"entity-mapper/core/mapper"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the library.
type Handler struct {
	service  *Service
	importer *Importer
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. importer may be nil, which disables the
// catalog routes.
func NewHandler(service *Service, importer *Importer, logger *zap.Logger) *Handler {
	return &Handler{service: service, importer: importer, logger: logger}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	books := app.Group("/books")
	books.Get("/", h.HandleListBooks)
	books.Post("/", h.HandleSaveBook)
	books.Post("/batch", h.HandleSaveBooks)
	books.Post("/plan", h.HandlePlanBooks)
	books.Get("/:id", h.HandleGetBook)

	if h.importer != nil {
		catalog := app.Group("/catalog")
		catalog.Post("/import", h.HandleImport)
		catalog.Post("/export", h.HandleExport)
	}
}

// HandleSaveBook inserts or updates a book graph.
// @Summary Save Book
// @Description Inserts a book without id or updates the book with the given id, together with its author, tags and reviews.
// @Tags books
// @Accept json
// @Produce json
// @Param book body BookDTO true "Book"
// @Success 200 {object} BookDTO "Saved book"
// @Failure 400 {object} map[string]string "Invalid body"
// @Failure 409 {object} map[string]string "Stale concurrency token"
// @Failure 422 {object} map[string]string "Mapping rejected"
// @Router /books [post]
func (h *Handler) HandleSaveBook(c *fiber.Ctx) error {
	var dto BookDTO
	if err := c.BodyParser(&dto); err != nil {
		return h.fail(c, fiber.NewError(fiber.StatusBadRequest, err.Error()))
	}

	saved, err := h.service.SaveBook(c.Context(), &dto)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(saved)
}

// HandleSaveBooks saves a batch of books in one transaction.
// @Summary Save Books
// @Description Saves several books in one unit of work. Authors and tags shared by new books are inserted once.
// @Tags books
// @Accept json
// @Produce json
// @Param books body []BookDTO true "Books"
// @Success 200 {array} BookDTO "Saved books"
// @Failure 400 {object} map[string]string "Invalid body"
// @Failure 409 {object} map[string]string "Stale concurrency token"
// @Failure 422 {object} map[string]string "Mapping rejected"
// @Router /books/batch [post]
func (h *Handler) HandleSaveBooks(c *fiber.Ctx) error {
	dtos, err := parseBatch(c)
	if err != nil {
		return h.fail(c, err)
	}

	saved, err := h.service.SaveBooks(c.Context(), dtos)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(saved)
}

// HandlePlanBooks reports what saving a batch would change, without saving it.
// @Summary Plan Books
// @Description Maps a batch of books and counts the inserts, removals and unlinks saving it would make.
// @Tags books
// @Accept json
// @Produce json
// @Param books body []BookDTO true "Books"
// @Success 200 {object} Plan "Pending changes"
// @Failure 400 {object} map[string]string "Invalid body"
// @Failure 422 {object} map[string]string "Mapping rejected"
// @Router /books/plan [post]
func (h *Handler) HandlePlanBooks(c *fiber.Ctx) error {
	dtos, err := parseBatch(c)
	if err != nil {
		return h.fail(c, err)
	}

	plan, err := h.service.PlanBooks(c.Context(), dtos)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(plan)
}

// HandleGetBook returns one book.
// @Summary Get Book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} BookDTO "Book"
// @Failure 404 {object} map[string]string "Not found"
// @Router /books/{id} [get]
func (h *Handler) HandleGetBook(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return h.fail(c, fiber.NewError(fiber.StatusBadRequest, "invalid book id"))
	}

	book, err := h.service.GetBook(c.Context(), uint(id))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(book)
}

// HandleListBooks returns every book.
// @Summary List Books
// @Tags books
// @Produce json
// @Success 200 {array} BookDTO "Books"
// @Router /books [get]
func (h *Handler) HandleListBooks(c *fiber.Ctx) error {
	books, err := h.service.ListBooks(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(books)
}

// HandleImport imports the catalogs waiting in the bucket.
// @Summary Import Catalogs
// @Description Imports every catalog object, or only the one named by ?object=. With ?dry_run=true the changes are planned, not saved.
// @Tags catalog
// @Produce json
// @Param object query string false "Catalog object"
// @Param dry_run query bool false "Plan only"
// @Success 200 {array} ImportReport "Imported catalogs"
// @Router /catalog/import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	dryRun := c.QueryBool("dry_run", false)

	if object := c.Query("object"); object != "" {
		report, err := h.importer.Import(c.Context(), object, dryRun)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON([]*ImportReport{report})
	}

	reports, err := h.importer.ImportAll(c.Context(), dryRun)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(reports)
}

// HandleExport writes all books to the bucket.
// @Summary Export Catalog
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]string "Exported object"
// @Router /catalog/export [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	object, err := h.importer.Export(c.Context(), time.Now())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"object": object})
}

func parseBatch(c *fiber.Ctx) ([]*BookDTO, error) {
	var dtos []*BookDTO
	if err := c.BodyParser(&dtos); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	for _, dto := range dtos {
		if dto == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "batch contains a null book")
		}
	}
	return dtos, nil
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	l := logger.WithRayID(h.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Library request failed", zap.Error(err))
	} else {
		l.Info("Library request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// StatusFor maps mapper and library errors to HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ErrBookNotFound):
		return fiber.StatusNotFound
	case mapper.IsConcurrency(err):
		return fiber.StatusConflict
	case mapper.IsPolicyViolation(err),
		errors.Is(err, mapper.ErrDuplicatedListItem),
		errors.Is(err, mapper.ErrEntityNotFound),
		errors.Is(err, mapper.ErrNilSource):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

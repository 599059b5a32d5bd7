package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/repository"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// RecordsHandler serves CRUD for one named collection.
type RecordsHandler struct {
	collection string
	records    repository.RecordRepository
}

// NewRecordsHandler constructs handler for collection.
func NewRecordsHandler(collection string, records repository.RecordRepository) *RecordsHandler {
	return &RecordsHandler{collection: collection, records: records}
}

// List handles GET /api/v1/{collection}. Query parameters other than offset
// and limit filter by exact match.
func (h *RecordsHandler) List(c *fiber.Ctx) error {
	params, err := listParams(c)
	if err != nil {
		return err
	}
	items, total, err := h.records.List(c.UserContext(), h.collection, params)
	if err != nil {
		return h.mapError(err, "")
	}
	return c.JSON(dto.ListResponse[repository.Record]{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// Get handles GET /api/v1/{collection}/:id.
func (h *RecordsHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	rec, err := h.records.Get(c.UserContext(), h.collection, id)
	if err != nil {
		return h.mapError(err, id)
	}
	return c.JSON(rec)
}

// Create handles POST /api/v1/{collection}.
func (h *RecordsHandler) Create(c *fiber.Ctx) error {
	var rec repository.Record
	if err := c.BodyParser(&rec); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.records.Create(c.UserContext(), h.collection, rec)
	if err != nil {
		return h.mapError(err, rec.ID())
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update handles PATCH /api/v1/{collection}/:id as a shallow merge.
func (h *RecordsHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	var patch repository.Record
	if err := c.BodyParser(&patch); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.records.Update(c.UserContext(), h.collection, id, patch)
	if err != nil {
		return h.mapError(err, id)
	}
	return c.JSON(updated)
}

// Delete handles DELETE /api/v1/{collection}/:id.
func (h *RecordsHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.records.Delete(c.UserContext(), h.collection, id); err != nil {
		return h.mapError(err, id)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RecordsHandler) mapError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(h.collection+" record", map[string]any{"id": id})
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict("record already exists", map[string]any{"id": id})
	case errors.Is(err, repository.ErrUnknownCollection):
		return apperrors.NewNotFound("collection "+h.collection, nil)
	}
	return err
}

func listParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{Limit: defaultLimit, Filters: map[string]string{}}
	var bad []string

	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		k, v := string(key), string(value)
		switch k {
		case "offset":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				bad = append(bad, k)
				return
			}
			params.Offset = n
		case "limit":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				bad = append(bad, k)
				return
			}
			params.Limit = min(n, maxLimit)
		default:
			if v != "" {
				params.Filters[k] = v
			}
		}
	})

	if len(bad) > 0 {
		return params, apperrors.NewValidationError("invalid paging parameters", map[string]any{"fields": bad})
	}
	return params, nil
}

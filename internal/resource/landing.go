package resource

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"kyctrust/internal/store"
)

// upsertByKey layers create-or-update on top of the generic handler for
// resources with an UpsertKey (landing customizations): an active row with
// the same logical key is patched, otherwise a new active row is created.
//
// The lookup and the write are separate statements with no isolation
// guarantee. Two concurrent requests for the same key can both miss the
// lookup and both insert, leaving duplicate active rows. That matches the
// behavior of the site this replaces; there is deliberately no unique index.
func (h *Handler) upsertByKey(c *fiber.Ctx, r *Resource) error {
	body, err := parseBody(c)
	if err != nil {
		return InvalidPayloadError("invalid JSON body")
	}

	key, _ := body[r.UpsertKey].(string)
	if key == "" {
		return InvalidPayloadError(fmt.Sprintf("%s is required", r.UpsertKey))
	}

	existing, err := h.findActiveByKey(c, r, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return InternalError("fetch "+r.Plural, err)
	}

	if existing != nil {
		id, _ := existing["id"].(string)
		row, err := h.patchRow(c.Context(), r, id, body)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFoundError(r.Plural)
			}
			return InternalError("update "+r.Name, err)
		}
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("%s updated successfully", r.Plural),
			r.Name:    row,
		})
	}

	body["active"] = true
	row, err := h.insertRow(c.Context(), r, body)
	if err != nil {
		if errors.Is(err, errInvalidColumn) {
			return InvalidPayloadError(err.Error())
		}
		return InternalError("create "+r.Name, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": fmt.Sprintf("%s created successfully", r.Plural),
		r.Name:    row,
	})
}

func (h *Handler) findActiveByKey(c *fiber.Ctx, r *Resource, key string) (map[string]any, error) {
	pb := h.store.Dialect.NewParamBuilder()
	active := h.encodeValue(r, "active", true)
	sqlStr := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s AND active = %s LIMIT 1",
		r.Table, r.UpsertKey, pb.Add(key), pb.Add(active))

	row, err := store.QueryRow(c.Context(), h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	h.fixRowBools(r, row)
	return row, nil
}

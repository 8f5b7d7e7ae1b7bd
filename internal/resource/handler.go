package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kyctrust/internal/store"
)

// Handler executes the four generic CRUD operations against a resource table.
type Handler struct {
	store *store.Store
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// list handles GET /api/:plural with optional equality filters.
func (h *Handler) list(c *fiber.Ctx, r *Resource) error {
	pb := h.store.Dialect.NewParamBuilder()

	var where []string
	for _, field := range r.Filters {
		val := c.Query(field)
		if val == "" {
			continue
		}
		coerced, err := h.coerceFilter(r, field, val)
		if err != nil {
			return InvalidPayloadError(fmt.Sprintf("invalid value for filter %s", field))
		}
		where = append(where, fmt.Sprintf("%s = %s", field, pb.Add(coerced)))
	}

	sqlStr := fmt.Sprintf("SELECT * FROM %s", r.Table)
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := store.QueryRows(c.Context(), h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return InternalError("fetch "+r.Plural, err)
	}
	if h.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, r.BoolFields)
	}

	// Ensure non-nil slice for JSON
	if rows == nil {
		rows = []map[string]any{}
	}

	return c.JSON(fiber.Map{r.Plural: rows})
}

// create handles POST /api/:plural.
func (h *Handler) create(c *fiber.Ctx, r *Resource) error {
	body, err := parseBody(c)
	if err != nil {
		return InvalidPayloadError("invalid JSON body")
	}

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

// update handles PUT /api/:plural?id=.
func (h *Handler) update(c *fiber.Ctx, r *Resource) error {
	id := c.Query("id")
	if id == "" {
		return MissingIDError()
	}

	body, err := parseBody(c)
	if err != nil {
		return InvalidPayloadError("invalid JSON body")
	}

	row, err := h.patchRow(c.Context(), r, id, body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(r.Plural)
		}
		if errors.Is(err, errInvalidColumn) {
			return InvalidPayloadError(err.Error())
		}
		return InternalError("update "+r.Name, err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s updated successfully", r.Plural),
		r.Name:    row,
	})
}

// delete handles DELETE /api/:plural?id=. A missing row is not distinguished
// from a deleted one; the response is the same either way.
func (h *Handler) delete(c *fiber.Ctx, r *Resource) error {
	id := c.Query("id")
	if id == "" {
		return MissingIDError()
	}

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("DELETE FROM %s WHERE id = %s", r.Table, pb.Add(id))
	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, pb.Params()...); err != nil {
		return InternalError("delete "+r.Name, err)
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s deleted successfully", r.Plural),
	})
}

// insertRow merges the body over the resource defaults and inserts.
// Caller-supplied values take precedence key by key.
func (h *Handler) insertRow(ctx context.Context, r *Resource, body map[string]any) (map[string]any, error) {
	fields := make(map[string]any, len(r.Defaults)+len(body)+1)
	for k, v := range r.Defaults {
		fields[k] = v
	}
	for k, v := range body {
		fields[k] = v
	}
	if !h.store.Dialect.GeneratesUUIDs() {
		if _, ok := fields["id"]; !ok {
			fields["id"] = uuid.NewString()
		}
	}

	cols := sortedKeys(fields)
	if err := checkColumns(cols); err != nil {
		return nil, err
	}
	pb := h.store.Dialect.NewParamBuilder()
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = pb.Add(h.encodeValue(r, col, fields[col]))
	}

	sqlStr := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		r.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	row, err := store.QueryRow(ctx, h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, h.store.Dialect.MapError(err)
	}
	h.fixRowBools(r, row)
	return row, nil
}

// patchRow applies a field-level patch by id and returns the updated row.
// Returns store.ErrNotFound when no row matches, including the case where
// the statement succeeds but touches nothing.
func (h *Handler) patchRow(ctx context.Context, r *Resource, id string, patch map[string]any) (map[string]any, error) {
	delete(patch, "id") // identifier is immutable

	if len(patch) == 0 {
		return h.fetchRow(ctx, r, id)
	}

	cols := sortedKeys(patch)
	if err := checkColumns(cols); err != nil {
		return nil, err
	}
	pb := h.store.Dialect.NewParamBuilder()
	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = %s", col, pb.Add(h.encodeValue(r, col, patch[col]))))
	}
	sets = append(sets, "updated_at = "+h.store.Dialect.NowExpr())

	sqlStr := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s RETURNING *",
		r.Table, strings.Join(sets, ", "), pb.Add(id))

	row, err := store.QueryRow(ctx, h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, h.store.Dialect.MapError(err)
	}
	h.fixRowBools(r, row)
	return row, nil
}

func (h *Handler) fetchRow(ctx context.Context, r *Resource, id string) (map[string]any, error) {
	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("SELECT * FROM %s WHERE id = %s", r.Table, pb.Add(id))
	row, err := store.QueryRow(ctx, h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return nil, err
	}
	h.fixRowBools(r, row)
	return row, nil
}

func (h *Handler) fixRowBools(r *Resource, row map[string]any) {
	if h.store.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans([]map[string]any{row}, r.BoolFields)
	}
}

// encodeValue converts a JSON body value into a driver-bindable one.
// Objects and arrays are stored as JSON text; booleans become 0/1 on SQLite.
func (h *Handler) encodeValue(r *Resource, col string, v any) any {
	switch val := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return "{}"
		}
		return string(b)
	case bool:
		if h.store.Dialect.NeedsBoolFix() {
			if val {
				return 1
			}
			return 0
		}
		return val
	default:
		return v
	}
}

func (h *Handler) coerceFilter(r *Resource, field, val string) (any, error) {
	if r.IsBool(field) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, err
		}
		return h.encodeValue(r, field, b), nil
	}
	return val, nil
}

func parseBody(c *fiber.Ctx) (map[string]any, error) {
	body := map[string]any{}
	if len(c.Body()) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return nil, err
	}
	return body, nil
}

// sortedKeys gives deterministic column order for generated SQL.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

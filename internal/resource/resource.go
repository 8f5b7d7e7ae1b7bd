package resource

import "strings"

// Op is one of the four CRUD operations a resource can register.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Resource maps a named relational table onto a uniform CRUD endpoint.
// The handler stays schemaless: Defaults and Filters are the only
// per-resource knowledge it carries.
type Resource struct {
	Name   string // singular, used as the response key for single rows
	Plural string // route segment and collection response key
	Table  string

	// Defaults are merged under the caller's body on create.
	// Caller-supplied values win key by key.
	Defaults map[string]any

	// Filters lists the query parameters usable as equality filters on list.
	Filters []string

	// BoolFields names columns that need 0/1 <-> bool normalization on SQLite.
	BoolFields []string

	// Ops is the set of registered operations. Anything else gets a 405.
	Ops []Op

	// UpsertKey, when set, turns create into create-or-update keyed by this
	// logical field: an active row with the same value is patched instead of
	// a new row being inserted.
	UpsertKey string
}

// Allows reports whether the operation is registered for this resource.
func (r *Resource) Allows(op Op) bool {
	for _, o := range r.Ops {
		if o == op {
			return true
		}
	}
	return false
}

// AllowHeader returns the Allow header value for the registered operations.
// OPTIONS is always answered by the CORS middleware.
func (r *Resource) AllowHeader() string {
	var methods []string
	if r.Allows(OpList) {
		methods = append(methods, "GET")
	}
	if r.Allows(OpCreate) {
		methods = append(methods, "POST")
	}
	if r.Allows(OpUpdate) {
		methods = append(methods, "PUT")
	}
	if r.Allows(OpDelete) {
		methods = append(methods, "DELETE")
	}
	methods = append(methods, "OPTIONS")
	return strings.Join(methods, ", ")
}

// HasFilter reports whether the query parameter is a registered list filter.
func (r *Resource) HasFilter(field string) bool {
	for _, f := range r.Filters {
		if f == field {
			return true
		}
	}
	return false
}

// IsBool reports whether the field holds a boolean.
func (r *Resource) IsBool(field string) bool {
	for _, f := range r.BoolFields {
		if f == field {
			return true
		}
	}
	return false
}

var allOps = []Op{OpList, OpCreate, OpUpdate, OpDelete}

// Builtin returns the full resource set of the site.
func Builtin() []*Resource {
	return []*Resource{
		{
			Name: "service", Plural: "services", Table: "services",
			Defaults:   map[string]any{"active": true},
			Filters:    []string{"active"},
			BoolFields: []string{"active"},
			Ops:        allOps,
		},
		{
			Name: "order", Plural: "orders", Table: "orders",
			Defaults:   map[string]any{"status": "pending", "archived": false},
			Filters:    []string{"status", "archived"},
			BoolFields: []string{"archived"},
			Ops:        allOps,
		},
		{
			Name: "payment_method", Plural: "payment_methods", Table: "payment_methods",
			Defaults:   map[string]any{"active": true},
			Filters:    []string{"active"},
			BoolFields: []string{"active"},
			Ops:        allOps,
		},
		{
			Name: "theme", Plural: "themes", Table: "themes",
			Defaults:   map[string]any{"active": false},
			Filters:    []string{"active"},
			BoolFields: []string{"active"},
			Ops:        allOps,
		},
		{
			Name: "page_template", Plural: "page_templates", Table: "page_templates",
			Defaults:   map[string]any{"active": false},
			BoolFields: []string{"active"},
			Ops:        allOps,
		},
		{
			Name: "site_setting", Plural: "site_settings", Table: "site_settings",
			Ops: allOps,
		},
		{
			Name: "landing_customization", Plural: "landing_customizations", Table: "landing_customizations",
			Defaults:   map[string]any{"active": true},
			Filters:    []string{"section_name"},
			BoolFields: []string{"active"},
			Ops:        allOps,
			UpsertKey:  "section_name",
		},
	}
}

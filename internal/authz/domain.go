// Package authz decides, for a given identity, route and action, whether the
// request is allowed. Four layers feed the decision in strict order: the
// bypass table, the static open-route set, per-user overrides, and the
// role/permission catalog.
package authz

// Identity describes the authenticated actor as resolved at the application
// boundary. Classifier is the coarse identity class consulted by the bypass
// table; it is independent of the role catalog.
type Identity struct {
	UserID     int64
	Classifier string
}

// Action keys shared with the catalog generator.
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Layer names reported in logs and metrics for each decision.
const (
	LayerBypass   = "bypass"
	LayerOpen     = "open_route"
	LayerCatalog  = "catalog"
	LayerOverride = "override"
	LayerRole     = "role"
)

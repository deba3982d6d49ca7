package authz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// PageRoute is the slice of a catalog page the engine needs for route
// resolution.
type PageRoute struct {
	PageID    int64
	RoutePath string
}

// Store is the engine's read-only view of committed catalog state.
type Store interface {
	// ActiveRoutes returns the route paths of all active pages.
	ActiveRoutes(ctx context.Context) ([]PageRoute, error)
	// FindPermission resolves (page, action) to a permission id.
	FindPermission(ctx context.Context, pageID int64, actionKey string) (int64, bool, error)
	// UserOverride returns the user's explicit override for a permission,
	// if one exists.
	UserOverride(ctx context.Context, userID, permissionID int64) (allowed, found bool, err error)
	// AnyRoleAllows reports whether any of the user's roles carries an
	// affirmative grant for the permission.
	AnyRoleAllows(ctx context.Context, userID, permissionID int64) (bool, error)
}

// DecisionRecorder receives the outcome of every Authorize call.
type DecisionRecorder interface {
	Decision(outcome, layer string)
}

// Engine resolves authorization decisions. Authorize only reads committed
// state and takes no locks, so it is safe under unbounded concurrent calls.
type Engine struct {
	store    Store
	bypass   BypassTable
	open     map[string]struct{}
	logger   *slog.Logger
	recorder DecisionRecorder
}

// OpenRoutes are reachable by any authenticated identity regardless of
// catalog state.
var OpenRoutes = []string{"/", "/welcome", "/auth/login", "/auth/logout", "/healthz"}

// NewEngine builds an Engine. recorder may be nil.
func NewEngine(store Store, bypass BypassTable, logger *slog.Logger, recorder DecisionRecorder) *Engine {
	open := make(map[string]struct{}, len(OpenRoutes))
	for _, route := range OpenRoutes {
		open[route] = struct{}{}
	}
	return &Engine{store: store, bypass: bypass, open: open, logger: logger, recorder: recorder}
}

// Authorize applies the authorization layers in strict precedence order
// and short-circuits on the first decisive result. A store failure is
// returned as an error, never converted into an allow or a silent deny: the
// caller must be able to distinguish "denied" from "could not determine".
func (e *Engine) Authorize(ctx context.Context, identity Identity, route, action string) (bool, error) {
	route = normalizeRoute(route)
	action = strings.TrimSpace(strings.ToLower(action))

	// Layer 1: classifier bypass. Route-granularity only, no action concept,
	// and it wins over everything below including explicit user denials.
	if e.bypass.Allows(identity.Classifier, route) {
		return e.decide(identity, route, action, true, LayerBypass), nil
	}

	// Layer 2: statically open routes, checked before touching the store.
	if _, ok := e.open[route]; ok {
		return e.decide(identity, route, action, true, LayerOpen), nil
	}

	if identity.UserID <= 0 {
		return e.decide(identity, route, action, false, LayerCatalog), nil
	}

	// Layer 3: resolve the permission. No registered page or action means
	// deny, not error.
	permissionID, found, err := e.resolvePermission(ctx, route, action)
	if err != nil {
		return false, err
	}
	if !found {
		return e.decide(identity, route, action, false, LayerCatalog), nil
	}

	// Layer 4: explicit per-user override, in either direction.
	if allowed, found, err := e.store.UserOverride(ctx, identity.UserID, permissionID); err != nil {
		return false, fmt.Errorf("authz: user override: %w", err)
	} else if found {
		return e.decide(identity, route, action, allowed, LayerOverride), nil
	}

	// Layer 5: role aggregation. Any affirmative role wins; no roles or no
	// rows deny by default.
	allowed, err := e.store.AnyRoleAllows(ctx, identity.UserID, permissionID)
	if err != nil {
		return false, fmt.Errorf("authz: role aggregation: %w", err)
	}
	return e.decide(identity, route, action, allowed, LayerRole), nil
}

func (e *Engine) resolvePermission(ctx context.Context, route, action string) (int64, bool, error) {
	routes, err := e.store.ActiveRoutes(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("authz: active routes: %w", err)
	}

	// Longest-prefix match so nested routes fall under their registered page.
	var (
		matched   bool
		matchedID int64
		bestLen   = -1
	)
	for _, page := range routes {
		if routeHasPrefix(route, page.RoutePath) && len(page.RoutePath) > bestLen {
			matched = true
			matchedID = page.PageID
			bestLen = len(page.RoutePath)
		}
	}
	if !matched {
		return 0, false, nil
	}

	permissionID, found, err := e.store.FindPermission(ctx, matchedID, action)
	if err != nil {
		return 0, false, fmt.Errorf("authz: find permission: %w", err)
	}
	return permissionID, found, nil
}

func (e *Engine) decide(identity Identity, route, action string, allowed bool, layer string) bool {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	if e.recorder != nil {
		e.recorder.Decision(outcome, layer)
	}
	if e.logger != nil {
		e.logger.Debug("authorize",
			slog.Int64("user_id", identity.UserID),
			slog.String("classifier", identity.Classifier),
			slog.String("route", route),
			slog.String("action", action),
			slog.String("layer", layer),
			slog.String("outcome", outcome))
	}
	return allowed
}

func normalizeRoute(route string) string {
	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}

package authz

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/caseflow-app/caseflow/internal/shared"
)

// Middleware wires the decision engine into HTTP handlers.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// Require authorizes the request for the given action against the request
// path. Store failures surface as 500, never as an allow.
func (m Middleware) Require(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := m.currentIdentity(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			allowed, err := m.Engine.Authorize(r.Context(), identity, r.URL.Path, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorize", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireByMethod picks the action from the HTTP verb: GET/HEAD map to view,
// POST to add, PUT/PATCH to edit, DELETE to delete.
func (m Middleware) RequireByMethod() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var action string
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				action = ActionView
			case http.MethodPost:
				action = ActionAdd
			case http.MethodPut, http.MethodPatch:
				action = ActionEdit
			case http.MethodDelete:
				action = ActionDelete
			default:
				action = ActionView
			}
			m.Require(action)(next).ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentIdentity(r *http.Request) (Identity, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return Identity{}, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return Identity{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return Identity{}, false
	}
	return Identity{UserID: id, Classifier: sess.Classifier()}, true
}

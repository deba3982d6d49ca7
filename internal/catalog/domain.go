// Package catalog owns the page/permission catalog: the registrable surface
// of the application and the actions that may be performed on it.
package catalog

import "time"

// Page is a registrable unit of the application's navigation surface. Its
// RoutePath is the route prefix the page governs.
type Page struct {
	ID         int64
	PageKey    string
	PageName   string
	RoutePath  string
	SectionKey string
	SortOrder  int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Permission is one allowed action on one page, uniquely keyed by PermKey.
type Permission struct {
	ID        int64
	PermKey   string
	ActionKey string
	PageID    int64
	IsActive  bool
	CreatedAt time.Time
}

// PageInput carries a code-derived route entry for SyncPages.
type PageInput struct {
	PageKey    string `json:"page_key" validate:"required"`
	PageName   string `json:"page_name" validate:"required"`
	RoutePath  string `json:"route_path" validate:"required,startswith=/"`
	SectionKey string `json:"section_key"`
	SortOrder  int    `json:"sort_order"`
}

// Sync result classifications.
const (
	SyncInserted = "inserted"
	SyncUpdated  = "updated"
	SyncSkipped  = "skipped"
)

// SyncItem records the outcome for a single input of SyncPages.
type SyncItem struct {
	PageKey   string `json:"page_key"`
	RoutePath string `json:"route_path"`
	Result    string `json:"result"`
	Reason    string `json:"reason,omitempty"`
}

// SyncReport summarizes a SyncPages call.
type SyncReport struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Items    []SyncItem `json:"items"`
}

// GenerateItem records the outcome for a single (page, action) pair of
// GeneratePermissions.
type GenerateItem struct {
	PermKey string `json:"perm_key"`
	Result  string `json:"result"`
	Reason  string `json:"reason,omitempty"`
}

// Generate result classifications.
const (
	GenerateCreated = "generated"
	GenerateSkipped = "skipped"
)

// GenerateReport summarizes a GeneratePermissions call.
type GenerateReport struct {
	Generated int            `json:"generated"`
	Skipped   int            `json:"skipped"`
	Items     []GenerateItem `json:"items"`
}

// PermKey derives the unique permission key for a page/action pair. Every
// permission key in the system is composed here and nowhere else.
func PermKey(pageKey, actionKey string) string {
	return pageKey + ":" + actionKey
}

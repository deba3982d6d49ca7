// Package assignment performs the transactional bulk updates that shape who
// holds which roles and permissions.
package assignment

import "time"

// RolePermission is the grant/deny edge between a role and a permission.
// Absence of a row is "no opinion", not a deny.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	IsAllowed    bool
	GrantedAt    time.Time
}

// UserPermission is a per-user override that supersedes role-derived
// decisions in either direction.
type UserPermission struct {
	UserID       int64
	PermissionID int64
	IsAllowed    bool
	GrantedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID     int64
	RoleID     int64
	AssignedAt time.Time
}

// PermissionUpdate is one entry of a bulk grant/deny batch.
type PermissionUpdate struct {
	PermissionID int64 `json:"permission_id"`
	IsAllowed    bool  `json:"is_allowed"`
}

// Report summarizes a bulk assignment call. Skipped counts entries dropped
// for invalid ids; they are logged, not fatal.
type Report struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

package roles

import "time"

// Role is a named, reusable bundle of permission grants and denials.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package users

import "time"

// User represents a user account for management. Classifier is the coarse
// identity class evaluated by the authorization bypass table.
type User struct {
	ID         int64
	Email      string
	Name       string
	Classifier string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

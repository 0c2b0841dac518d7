package models

import "time"

// User is a registered account. PasswordDigest is a bcrypt hash and never
// leaves the server.
type User struct {
	ID             ID
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
}

package model

import "time"

// User is a registered account. Username and Email are unique.
type User struct {
	CreatedAt    time.Time
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

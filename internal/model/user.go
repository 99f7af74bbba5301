package model

import "time"

// User is an authenticated account. Projects live under users/{id}.
type User struct {
	ID           string    `json:"-"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

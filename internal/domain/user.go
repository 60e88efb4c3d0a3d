package domain

import "time"

// User is an authenticated member of the platform. Every profile and every
// uploaded photo belongs to exactly one User, referred to as the owner.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`    // Should be unique
	PasswordHash string    `json:"-" bson:"passwordHash"` // Never expose this via JSON
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

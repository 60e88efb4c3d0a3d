package repository

import (
	"alcyxob/dating-app/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	// Create assigns the user a new ID and stores it. A taken email yields ErrDuplicate.
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// ProfileRepository defines the interface for interacting with profile records.
// Profiles are keyed by owner ID and created on first write.
type ProfileRepository interface {
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Profile, error)
	// UpdateDetails writes display name and bio, leaving photos untouched.
	UpdateDetails(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error)
	// SavePhotos replaces the photo list in a single write.
	SavePhotos(ctx context.Context, ownerID string, photos domain.PhotoList) (*domain.Profile, error)
}

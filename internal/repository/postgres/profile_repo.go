package postgres

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/repository"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `owner_id, display_name, bio, photos, created_at, updated_at`

type profileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a repository.ProfileRepository over pool.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{db: pool}
}

func (r *profileRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE owner_id = $1`, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *profileRepository) UpdateDetails(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`INSERT INTO profiles (owner_id, display_name, bio)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id) DO UPDATE
		 SET display_name = EXCLUDED.display_name, bio = EXCLUDED.bio
		 RETURNING `+profileColumns,
		ownerID, displayName, bio))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (r *profileRepository) SavePhotos(ctx context.Context, ownerID string, photos domain.PhotoList) (*domain.Profile, error) {
	if photos == nil {
		photos = domain.PhotoList{}
	}
	p, err := scanProfile(r.db.QueryRow(ctx,
		`INSERT INTO profiles (owner_id, photos)
		 VALUES ($1, $2)
		 ON CONFLICT (owner_id) DO UPDATE SET photos = EXCLUDED.photos
		 RETURNING `+profileColumns,
		ownerID, []string(photos)))
	if err != nil {
		return nil, fmt.Errorf("save photos: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	p := &domain.Profile{}
	var photos []string
	if err := row.Scan(&p.OwnerID, &p.DisplayName, &p.Bio, &photos, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Photos = domain.PhotoList(photos)
	if p.Photos == nil {
		p.Photos = domain.PhotoList{}
	}
	return p, nil
}

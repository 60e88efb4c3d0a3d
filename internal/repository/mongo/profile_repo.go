package mongo

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const profileCollectionName = "profiles"

// mongoProfileRepository implements repository.ProfileRepository.
// Documents are keyed by owner ID.
type mongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new Profile repository backed by MongoDB.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		collection: db.Collection(profileCollectionName),
	}
}

// GetByOwnerID retrieves the profile of an owner.
func (r *mongoProfileRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateDetails sets display name and bio, creating the profile if needed.
func (r *mongoProfileRepository) UpdateDetails(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"displayName": displayName,
			"bio":         bio,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"photos":    domain.PhotoList{},
			"createdAt": now,
		},
	}
	return r.upsert(ctx, ownerID, update)
}

// SavePhotos replaces the photo list, creating the profile if needed.
func (r *mongoProfileRepository) SavePhotos(ctx context.Context, ownerID string, photos domain.PhotoList) (*domain.Profile, error) {
	if photos == nil {
		photos = domain.PhotoList{}
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"photos":    photos,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"displayName": "",
			"bio":         "",
			"createdAt":   now,
		},
	}
	return r.upsert(ctx, ownerID, update)
}

func (r *mongoProfileRepository) upsert(ctx context.Context, ownerID string, update bson.M) (*domain.Profile, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var profile domain.Profile
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": ownerID}, update, opts).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

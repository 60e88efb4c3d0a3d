package service

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/ratelimit"
	"alcyxob/dating-app/internal/repository"
	"alcyxob/dating-app/internal/sanitize"
	"alcyxob/dating-app/internal/storage"
	"alcyxob/dating-app/internal/upload"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// --- Error Definitions ---
var (
	ErrEmptyBatch           = errors.New("no files selected")
	ErrTooManyPhotos        = errors.New("too many photos")
	ErrProfileSaveFailed    = errors.New("photos uploaded but the profile could not be saved")
	ErrUploadInProgress     = errors.New("another photo operation is in progress for this profile")
	ErrPhotoIndexOutOfRange = errors.New("photo index out of range")
	ErrStorageUnavailable   = errors.New("photo storage is currently not writable")
	ErrRateLimited          = errors.New("upload limit reached, try again later")
)

// Uploader runs a batch of files through validation, write and verification.
type Uploader interface {
	Run(ctx context.Context, ownerID string, files []domain.UploadFile, progress upload.ProgressFunc) []domain.UploadOutcome
}

// HealthReader exposes the latest storage health verdict.
type HealthReader interface {
	Snapshot() domain.StorageHealth
}

type PhotoService interface {
	GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error)

	// UploadPhotos uploads files and appends the successful URLs to the
	// owner's profile. The result is returned even when the error is
	// ErrProfileSaveFailed.
	UploadPhotos(ctx context.Context, ownerID string, files []domain.UploadFile, progress upload.ProgressFunc) (*domain.BatchResult, error)
	RemovePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error)
	PromotePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error)
}

// PhotoServiceConfig wires the photo service.
type PhotoServiceConfig struct {
	Profiles  repository.ProfileRepository
	Uploader  Uploader
	Store     storage.ObjectStore // used to delete removed photos; may be nil
	Health    HealthReader        // may be nil
	Limiter   *ratelimit.Limiter  // may be nil
	Sanitizer sanitize.Sanitizer
	MaxPhotos int
	Logger    zerolog.Logger
}

type photoService struct {
	profiles  repository.ProfileRepository
	uploader  Uploader
	store     storage.ObjectStore
	health    HealthReader
	limiter   *ratelimit.Limiter
	text      sanitize.Sanitizer
	maxPhotos int
	locks     *ownerLocks
	now       func() time.Time
	log       zerolog.Logger
}

// NewPhotoService creates a new instance of PhotoService.
func NewPhotoService(cfg PhotoServiceConfig) PhotoService {
	if cfg.Profiles == nil || cfg.Uploader == nil {
		panic("photo service requires a profile repository and an uploader")
	}
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = domain.DefaultMaxPhotos
	}
	if cfg.Sanitizer == nil {
		cfg.Sanitizer = sanitize.New(500)
	}
	return &photoService{
		profiles:  cfg.Profiles,
		uploader:  cfg.Uploader,
		store:     cfg.Store,
		health:    cfg.Health,
		limiter:   cfg.Limiter,
		text:      cfg.Sanitizer,
		maxPhotos: cfg.MaxPhotos,
		locks:     newOwnerLocks(),
		now:       time.Now,
		log:       cfg.Logger.With().Str("component", "photos").Logger(),
	}
}

// GetProfile returns the owner's profile, or an empty one if none was saved yet.
func (s *photoService) GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByOwnerID(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Profile{OwnerID: ownerID, Photos: domain.PhotoList{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile stores sanitized display name and bio.
func (s *photoService) UpdateProfile(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error) {
	return s.profiles.UpdateDetails(ctx, ownerID, s.text.Text(displayName), s.text.Text(bio))
}

func (s *photoService) UploadPhotos(ctx context.Context, ownerID string, files []domain.UploadFile, progress upload.ProgressFunc) (*domain.BatchResult, error) {
	// 1. Basic input validation
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	// 2. One photo operation per owner at a time
	if !s.locks.TryAcquire(ownerID) {
		return nil, ErrUploadInProgress
	}
	defer s.locks.Release(ownerID)

	// 3. Check the batch fits the profile
	profile, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(profile.Photos)+len(files) > s.maxPhotos {
		return nil, fmt.Errorf("%w: profile has %d of %d, %d selected",
			ErrTooManyPhotos, len(profile.Photos), s.maxPhotos, len(files))
	}
	// 4. Refuse early when the last probe found storage unwritable.
	// A probe that has not run yet does not block uploads.
	if s.health != nil {
		if h := s.health.Snapshot(); h.Checked() && !h.CanWrite {
			return nil, ErrStorageUnavailable
		}
	}
	reservation, err := s.limiter.Reserve(ownerID, len(files))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	// 5. Run the pipeline; files succeed or fail independently
	outcomes := s.uploader.Run(ctx, ownerID, files, progress)

	result := &domain.BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Succeeded() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	s.limiter.Release(reservation, result.Failed) // failed files do not count against the owner
	result.Photos = profile.Photos

	// 6. Append the new URLs to the profile
	urls := result.SuccessfulURLs()
	if len(urls) > 0 {
		photos := profile.Photos.Append(s.maxPhotos, urls...)
		saved, err := s.profiles.SavePhotos(ctx, ownerID, photos)
		if err != nil {
			result.ProfileSaveFailed = true
			result.CompletedAt = s.now()
			s.log.Error().Err(err).Str("owner", ownerID).Strs("urls", urls).Msg("saving uploaded photos failed")
			return result, fmt.Errorf("%w: %v", ErrProfileSaveFailed, err)
		}
		result.Photos = saved.Photos
	}
	result.CompletedAt = s.now()

	s.log.Info().Str("owner", ownerID).Int("succeeded", result.Succeeded).Int("failed", result.Failed).Msg("upload batch finished")
	return result, nil
}

// RemovePhoto drops the photo at index. The stored object is deleted on a
// best-effort basis after the profile is saved.
func (s *photoService) RemovePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	if !s.locks.TryAcquire(ownerID) {
		return nil, ErrUploadInProgress
	}
	defer s.locks.Release(ownerID)

	profile, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	photos, err := profile.Photos.RemoveAt(index)
	if err != nil {
		return nil, ErrPhotoIndexOutOfRange
	}
	removed := profile.Photos[index]

	saved, err := s.profiles.SavePhotos(ctx, ownerID, photos)
	if err != nil {
		return nil, fmt.Errorf("remove photo: %w", err)
	}
	s.deleteObject(ctx, ownerID, removed)
	return saved, nil
}

// PromotePhoto makes the photo at index the primary one. Index 0 is a no-op.
func (s *photoService) PromotePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	if !s.locks.TryAcquire(ownerID) {
		return nil, ErrUploadInProgress
	}
	defer s.locks.Release(ownerID)

	profile, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	photos, err := profile.Photos.Promote(index)
	if err != nil {
		return nil, ErrPhotoIndexOutOfRange
	}
	if index == 0 {
		return profile, nil
	}

	saved, err := s.profiles.SavePhotos(ctx, ownerID, photos)
	if err != nil {
		return nil, fmt.Errorf("promote photo: %w", err)
	}
	return saved, nil
}

func (s *photoService) deleteObject(ctx context.Context, ownerID, url string) {
	if s.store == nil {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok || !strings.HasPrefix(key, ownerID+"/") {
		s.log.Debug().Str("owner", ownerID).Str("url", url).Msg("removed photo is not an owned object, keeping it")
		return
	}
	if err := s.store.DeleteObjects(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("owner", ownerID).Str("key", key).Msg("deleting removed photo failed")
	}
}

package main

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/upload"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommandMemoryBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"health", "--config", dir, "--owner", "cli"})
	require.NoError(t, cmd.Execute())

	var h domain.StorageHealth
	require.NoError(t, json.Unmarshal(out.Bytes(), &h))
	assert.True(t, h.BucketExists)
	assert.True(t, h.CanRead)
	assert.True(t, h.CanWrite)
	assert.True(t, h.Checked())
}

func TestUploadCommandRequiresOwner(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"upload", "photo.jpg"})
	assert.Error(t, cmd.Execute())
}

type stubPhotoService struct {
	got []domain.UploadFile
}

func (s *stubPhotoService) GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	return nil, nil
}

func (s *stubPhotoService) UpdateProfile(ctx context.Context, ownerID, displayName, bio string) (*domain.Profile, error) {
	return nil, nil
}

func (s *stubPhotoService) UploadPhotos(ctx context.Context, ownerID string, files []domain.UploadFile, progress upload.ProgressFunc) (*domain.BatchResult, error) {
	s.got = files
	res := &domain.BatchResult{}
	for i := range files {
		progress(i, domain.StateSucceeded)
		res.Outcomes = append(res.Outcomes, domain.UploadOutcome{Index: i, State: domain.StateSucceeded})
		res.Succeeded++
	}
	return res, nil
}

func (s *stubPhotoService) RemovePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	return nil, nil
}

func (s *stubPhotoService) PromotePhoto(ctx context.Context, ownerID string, index int) (*domain.Profile, error) {
	return nil, nil
}

func TestRunUploadDetectsContentType(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "me.png")
	// PNG signature followed by an IHDR chunk header is enough for sniffing.
	require.NoError(t, os.WriteFile(pngPath, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	svc := &stubPhotoService{}
	var out, progress bytes.Buffer
	require.NoError(t, runUpload(context.Background(), svc, "u1", []string{pngPath}, &out, &progress))

	require.Len(t, svc.got, 1)
	assert.Equal(t, "me.png", svc.got[0].Name)
	assert.Equal(t, "image/png", svc.got[0].ContentType)
	assert.Contains(t, progress.String(), "me.png: succeeded")

	var res domain.BatchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.Succeeded)
}

func TestRunUploadMissingFile(t *testing.T) {
	err := runUpload(context.Background(), &stubPhotoService{}, "u1", []string{"/does/not/exist.jpg"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

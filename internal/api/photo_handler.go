package api

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/service"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PhotoHandler serves the photo upload, remove and promote endpoints.
type PhotoHandler struct {
	photoService service.PhotoService
	maxFileSize  int64
	log          zerolog.Logger
}

func NewPhotoHandler(photoService service.PhotoService, maxFileSize int64, log zerolog.Logger) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, maxFileSize: maxFileSize, log: log}
}

// UploadPhotos godoc
// @Summary Upload profile photos
// @Description Uploads the files in the multipart field "files[]" and appends them to the profile.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.BatchResult "All files uploaded"
// @Success 207 {object} domain.BatchResult "Some files failed"
// @Failure 422 {object} domain.BatchResult "All files failed"
// @Failure 500 {object} domain.BatchResult "Uploaded but profile not saved"
// @Router /profile/photos [post]
func (h *PhotoHandler) UploadPhotos(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	// 1. Parse the multipart form; browsers send the picker's files as files[]
	form, err := c.MultipartForm()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
		return
	}
	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}

	// 2. Read each part into memory, capped just above the size ceiling
	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := h.readFile(fh)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Could not read %q: %v", fh.Filename, err))
			return
		}
		files = append(files, f)
	}

	// 3. Hand the batch to the PhotoService
	result, err := h.photoService.UploadPhotos(c.Request.Context(), ownerID, files, nil)
	if err != nil {
		// Photos landed but the profile write failed: return the outcomes anyway
		if errors.Is(err, service.ErrProfileSaveFailed) && result != nil {
			c.JSON(http.StatusInternalServerError, result)
			return
		}
		abortWithError(c, statusForPhotoError(err), err.Error())
		return
	}

	// 4. Pick the status from the per-file outcomes
	status := http.StatusOK
	switch {
	case result.Succeeded == 0:
		status = http.StatusUnprocessableEntity
	case result.Failed > 0:
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// readFile loads at most maxFileSize+1 bytes so oversized uploads are still
// reported by size instead of being buffered whole.
func (h *PhotoHandler) readFile(fh *multipart.FileHeader) (domain.UploadFile, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.UploadFile{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		return domain.UploadFile{}, err
	}
	return domain.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Data:        data,
	}, nil
}

// RemovePhoto godoc
// @Summary Remove a profile photo
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param index path int true "Photo position"
// @Success 200 {object} ProfileResponse
// @Router /profile/photos/{index} [delete]
func (h *PhotoHandler) RemovePhoto(c *gin.Context) {
	h.updateAt(c, h.photoService.RemovePhoto)
}

// PromotePhoto godoc
// @Summary Make a photo the primary one
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param index path int true "Photo position"
// @Success 200 {object} ProfileResponse
// @Router /profile/photos/{index}/primary [post]
func (h *PhotoHandler) PromotePhoto(c *gin.Context) {
	h.updateAt(c, h.photoService.PromotePhoto)
}

func (h *PhotoHandler) updateAt(c *gin.Context, op func(ctx context.Context, ownerID string, index int) (*domain.Profile, error)) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Photo index must be a number.")
		return
	}

	profile, err := op(c.Request.Context(), ownerID, index)
	if err != nil {
		status := statusForPhotoError(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("owner", ownerID).Int("index", index).Msg("photo update failed")
		}
		abortWithError(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"alcyxob/dating-app/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const bytesPerMB = 1024 * 1024

// checkType rejects content types outside the allow-list.
func (p *Pipeline) checkType(f domain.UploadFile) error {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if _, ok := p.allowed[ct]; !ok {
		return fmt.Errorf("%w: %q is not one of %s", ErrInvalidFileType, f.ContentType, strings.Join(p.cfg.AllowedTypes, ", "))
	}
	return nil
}

// checkSize rejects files above the ceiling. The larger of the declared size
// and the payload length counts.
func (p *Pipeline) checkSize(f domain.UploadFile) error {
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	if size > p.cfg.MaxFileSize {
		return fmt.Errorf("%w: file is %.1fMB, maximum is %.1fMB",
			ErrFileTooLarge, float64(size)/bytesPerMB, float64(p.cfg.MaxFileSize)/bytesPerMB)
	}
	return nil
}

// checkImage sniffs and decodes the payload.
func checkImage(data []byte) error {
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("%w: content looks like %s", ErrCorruptImage, detected.String())
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	return nil
}

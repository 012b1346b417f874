package assets

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"couponhub/internal/apperrors"
)

var allowedImages = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Policy restricts what an upload may contain.
type Policy struct {
	MaxFileSize int64
	MaxFiles    int
}

// Check validates extension, sniffed mimetype and size, and records the
// detected content type on the upload.
func (p Policy) Check(u *Upload) error {
	want, ok := allowedImages[u.Ext()]
	if !ok {
		return apperrors.Validation("Only image files (jpeg, jpg, png, gif, webp) are allowed: %s", u.Filename)
	}
	if p.MaxFileSize > 0 && u.Size > p.MaxFileSize {
		return apperrors.Validation("File %s exceeds the %dMB limit", u.Filename, p.MaxFileSize/(1024*1024))
	}

	r, err := u.Open()
	if err != nil {
		return apperrors.Unexpected(err, fmt.Sprintf("could not read upload %s", u.Filename))
	}
	defer r.Close()

	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return apperrors.Unexpected(err, fmt.Sprintf("could not inspect upload %s", u.Filename))
	}
	if !detected.Is(want) {
		return apperrors.Validation("File %s is not a valid image (detected %s)", u.Filename, detected.String())
	}
	u.ContentType = want
	return nil
}

// CheckAll validates a batch of uploads including the file count.
func (p Policy) CheckAll(uploads []Upload) error {
	if p.MaxFiles > 0 && len(uploads) > p.MaxFiles {
		return apperrors.Validation("At most %d files may be uploaded", p.MaxFiles)
	}
	for i := range uploads {
		if err := p.Check(&uploads[i]); err != nil {
			return err
		}
	}
	return nil
}

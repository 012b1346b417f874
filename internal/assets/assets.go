// Package assets stores uploaded images and tracks them for cleanup.
//
// Documents never hold binary content: they reference assets by the path
// string returned from Store.Save, e.g. "/uploads/logos/logos-V1StGXR8_Z5jdHi6B-myT.png".
package assets

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/jaevor/go-nanoid"
)

// Folders used by the catalog.
const (
	FolderLogos    = "logos"
	FolderProducts = "products"
)

// Store persists uploads and removes them by reference.
type Store interface {
	Save(ctx context.Context, folder string, upload Upload) (string, error)
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
}

// Upload is a client file that has not been persisted yet.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	open        func() (io.ReadCloser, error)
}

// FromFileHeader wraps a multipart file part.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromBytes wraps in-memory content.
func FromBytes(filename string, data []byte) Upload {
	return Upload{
		Filename: filename,
		Size:     int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the upload content.
func (u Upload) Open() (io.ReadCloser, error) {
	return u.open()
}

// Ext returns the lowercased file extension including the dot.
func (u Upload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Filename))
}

var newID = mustNanoID(21)

func mustNanoID(size int) func() string {
	gen, err := nanoid.Standard(size)
	if err != nil {
		panic(err)
	}
	return gen
}

// objectName builds a unique object name inside folder.
func objectName(folder string, u Upload) string {
	return folder + "/" + folder + "-" + newID() + u.Ext()
}

package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore keeps assets in a directory that is served statically under
// urlPrefix.
type LocalStore struct {
	fs     afero.Fs
	prefix string
}

// NewLocalStore roots a store at dir on the OS filesystem.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", dir, err)
	}
	return NewLocalStoreFs(afero.NewBasePathFs(afero.NewOsFs(), dir), urlPrefix), nil
}

// NewLocalStoreFs builds a store over any afero filesystem.
func NewLocalStoreFs(fs afero.Fs, urlPrefix string) *LocalStore {
	return &LocalStore{fs: fs, prefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStore) Save(_ context.Context, folder string, upload Upload) (string, error) {
	name := objectName(folder, upload)
	if err := s.fs.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	src, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", upload.Filename, err)
	}
	defer src.Close()

	dst, err := s.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create asset %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("failed to close asset %s: %w", name, err)
	}
	return s.prefix + "/" + name, nil
}

// Delete removes the asset. Missing assets are not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	key, err := s.key(ref)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset %s: %w", ref, err)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, ref string) (bool, error) {
	key, err := s.key(ref)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, key)
}

// key maps a reference back to a path inside the store, refusing anything
// that would escape it.
func (s *LocalStore) key(ref string) (string, error) {
	if !strings.HasPrefix(ref, s.prefix+"/") {
		return "", fmt.Errorf("asset %q is not under %s", ref, s.prefix)
	}
	key := path.Clean(strings.TrimPrefix(ref, s.prefix+"/"))
	if key == "." || strings.HasPrefix(key, "..") || path.IsAbs(key) {
		return "", fmt.Errorf("invalid asset reference %q", ref)
	}
	return key, nil
}

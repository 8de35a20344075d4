package service

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// photoExtensions are tried in order when resolving a photo id.
var photoExtensions = []struct {
	ext         string
	contentType string
}{
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".png", "image/png"},
	{".webp", "image/webp"},
}

// Asset is an opened protected file. The caller must close File.
type Asset struct {
	Name        string
	ContentType string
	Size        int64
	File        *os.File
}

// Close closes the underlying file.
func (a *Asset) Close() error {
	return a.File.Close()
}

// AssetService serves photos from a single directory.
//
// Lookups go through an os.Root, so no id can reach outside the directory
// even through symlinks.
type AssetService struct {
	dir string
}

// NewAssetService creates an AssetService rooted at dir. An empty dir
// disables photo lookup: every Open reports not found.
func NewAssetService(dir string) *AssetService {
	return &AssetService{dir: dir}
}

// Dir returns the photo directory.
func (s *AssetService) Dir() string {
	return s.dir
}

// SanitizeID drops every byte outside [0-9A-Za-z_-].
func SanitizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '-':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Open sanitizes id and opens the first matching photo.
//
// It returns domain.ErrMissingArgument when nothing is left of id and
// domain.ErrAssetNotFound when no file matches.
func (s *AssetService) Open(id string) (*Asset, error) {
	safe := SanitizeID(id)
	if safe == "" {
		return nil, domain.ErrMissingArgument.WithMessage("Missing id")
	}
	if s.dir == "" {
		return nil, domain.ErrAssetNotFound
	}

	root, err := os.OpenRoot(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, domain.ErrInternal.WithCause(err)
	}
	defer root.Close()

	for _, candidate := range photoExtensions {
		name := safe + candidate.ext
		f, err := root.Open(name)
		if err != nil {
			continue
		}

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			f.Close()
			continue
		}

		return &Asset{
			Name:        name,
			ContentType: candidate.contentType,
			Size:        info.Size(),
			File:        f,
		}, nil
	}

	return nil, domain.ErrAssetNotFound
}

package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedMedia is returned when an upload is not an image or a video.
var ErrUnsupportedMedia = errors.New("unsupported media type")

type MediaStore interface {
	// StoreMedia saves the bytes and returns the URL path the asset is
	// served under. The suggested name only contributes its extension; the
	// stored name is generated to avoid collisions and path traversal.
	StoreMedia(r io.Reader, suggestedName string) (string, error)
}

// DiskMediaStore writes uploads to a local directory. Stored files are named
// by a fresh UUID plus the media type's canonical extension, and served under
// urlPrefix.
type DiskMediaStore struct {
	dir       string
	urlPrefix string
}

func NewDiskMediaStore(dir, urlPrefix string) (*DiskMediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &DiskMediaStore{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *DiskMediaStore) StoreMedia(r io.Reader, suggestedName string) (string, error) {
	// Sniff the content type from the first bytes rather than trusting the
	// client-provided name.
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading media header: %w", err)
	}
	header = header[:n]

	mtype := mimetype.Detect(header)
	if !isAllowedMedia(mtype) {
		return "", ErrUnsupportedMedia
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(suggestedName))
	}
	name := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

func isAllowedMedia(mtype *mimetype.MIME) bool {
	m := mtype.String()
	return strings.HasPrefix(m, "image/") || strings.HasPrefix(m, "video/")
}

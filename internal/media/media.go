// Package media holds the file-like image values shared by the gallery,
// camera capture and upload paths.
package media

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotImage is returned when a file's content is not an image.
var ErrNotImage = errors.New("not an image")

// File is an in-memory image ready for preview and upload.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the payload length in bytes.
func (f File) Size() int { return len(f.Data) }

// IsImage reports whether the media type is image/*.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// FromBytes builds a File, sniffing the media type from content.
func FromBytes(name string, data []byte) File {
	return File{
		Name:      name,
		MediaType: DetectType(name, data),
		Data:      data,
	}
}

// Load reads path and rejects anything that is not an image.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	f := FromBytes(filepath.Base(path), data)
	if !f.IsImage() {
		return File{}, fmt.Errorf("%s (%s): %w", f.Name, f.MediaType, ErrNotImage)
	}
	return f, nil
}

// DetectType sniffs content first and falls back to the extension.
func DetectType(name string, data []byte) string {
	if len(data) > 0 {
		ct := http.DetectContentType(data)
		if ct != "application/octet-stream" {
			return strings.TrimSpace(strings.Split(ct, ";")[0])
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	}
	return "application/octet-stream"
}

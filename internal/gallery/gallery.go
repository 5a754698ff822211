// Package gallery finds image files on disk for the picker.
package gallery

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sahilm/fuzzy"
)

// Pattern matches the image types the backend accepts.
const Pattern = "**/*.{jpg,jpeg,png,gif,webp,bmp,JPG,JPEG,PNG,GIF,WEBP,BMP}"

// MaxItems caps a scan so huge trees stay responsive.
const MaxItems = 2000

var errStop = errors.New("stop")

// Item is one image found under a root.
type Item struct {
	Path    string
	RelPath string
	Size    int64
}

// Items implements fuzzy.Source.
type Items []Item

func (it Items) String(i int) string { return it[i].RelPath }
func (it Items) Len() int            { return len(it) }

// Scan lists images under root, skipping hidden directories and common noise.
func Scan(root string) (Items, error) {
	fsys := os.DirFS(root)
	var items Items

	err := doublestar.GlobWalk(fsys, Pattern, func(path string, d fs.DirEntry) error {
		if hidden(path) || d.IsDir() {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		items = append(items, Item{
			Path:    filepath.Join(root, filepath.FromSlash(path)),
			RelPath: path,
			Size:    size,
		})
		if len(items) >= MaxItems {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].RelPath < items[j].RelPath })
	return items, nil
}

func hidden(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
		switch seg {
		case "node_modules", "vendor", "__pycache__":
			return true
		}
	}
	return false
}

// Filter fuzzy-matches query against relative paths, best match first.
func Filter(items Items, query string) Items {
	if query == "" {
		return items
	}
	matches := fuzzy.FindFrom(query, items)
	out := make(Items, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

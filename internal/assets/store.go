package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// RootFolder is the default top-level folder for catalog assets.
const RootFolder = "WebCatalog(DO NOT EDIT)"

// ErrNotConfigured is returned when no backing store has been configured.
var ErrNotConfigured = errors.New("assets: store not configured")

// File is a single upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Target places uploads in the folder tree. Items live under
// root/[parent]/[category]; category images live directly under root.
type Target struct {
	Root     string
	Parent   string
	Category string
	ItemName string
}

// Folders returns the folder chain from the root down, skipping empty levels.
func (t Target) Folders() []string {
	root := t.Root
	if root == "" {
		root = RootFolder
	}
	out := []string{root}
	for _, name := range []string{t.Parent, t.Category} {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Path renders the folder chain joined by slashes.
func (t Target) Path() string {
	return strings.Join(t.Folders(), "/")
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// FileName builds the stored name for the n-th upload (1-based). When an item
// name is set the result is {itemName}_{n}{ext}; otherwise the original name is kept.
func (t Target) FileName(original string, n int) string {
	ext := strings.ToLower(path.Ext(original))
	base := strings.TrimSpace(t.ItemName)
	if base == "" {
		base = strings.TrimSuffix(path.Base(original), path.Ext(original))
	}
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "image"
	}
	if t.ItemName == "" {
		return base + ext
	}
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// DeleteSummary reports the outcome of a bulk delete.
type DeleteSummary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// Store uploads and deletes publicly readable files.
type Store interface {
	Upload(ctx context.Context, files []File, target Target) ([]string, error)
	Delete(ctx context.Context, urls []string) DeleteSummary
}

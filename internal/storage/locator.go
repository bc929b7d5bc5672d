// Package storage implements the blob storage collaborator: locator parsing,
// delete-by-key, and conditional cleanup that spares platform defaults.
package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// publicObjectPrefix is the API prefix of publicly served objects; it is
// stripped before the storage path is decomposed.
const publicObjectPrefix = "storage/v1/object/public"

// Locator is a stored object's URL decomposed into its storage coordinates.
type Locator struct {
	Origin     string   // scheme://host
	Segments   []string // path segments after the public object prefix
	MainFolder string
	SubFolder  string // empty for two-segment paths
	FileName   string
	FileStem   string
	FileExt    string // without the leading dot
	Key        string // composed storage key: main[/sub]/file
}

// ParseLocator decomposes a fully qualified storage URL. The storage path must
// consist of exactly two or three non-empty segments (main folder, optional
// sub folder, file name) or a structural error is returned.
func ParseLocator(raw string) (*Locator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("locator %q is not a fully qualified URL", raw)
	}

	trimmed := strings.Trim(u.Path, "/")
	trimmed = strings.TrimPrefix(trimmed, publicObjectPrefix+"/")

	segments := make([]string, 0, 3)
	for _, s := range strings.Split(trimmed, "/") {
		if s == "" {
			return nil, fmt.Errorf("locator %q contains an empty path segment", raw)
		}
		segments = append(segments, s)
	}
	if len(segments) < 2 || len(segments) > 3 {
		return nil, fmt.Errorf("locator %q: storage path must have two or three segments, got %d", raw, len(segments))
	}

	loc := &Locator{
		Origin:     u.Scheme + "://" + u.Host,
		Segments:   segments,
		MainFolder: segments[0],
		FileName:   segments[len(segments)-1],
		Key:        strings.Join(segments, "/"),
	}
	if len(segments) == 3 {
		loc.SubFolder = segments[1]
	}

	ext := path.Ext(loc.FileName)
	loc.FileStem = strings.TrimSuffix(loc.FileName, ext)
	loc.FileExt = strings.TrimPrefix(ext, ".")

	return loc, nil
}

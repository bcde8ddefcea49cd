// Package docpath parses slash-separated document store paths. A path with
// an odd number of segments names a collection ("rooms"), an even number
// names a document ("rooms/r1"), and nesting alternates between the two
// ("rooms/r1/callerCandidates").
package docpath

import (
	"strings"

	"github.com/dmitrijs2005/ttychat/internal/common"
)

func segments(path string) ([]string, error) {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return nil, common.ErrorInvalidPath
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return nil, common.ErrorInvalidPath
		}
	}
	return parts, nil
}

// IsDocument reports whether path names a document.
func IsDocument(path string) bool {
	parts, err := segments(path)
	return err == nil && len(parts)%2 == 0
}

// IsCollection reports whether path names a collection.
func IsCollection(path string) bool {
	parts, err := segments(path)
	return err == nil && len(parts)%2 == 1
}

// Split returns the parent collection and the id of a document path.
func Split(path string) (collection, id string, err error) {
	parts, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(parts)%2 != 0 {
		return "", "", common.ErrorInvalidPath
	}
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1], nil
}

// Join concatenates segments with slashes.
func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

package docstore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	pathSeparator    = "/"
	maxSegmentLength = 190
	maxPathLength    = 1024
)

// ErrInvalidPath indicates that a key path or one of its segments is empty or malformed.
var ErrInvalidPath = errors.New("docstore: invalid path")

// Path is a validated key path made of non-empty segments joined by "/".
type Path string

// NewPath validates the segments and joins them into a Path.
func NewPath(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: no segments", ErrInvalidPath)
	}
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			return "", fmt.Errorf("%w: empty segment", ErrInvalidPath)
		}
		if strings.Contains(trimmed, pathSeparator) {
			return "", fmt.Errorf("%w: segment %q contains %q", ErrInvalidPath, trimmed, pathSeparator)
		}
		if len(trimmed) > maxSegmentLength {
			return "", fmt.Errorf("%w: segment exceeds %d characters", ErrInvalidPath, maxSegmentLength)
		}
		cleaned = append(cleaned, trimmed)
	}
	joined := strings.Join(cleaned, pathSeparator)
	if len(joined) > maxPathLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPath, maxPathLength)
	}
	return Path(joined), nil
}

// MustPath is NewPath for segments known to be valid. It panics otherwise.
func MustPath(segments ...string) Path {
	path, err := NewPath(segments...)
	if err != nil {
		panic(err)
	}
	return path
}

// Child appends segments to the path.
func (path Path) Child(segments ...string) (Path, error) {
	return NewPath(append(path.Segments(), segments...)...)
}

// Segments splits the path into its segments.
func (path Path) Segments() []string {
	if path == "" {
		return nil
	}
	return strings.Split(string(path), pathSeparator)
}

// RelativeTo returns the segments of path below prefix, or false when path is not a descendant.
func (path Path) RelativeTo(prefix Path) ([]string, bool) {
	base := string(prefix) + pathSeparator
	if !strings.HasPrefix(string(path), base) {
		return nil, false
	}
	return strings.Split(strings.TrimPrefix(string(path), base), pathSeparator), true
}

// String returns the joined path.
func (path Path) String() string {
	return string(path)
}

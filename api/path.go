package api

import (
	"errors"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned by Extract when a step cannot be resolved.
var ErrPathNotFound = errors.New("path not found")

// Step is one descent in a Path: by object key or by array index.
type Step struct {
	key     string
	index   int
	byIndex bool
}

// Key descends into an object member.
func Key(name string) Step {
	return Step{key: name}
}

// Index descends into an array element.
func Index(i int) Step {
	return Step{index: i, byIndex: true}
}

func (s Step) String() string {
	if s.byIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path locates a node inside a decoded JSON tree.
type Path []Step

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ParsePath parses a dot-separated path. Segments made only of digits are
// array indices, everything else is an object key. An empty string is the
// empty path (the root).
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	segments := strings.Split(s, ".")
	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && seg == strconv.Itoa(i) {
			path = append(path, Index(i))
			continue
		}
		path = append(path, Key(seg))
	}
	return path
}

// Extract walks path from root and returns the node it ends at. root is a tree
// as produced by encoding/json: map[string]any for objects and []any for
// arrays. The tree is neither copied nor modified.
func Extract(root any, path Path) (any, error) {
	node := root
	for _, step := range path {
		if step.byIndex {
			arr, ok := node.([]any)
			if !ok || step.index < 0 || step.index >= len(arr) {
				return nil, ErrPathNotFound
			}
			node = arr[step.index]
			continue
		}

		obj, ok := node.(map[string]any)
		if !ok {
			return nil, ErrPathNotFound
		}
		child, ok := obj[step.key]
		if !ok {
			return nil, ErrPathNotFound
		}
		node = child
	}
	return node, nil
}

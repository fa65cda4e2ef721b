package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidPath is returned when a mount path does not start with "/".
var ErrInvalidPath = errors.New("path must start with /")

// Resource is a node of the path tree requests are routed through. Each
// node has at most one child per path segment and at most one handler.
type Resource struct {
	children map[string]*Resource
	leaf     http.Handler
}

func NewResource() *Resource {
	return &Resource{children: make(map[string]*Resource)}
}

// Child returns the child registered under segment.
func (r *Resource) Child(segment string) (*Resource, bool) {
	c, ok := r.children[segment]
	return c, ok
}

// PutChild registers child under segment, replacing any previous one.
func (r *Resource) PutChild(segment string, child *Resource) {
	if r.children == nil {
		r.children = make(map[string]*Resource)
	}
	r.children[segment] = child
}

// Handler returns the handler attached to this node, if any.
func (r *Resource) Handler() http.Handler {
	return r.leaf
}

func (r *Resource) getOrCreate(segment string) *Resource {
	if c, ok := r.Child(segment); ok {
		return c
	}
	c := NewResource()
	r.PutChild(segment, c)
	return c
}

// Mount attaches h at path below root. Missing intermediate nodes are
// created, existing ones reused, and a handler already at path is replaced.
func Mount(root *Resource, path string, h http.Handler) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("mount %q: %w", path, ErrInvalidPath)
	}
	segments := strings.Split(path, "/")[1:]

	parent := root
	for _, seg := range segments[:len(segments)-1] {
		parent = parent.getOrCreate(seg)
	}
	parent.getOrCreate(segments[len(segments)-1]).leaf = h
	return nil
}

// Lookup walks path from r and returns the node it ends on.
func (r *Resource) Lookup(path string) (*Resource, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	node := r
	for _, seg := range strings.Split(path, "/")[1:] {
		child, ok := node.Child(seg)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

func (r *Resource) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	node, ok := r.Lookup(req.URL.Path)
	if !ok || node.leaf == nil {
		http.NotFound(w, req)
		return
	}
	node.leaf.ServeHTTP(w, req)
}

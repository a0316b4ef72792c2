package tree

import (
	"fmt"
	"strings"
)

// NodeType represents the type of node in the route tree
type NodeType uint8

const (
	Static   NodeType = iota // static route segment
	Param                    // :param - matches a single segment
	Wildcard                 // *wildcard - matches everything after
)

// Node represents a node in the route tree
type Node[V any] struct {
	// The path segment this node represents
	Path string

	// Type of node (static, param, wildcard)
	NType NodeType

	// The full pattern if this node ends a route
	Pattern string

	// Value registered for this pattern, if any
	Value V
	set   bool

	// Child nodes
	Children []*Node[V]

	// Parameter name if this is a param or wildcard node
	ParamName string
}

// Match is the result of a successful lookup
type Match[V any] struct {
	Value   V
	Pattern string
	Params  map[string]string
}

// Tree manages one route tree per HTTP method
type Tree[V any] struct {
	roots map[string]*Node[V]
}

// New creates a new Tree instance
func New[V any]() *Tree[V] {
	return &Tree[V]{
		roots: make(map[string]*Node[V]),
	}
}

// Add registers value under method and path
func (t *Tree[V]) Add(method, path string, value V) error {
	if len(path) == 0 || path[0] != '/' {
		return fmt.Errorf("invalid route path %q for %s: path must begin with '/'", path, method)
	}

	if t.roots[method] == nil {
		t.roots[method] = &Node[V]{Path: "/"}
	}
	root := t.roots[method]

	if path == "/" {
		root.Value, root.set, root.Pattern = value, true, path
		return nil
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")

	// Validate no duplicate parameter names
	paramNames := make(map[string]int)
	for i, segment := range segments {
		if len(segment) > 0 && (segment[0] == ':' || segment[0] == '*') {
			name := segment[1:]
			if first, exists := paramNames[name]; exists {
				return fmt.Errorf("duplicate parameter %q in route %s %s: first occurrence at segment %d, duplicate at segment %d", name, method, path, first, i)
			}
			paramNames[name] = i
		}
	}

	current := root
	for i, segment := range segments {
		nType, paramName := classify(segment)

		var next *Node[V]
		for _, child := range current.Children {
			if child.Path == segment && child.NType == nType {
				next = child
				break
			}
		}

		if next == nil {
			next = &Node[V]{Path: segment, NType: nType, ParamName: paramName}
			current.Children = append(current.Children, next)
		}

		if i == len(segments)-1 {
			next.Value, next.set = value, true
			next.Pattern = "/" + strings.Join(segments, "/")
		}

		current = next
	}

	return nil
}

func classify(segment string) (NodeType, string) {
	if len(segment) == 0 {
		return Static, ""
	}
	switch segment[0] {
	case ':':
		return Param, segment[1:]
	case '*':
		return Wildcard, segment[1:]
	}
	return Static, ""
}

// Find looks up the route for method and path
func (t *Tree[V]) Find(method, path string) (Match[V], bool) {
	root := t.roots[method]
	if root == nil {
		return Match[V]{}, false
	}

	if path == "/" || path == "" {
		if root.set {
			return Match[V]{Value: root.Value, Pattern: root.Pattern}, true
		}
		return Match[V]{}, false
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	params := make(map[string]string)

	n := search(root, segments, 0, params)
	if n == nil {
		return Match[V]{}, false
	}
	return Match[V]{Value: n.Value, Pattern: n.Pattern, Params: params}, true
}

// search recursively walks the tree trying static children first, then
// params, then wildcards
func search[V any](n *Node[V], segments []string, index int, params map[string]string) *Node[V] {
	if index == len(segments) {
		if n.set {
			return n
		}
		return nil
	}

	segment := segments[index]

	for _, nType := range []NodeType{Static, Param, Wildcard} {
		for _, child := range n.Children {
			if child.NType != nType {
				continue
			}
			switch nType {
			case Static:
				if child.Path == segment {
					if found := search(child, segments, index+1, params); found != nil {
						return found
					}
				}
			case Param:
				params[child.ParamName] = segment
				if found := search(child, segments, index+1, params); found != nil {
					return found
				}
				delete(params, child.ParamName) // backtrack
			case Wildcard:
				if child.set {
					params[child.ParamName] = strings.Join(segments[index:], "/")
					return child
				}
			}
		}
	}

	return nil
}

// Methods returns all HTTP methods that have a route for path
func (t *Tree[V]) Methods(path string) []string {
	methods := make([]string, 0)
	for method := range t.roots {
		if _, ok := t.Find(method, path); ok {
			methods = append(methods, method)
		}
	}
	return methods
}

// Package navigation resolves breadcrumb trails from the console route table.
package navigation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/surveydesk/backoffice/web"
)

var (
	// ErrInvalidRoute indicates a malformed route table entry.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrRouteCycle indicates parent links that never reach a root.
	ErrRouteCycle = errors.New("route parent cycle")
)

var validate = validator.New()

// RouteNode declares one page: its path pattern, label and optional parent pattern.
type RouteNode struct {
	Path   string `yaml:"path" json:"path" validate:"required,startswith=/"`
	Label  string `yaml:"label" json:"label" validate:"required"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty" validate:"omitempty,startswith=/"`
}

// EntityRoute marks paths under Prefix as detail pages of an entity kind.
type EntityRoute struct {
	Kind   EntityKind `yaml:"kind" validate:"required"`
	Prefix string     `yaml:"prefix" validate:"required,startswith=/,endswith=/"`
}

// Manifest is the static navigation configuration shipped with the binary.
type Manifest struct {
	Routes   []RouteNode       `yaml:"routes" validate:"required,min=1,dive"`
	Tabs     map[string]string `yaml:"tabs"`
	Entities []EntityRoute     `yaml:"entities" validate:"dive"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("navigation: decode manifest: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	return m, nil
}

// DefaultManifest returns the manifest embedded in the binary.
func DefaultManifest() (Manifest, error) {
	return ParseManifest(web.RouteManifest)
}

type compiledNode struct {
	node    RouteNode
	pattern Pattern
	parent  int
}

// Table is the compiled, read-only route table.
type Table struct {
	nodes   []compiledNode
	static  map[string]int
	dynamic []int
}

// NewTable compiles nodes and rejects duplicates, unknown parents and cycles.
func NewTable(nodes []RouteNode) (*Table, error) {
	t, err := compile(nodes)
	if err != nil {
		return nil, err
	}
	for i, n := range t.nodes {
		if n.node.Parent != "" && n.parent < 0 {
			return nil, fmt.Errorf("%w: %s has unknown parent %s", ErrInvalidRoute, n.node.Path, n.node.Parent)
		}
		if _, ok := t.chain(i); !ok {
			return nil, fmt.Errorf("%w: starting at %s", ErrRouteCycle, n.node.Path)
		}
	}
	return t, nil
}

// compile builds the lookup structures without checking parent links.
func compile(nodes []RouteNode) (*Table, error) {
	t := &Table{static: make(map[string]int)}
	byPattern := make(map[string]int)
	for i, node := range nodes {
		p, err := CompilePattern(node.Path)
		if err != nil {
			return nil, err
		}
		if _, dup := byPattern[p.String()]; dup {
			return nil, fmt.Errorf("%w: duplicate path %s", ErrInvalidRoute, p.String())
		}
		byPattern[p.String()] = i
		t.nodes = append(t.nodes, compiledNode{node: node, pattern: p, parent: -1})
		if p.Dynamic() {
			t.dynamic = append(t.dynamic, i)
		} else {
			t.static[p.String()] = i
		}
	}
	for i := range t.nodes {
		if parent := t.nodes[i].node.Parent; parent != "" {
			if idx, ok := byPattern[normalize(parent)]; ok {
				t.nodes[i].parent = idx
			}
		}
	}
	return t, nil
}

// Nodes returns the declared nodes in declaration order.
func (t *Table) Nodes() []RouteNode {
	out := make([]RouteNode, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.node
	}
	return out
}

// match finds the node for path: an exact static match first, then the first
// dynamic pattern in declaration order.
func (t *Table) match(path string) (int, map[string]string, bool) {
	if idx, ok := t.static[normalize(path)]; ok {
		return idx, nil, true
	}
	for _, idx := range t.dynamic {
		if params, ok := t.nodes[idx].pattern.Match(path); ok {
			return idx, params, true
		}
	}
	return -1, nil, false
}

// chain returns node indexes from idx up to its root. It fails on a cycle.
func (t *Table) chain(idx int) ([]int, bool) {
	seen := make(map[int]bool)
	var out []int
	for cur := idx; cur >= 0; cur = t.nodes[cur].parent {
		if seen[cur] {
			return nil, false
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out, true
}

// Ambiguity is a pair of dynamic patterns that can match the same path. The
// earlier declaration wins.
type Ambiguity struct {
	Winner string `json:"winner"`
	Shadow string `json:"shadow"`
}

// Ambiguities lists overlapping dynamic patterns in declaration order.
func (t *Table) Ambiguities() []Ambiguity {
	var out []Ambiguity
	for i, a := range t.dynamic {
		for _, b := range t.dynamic[i+1:] {
			if t.nodes[a].pattern.Overlaps(t.nodes[b].pattern) {
				out = append(out, Ambiguity{Winner: t.nodes[a].node.Path, Shadow: t.nodes[b].node.Path})
			}
		}
	}
	return out
}

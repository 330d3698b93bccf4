package navigation

import (
	"slices"
	"strings"
)

// DefaultTabLabel is the terminal label for a tab key with no configured label.
const DefaultTabLabel = "Details"

// Item is one breadcrumb. An empty Path means the item is not navigable.
type Item struct {
	Label string `json:"label"`
	Path  string `json:"path,omitempty"`
}

// Navigable reports whether activating the item should navigate.
func (i Item) Navigable() bool { return i.Path != "" }

// Context carries per-render inputs. CustomItems, when non-nil, replaces the
// resolved trail. EntityName is the display name of the entity on an entity
// detail page, empty until it has been resolved.
type Context struct {
	CustomItems []Item
	EntityName  string
	Tab         string
}

// HomeTrail is the trail shown when a path does not resolve.
func HomeTrail() []Item {
	return []Item{{Label: "Home"}}
}

// Resolver turns paths into breadcrumb trails. It holds only immutable
// configuration and is safe for concurrent use.
type Resolver struct {
	table    *Table
	tabs     map[string]string
	entities []EntityRoute
}

// NewResolver compiles the manifest.
func NewResolver(m Manifest) (*Resolver, error) {
	table, err := NewTable(m.Routes)
	if err != nil {
		return nil, err
	}
	return newResolver(table, m.Tabs, m.Entities), nil
}

// DefaultResolver builds a resolver from the embedded manifest.
func DefaultResolver() (*Resolver, error) {
	m, err := DefaultManifest()
	if err != nil {
		return nil, err
	}
	return NewResolver(m)
}

func newResolver(table *Table, tabs map[string]string, entities []EntityRoute) *Resolver {
	tabCopy := make(map[string]string, len(tabs))
	for k, v := range tabs {
		tabCopy[strings.ToLower(k)] = v
	}
	return &Resolver{table: table, tabs: tabCopy, entities: slices.Clone(entities)}
}

// Table exposes the compiled route table.
func (r *Resolver) Table() *Table { return r.table }

// TabLabel returns the label for a tab key, or DefaultTabLabel.
func (r *Resolver) TabLabel(tab string) string {
	if label, ok := r.tabs[strings.ToLower(strings.TrimSpace(tab))]; ok && label != "" {
		return label
	}
	return DefaultTabLabel
}

// Resolve returns the breadcrumb trail for path, root first. An unknown path
// yields an empty trail. The last item is never navigable unless it came from
// ctx.CustomItems.
func (r *Resolver) Resolve(path string, ctx *Context) []Item {
	if ctx != nil && ctx.CustomItems != nil {
		return slices.Clone(ctx.CustomItems)
	}
	idx, params, ok := r.table.match(path)
	if !ok {
		return []Item{}
	}
	chain, ok := r.table.chain(idx)
	if !ok {
		return []Item{}
	}
	slices.Reverse(chain)

	// The entity name follows the ancestor that links to the entity's own
	// page, or sits right before the terminal item on that page.
	var name, detail string
	if ctx != nil && strings.TrimSpace(ctx.EntityName) != "" {
		if _, _, href, isEntity := r.entityAt(path, idx); isEntity {
			name, detail = strings.TrimSpace(ctx.EntityName), href
		}
	}

	items := make([]Item, 0, len(chain)+1)
	for _, i := range chain[:len(chain)-1] {
		n := r.table.nodes[i]
		item := Item{Label: n.node.Label}
		if href, ok := n.pattern.Expand(params); ok {
			item.Path = href
		}
		items = append(items, item)
		if name != "" && item.Path == detail {
			items = append(items, Item{Label: name})
			name = ""
		}
	}

	terminal := Item{Label: r.table.nodes[idx].node.Label}
	if ctx != nil && strings.TrimSpace(ctx.Tab) != "" {
		terminal.Label = r.TabLabel(ctx.Tab)
	}
	if name != "" {
		items = append(items, Item{Label: name})
	}
	return append(items, terminal)
}

// Entity reports the entity kind and id when path is an entity detail page.
func (r *Resolver) Entity(path string) (EntityKind, string, bool) {
	idx, _, ok := r.table.match(path)
	if !ok {
		return "", "", false
	}
	kind, id, _, ok := r.entityAt(path, idx)
	return kind, id, ok
}

// entityAt also returns the path of the entity's own detail page.
func (r *Resolver) entityAt(path string, idx int) (EntityKind, string, string, bool) {
	if !r.table.nodes[idx].pattern.Dynamic() {
		return "", "", "", false
	}
	clean := normalize(path) + "/"
	for _, e := range r.entities {
		if !strings.HasPrefix(clean, e.Prefix) {
			continue
		}
		rest := splitPath(clean[len(e.Prefix):])
		if len(rest) == 0 {
			continue
		}
		return e.Kind, rest[0], normalize(e.Prefix + "/" + rest[0]), true
	}
	return "", "", "", false
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"encoding/json"
	"fmt"
	"sort"
)

// BranchKind tells how the children of a branch were found.
type BranchKind int

const (
	// BranchQuery holds hits of one generated search query.
	BranchQuery BranchKind = iota
	// BranchSimilar holds items similar to the branch's owner.
	BranchSimilar
)

// similarLabel is the serialized label of a BranchSimilar branch.
const similarLabel = "similar"

// Branch is one labelled group of children under a node.
type Branch struct {
	Kind BranchKind

	// Query is the search string for BranchQuery branches.
	Query string

	Children []*Node
}

// Label returns the key the branch serializes under.
func (b *Branch) Label() string {
	if b.Kind == BranchSimilar {
		return similarLabel
	}
	return b.Query
}

// Node is one discovered paper or dataset in the provenance tree. Nodes are
// not mutated after creation except for gaining children and, on the
// parent of similar children, the "expand" marker in Extra.
type Node struct {
	Title      string
	ExternalID string

	// Depth is -1 for the root, 0 for search hits, and parent depth + 1 for
	// similar items.
	Depth int

	Abstract string
	Authors  []string
	Tags     []string
	Date     string
	URLPDF   string
	URLAbs   string

	RelevanceScore  float64
	DiscoverySource string
	Extra           map[string]any

	Branches []*Branch

	// Record is the corpus record the node was built from. Not serialized.
	Record any
}

// newRoot returns the root node for a user query.
func newRoot(userQuery string) *Node {
	return &Node{Title: userQuery, Depth: -1, Extra: map[string]any{}}
}

// Branch returns the branch of the given kind and query, creating it when
// absent. Callers must hold the run lock while the run is active.
func (n *Node) Branch(kind BranchKind, query string) *Branch {
	for _, b := range n.Branches {
		if b.Kind == kind && (kind == BranchSimilar || b.Query == query) {
			return b
		}
	}
	b := &Branch{Kind: kind, Query: query}
	n.Branches = append(n.Branches, b)
	return b
}

// Children returns the children under label, or nil.
func (n *Node) Children(label string) []*Node {
	for _, b := range n.Branches {
		if b.Label() == label {
			return b.Children
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first in branch order. parent is
// nil for n itself.
func (n *Node) Walk(fn func(node, parent *Node)) {
	n.walk(nil, fn)
}

func (n *Node) walk(parent *Node, fn func(node, parent *Node)) {
	fn(n, parent)
	for _, b := range n.Branches {
		for _, c := range b.Children {
			c.walk(n, fn)
		}
	}
}

// Flat returns the node's fields as a plain map without children.
func (n *Node) Flat() map[string]any {
	extra := n.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return map[string]any{
		"title":            n.Title,
		"external_id":      n.ExternalID,
		"depth":            n.Depth,
		"abstract":         n.Abstract,
		"authors":          nonNil(n.Authors),
		"tags":             nonNil(n.Tags),
		"date":             n.Date,
		"url_pdf":          n.URLPDF,
		"url_abs":          n.URLAbs,
		"relevance_score":  n.RelevanceScore,
		"discovery_source": n.DiscoverySource,
		"extra":            extra,
	}
}

// ToMap returns the node and its subtree as plain nested maps, with
// children under "child" keyed by branch label.
func (n *Node) ToMap() map[string]any {
	m := n.Flat()
	child := make(map[string]any, len(n.Branches))
	for _, b := range n.Branches {
		list := make([]any, len(b.Children))
		for i, c := range b.Children {
			list[i] = c.ToMap()
		}
		child[b.Label()] = list
	}
	m["child"] = child
	return m
}

// MarshalJSON encodes the subtree in its plain nested form.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToMap())
}

// NodeFromMap rebuilds a tree from the output of ToMap after a round trip
// through JSON or YAML. Branch order is by label since maps do not keep it.
func NodeFromMap(m map[string]any) (*Node, error) {
	n := &Node{
		Title:           str(m["title"]),
		ExternalID:      str(m["external_id"]),
		Depth:           int(num(m["depth"])),
		Abstract:        str(m["abstract"]),
		Authors:         strs(m["authors"]),
		Tags:            strs(m["tags"]),
		Date:            str(m["date"]),
		URLPDF:          str(m["url_pdf"]),
		URLAbs:          str(m["url_abs"]),
		RelevanceScore:  num(m["relevance_score"]),
		DiscoverySource: str(m["discovery_source"]),
		Extra:           map[string]any{},
	}
	if extra, ok := m["extra"].(map[string]any); ok {
		n.Extra = extra
	}

	child, _ := m["child"].(map[string]any)
	labels := make([]string, 0, len(child))
	for label := range child {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		list, ok := child[label].([]any)
		if !ok {
			return nil, fmt.Errorf("branch %q of %q is not a list", label, n.Title)
		}
		b := &Branch{Kind: BranchQuery, Query: label}
		if label == similarLabel {
			b = &Branch{Kind: BranchSimilar}
		}
		for _, item := range list {
			cm, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("child of %q under %q is not a map", n.Title, label)
			}
			c, err := NodeFromMap(cm)
			if err != nil {
				return nil, err
			}
			b.Children = append(b.Children, c)
		}
		n.Branches = append(n.Branches, b)
	}
	return n, nil
}

// SortByScore orders nodes by descending relevance score. Equal scores keep
// their relative order.
func SortByScore(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].RelevanceScore > nodes[j].RelevanceScore
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

func strs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

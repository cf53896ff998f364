// Package dre rolls classified transactions up the commitment hierarchy
// into a yearly income statement.
package dre

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// UnclassifiedID identifies the synthetic node holding unclassified amounts.
const UnclassifiedID = "nao-classificado"

// DefaultUnclassifiedLabel names the synthetic node.
const DefaultUnclassifiedLabel = "Não Classificado"

// Level is a node's depth in the hierarchy.
type Level int

const (
	LevelType Level = iota
	LevelGroup
	LevelCommitment
)

// Node is one row of the rollup tree.
type Node struct {
	ID       string
	Name     string
	Level    Level
	Monthly  [12]decimal.Decimal
	Total    decimal.Decimal
	Children []*Node

	rank  int
	index map[string]*Node
}

func (n *Node) add(month int, amount decimal.Decimal) {
	n.Monthly[month] = n.Monthly[month].Add(amount)
	n.Total = n.Total.Add(amount)
}

func (n *Node) child(id, name string, level Level, rank int) *Node {
	if c, ok := n.index[id]; ok {
		return c
	}
	c := &Node{ID: id, Name: name, Level: level, rank: rank, index: map[string]*Node{}}
	n.index[id] = c
	n.Children = append(n.Children, c)
	return c
}

// Child returns the direct child with the given id.
func (n *Node) Child(id string) *Node {
	return n.index[id]
}

// Tree is a year's rollup. The root's children are commitment types.
type Tree struct {
	Year int
	root Node
}

// Types returns the top-level nodes in hierarchy order.
func (t *Tree) Types() []*Node { return t.root.Children }

// Type returns the type node with the given id, or nil.
func (t *Tree) Type(id string) *Node { return t.root.index[id] }

// Monthly returns the signed total per month across every node.
func (t *Tree) Monthly() [12]decimal.Decimal { return t.root.Monthly }

// Total returns the signed total for the year.
func (t *Tree) Total() decimal.Decimal { return t.root.Total }

// Walk visits every node depth-first in display order.
func (t *Tree) Walk(fn func(n *Node)) {
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			fn(n)
			walk(n.Children)
		}
	}
	walk(t.root.Children)
}

// Leaves returns the commitment-level nodes.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	t.Walk(func(n *Node) {
		if n.Level == LevelCommitment {
			leaves = append(leaves, n)
		}
	})
	return leaves
}

// Options tunes Rollup.
type Options struct {
	UnclassifiedLabel string
	// IncludeEmpty keeps every hierarchy node, even without amounts.
	IncludeEmpty bool
}

// Rollup sums the year's transactions into a type → group → commitment
// tree. Credits count positive and debits negative. Anything missing a level
// lands under a synthetic unclassified node at that level, so the leaves
// always add up to the signed total of the year.
func Rollup(year int, txns []model.Transaction, h *hierarchy.Service, opts Options) *Tree {
	if h == nil {
		h = hierarchy.NewService(nil, nil, nil)
	}
	label := opts.UnclassifiedLabel
	if label == "" {
		label = DefaultUnclassifiedLabel
	}

	ranks := rankHierarchy(h)
	tree := &Tree{Year: year, root: Node{index: map[string]*Node{}}}

	if opts.IncludeEmpty {
		for _, typ := range h.Types() {
			tn := tree.root.child(typ.ID, typ.Name, LevelType, ranks[typ.ID])
			for _, g := range h.GroupsOf(typ.ID) {
				gn := tn.child(g.ID, g.Name, LevelGroup, ranks[g.ID])
				for _, c := range h.CommitmentsOf(g.ID) {
					gn.child(c.ID, c.Name, LevelCommitment, ranks[c.ID])
				}
			}
		}
	}

	unranked := len(ranks)
	for _, txn := range txns {
		if txn.Date.IsZero() || txn.Date.Year() != year {
			continue
		}
		month := int(txn.Date.Month()) - 1
		amount := txn.Signed()
		c := h.Resolve(txn.Classification)

		path := [3]struct{ id, name string }{
			{c.TypeID, c.TypeName},
			{c.GroupID, c.GroupName},
			{c.CommitmentID, c.CommitmentName},
		}

		node := &tree.root
		node.add(month, amount)
		for level, p := range path {
			id, name, rank := p.id, p.name, unranked
			if id == "" {
				id, name, rank = UnclassifiedID, label, unranked+1
			} else if r, ok := ranks[id]; ok {
				rank = r
			}
			if name == "" {
				name = id
			}
			node = node.child(id, name, Level(level), rank)
			node.add(month, amount)
		}
	}

	sortNodes(tree.root.Children)
	return tree
}

// rankHierarchy orders every node id by its position in the hierarchy
// listing: types by position then name, children in declaration order.
func rankHierarchy(h *hierarchy.Service) map[string]int {
	ranks := make(map[string]int)
	for i, t := range h.Types() {
		ranks[t.ID] = i
	}
	for i, g := range h.Groups() {
		ranks[g.ID] = i
	}
	for i, c := range h.Commitments() {
		ranks[c.ID] = i
	}
	return ranks
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].rank != nodes[j].rank {
			return nodes[i].rank < nodes[j].rank
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/oshokin/alh2phoebus/internal/domain/alarm"
)

var (
	// ErrDanglingReference is returned when the root or a child path has no entity.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrMultipleParents is returned when a path is listed as a child more than once.
	ErrMultipleParents = errors.New("entity has more than one parent")
	// ErrOrphanEntity is returned when entities are not reachable from the root.
	ErrOrphanEntity = errors.New("entity not reachable from root")
)

// Node is one entity placed in the tree.
type Node struct {
	// Path is the entity path.
	Path string
	// Entity is the parsed entity.
	Entity *alarm.Entity
	// Parent is nil for the root.
	Parent *Node
	// Children follow the order of the group's child list.
	Children []*Node
}

// Depth returns the number of ancestors of n.
func (n *Node) Depth() int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		depth++
	}

	return depth
}

// Tree is a rooted tree of entities.
type Tree struct {
	// Root is the configuration root group.
	Root *Node
	// nodes indexes every node by path.
	nodes map[string]*Node
}

// Build creates the tree rooted at root from entities.
func Build(entities map[string]*alarm.Entity, root string) (*Tree, error) {
	rootEntity, ok := entities[root]
	if !ok {
		return nil, fmt.Errorf("root %q: %w", root, ErrDanglingReference)
	}

	t := &Tree{
		Root:  &Node{Path: root, Entity: rootEntity},
		nodes: make(map[string]*Node, len(entities)),
	}
	t.nodes[root] = t.Root

	queue := []*Node{t.Root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		for _, childPath := range node.Entity.Children() {
			entity, exists := entities[childPath]
			if !exists {
				return nil, fmt.Errorf("child %q of %q: %w", childPath, node.Path, ErrDanglingReference)
			}

			if _, seen := t.nodes[childPath]; seen {
				return nil, fmt.Errorf("child %q of %q: %w", childPath, node.Path, ErrMultipleParents)
			}

			child := &Node{
				Path:   childPath,
				Entity: entity,
				Parent: node,
			}

			t.nodes[childPath] = child
			node.Children = append(node.Children, child)
			queue = append(queue, child)
		}
	}

	if len(t.nodes) != len(entities) {
		return nil, fmt.Errorf("%w: %s", ErrOrphanEntity, strings.Join(t.orphans(entities), ", "))
	}

	return t, nil
}

// orphans lists the sorted paths of entities missing from the tree.
func (t *Tree) orphans(entities map[string]*alarm.Entity) []string {
	var result []string

	for path := range entities {
		if _, ok := t.nodes[path]; !ok {
			result = append(result, path)
		}
	}

	slices.Sort(result)

	return result
}

// Node returns the node at path.
func (t *Tree) Node(path string) (*Node, bool) {
	n, ok := t.nodes[path]

	return n, ok
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits nodes depth-first in pre-order. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node) bool) {
	walk(t.Root, fn)
}

func walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}

	for _, child := range n.Children {
		walk(child, fn)
	}
}

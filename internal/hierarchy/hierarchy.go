// Package hierarchy rebuilds parent-linked trees from flat relational rows.
//
// Storage only ever persists the parent id; child collections are a derived
// view recomputed here on every read. Rebuilding from scratch (including
// clearing any previously attached children) keeps repeated loads from
// accumulating duplicate child entries.
package hierarchy

import "sort"

// Node is the contract a tree node type must satisfy. T is the concrete
// pointer type, e.g. *models.TaskItem.
type Node[T any] interface {
	TreeID() string
	TreeParentID() *string
	TreeChildren() []T
	AddChild(T)
	ResetChildren()
}

// Build partitions a flat node set into a forest of roots with populated
// child lists. A node whose parent id is nil, or whose parent id does not
// resolve within the input set, is classified as a root; dangling references
// never drop data. Runs two O(n) passes and tolerates disconnected or
// partial input, such as a single task's self-contained subtree.
func Build[T Node[T]](flat []T) []T {
	index := make(map[string]T, len(flat))
	for _, n := range flat {
		n.ResetChildren()
		index[n.TreeID()] = n
	}

	roots := make([]T, 0, len(flat))
	for _, n := range flat {
		if pid := n.TreeParentID(); pid != nil {
			if parent, ok := index[*pid]; ok {
				parent.AddChild(n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Sort orders the roots and every child list, recursively, using less.
// Sorting happens in place on the slices returned by TreeChildren.
func Sort[T Node[T]](roots []T, less func(a, b T) bool) {
	sort.SliceStable(roots, func(i, j int) bool { return less(roots[i], roots[j]) })
	for _, n := range roots {
		Sort(n.TreeChildren(), less)
	}
}

// Walk visits every node of the forest in pre-order.
func Walk[T Node[T]](roots []T, visit func(T)) {
	for _, n := range roots {
		visit(n)
		Walk(n.TreeChildren(), visit)
	}
}

// Find returns the node with the given id anywhere in the forest, or the
// zero value and false.
func Find[T Node[T]](roots []T, id string) (T, bool) {
	var zero T
	for _, n := range roots {
		if n.TreeID() == id {
			return n, true
		}
		if found, ok := Find(n.TreeChildren(), id); ok {
			return found, ok
		}
	}
	return zero, false
}

// IDSet returns the ids of a node and all its transitive descendants.
func IDSet[T Node[T]](root T) map[string]bool {
	ids := make(map[string]bool)
	Walk([]T{root}, func(n T) { ids[n.TreeID()] = true })
	return ids
}

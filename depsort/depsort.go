// Package depsort orders nodes of a dependency graph so that every node comes
// after the nodes it depends on.
//
// The same routine orders reflected types by inheritance (a base type before any
// type derived from it) and projects by their declared dependencies.
package depsort

import (
	"fmt"
	"strings"

	"github.com/teranos/mirror/errors"
)

// Node is one vertex of the graph. Children are the nodes this node depends on
// (its base type, or the projects it depends on).
type Node[K comparable] struct {
	ID       K
	Children []K
}

type mark uint8

const (
	unvisited mark = iota
	inProgress
	done
)

// Sort returns the IDs of nodes in an order where every child precedes its parent.
//
// Children that are not part of nodes are ignored: they refer to vertices owned
// by another graph (e.g. a base type declared in another project).
// Input order decides the order among unrelated nodes, so the result is deterministic
// for a deterministic input. A cycle aborts the sort with an error marked
// errors.ErrCyclicDependency and no order is returned.
func Sort[K comparable](nodes []Node[K]) ([]K, error) {
	index := make(map[K]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	marks := make([]mark, len(nodes))
	order := make([]K, 0, len(nodes))
	var path []K

	var visit func(i int) error
	visit = func(i int) error {
		switch marks[i] {
		case done:
			return nil
		case inProgress:
			return cycleError(path, nodes[i].ID)
		}

		marks[i] = inProgress
		path = append(path, nodes[i].ID)
		for _, child := range nodes[i].Children {
			ci, ok := index[child]
			if !ok {
				continue
			}
			if err := visit(ci); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		marks[i] = done
		order = append(order, nodes[i].ID)
		return nil
	}

	for i := range nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Ranks returns the position of each ID in order.
func Ranks[K comparable](order []K) map[K]int {
	ranks := make(map[K]int, len(order))
	for i, id := range order {
		ranks[id] = i
	}
	return ranks
}

func cycleError[K comparable](path []K, reentered K) error {
	start := 0
	for i, id := range path {
		if id == reentered {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		parts = append(parts, fmt.Sprint(id))
	}
	parts = append(parts, fmt.Sprint(reentered))
	return errors.Mark(
		errors.Newf("cycle detected: %s", strings.Join(parts, " -> ")),
		errors.ErrCyclicDependency,
	)
}

package differ

import (
	"slices"
)

// topoOrder returns the indices of nodes with every node after the nodes it depends on.
// Only edges between members of nodes count. Among ready nodes the smallest
// (ecosystem, name) comes first. A cycle is broken by emitting its smallest member.
func topoOrder(nodes []node) []int {
	if len(nodes) == 0 {
		return nil
	}

	byName := make(map[string]int, len(nodes))
	for i, n := range nodes {
		byName[n.name] = i
	}

	indegree := make([]int, len(nodes))
	dependents := make([][]int, len(nodes))
	for i, n := range nodes {
		seen := make(map[int]bool, len(n.deps))
		for _, d := range n.deps {
			j, ok := byName[d]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	less := func(a, b int) int { return compareNodes(nodes[a], nodes[b]) }

	var ready []int
	for i := range nodes {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	slices.SortFunc(ready, less)

	done := make([]bool, len(nodes))
	order := make([]int, 0, len(nodes))
	emit := func(i int) {
		done[i] = true
		order = append(order, i)
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 && !done[dep] {
				pos, _ := slices.BinarySearchFunc(ready, dep, less)
				ready = slices.Insert(ready, pos, dep)
			}
		}
	}

	for len(order) < len(nodes) {
		if len(ready) > 0 {
			next := ready[0]
			ready = ready[1:]
			emit(next)
			continue
		}
		smallest := -1
		for i := range nodes {
			if !done[i] && (smallest < 0 || less(i, smallest) < 0) {
				smallest = i
			}
		}
		emit(smallest)
	}
	return order
}

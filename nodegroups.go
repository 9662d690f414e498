package xirt

import (
	"sort"

	"github.com/pkg/errors"
)

// Returns the number of values in the group
func (ng *nodeGroup) size() int {
	if ng == nil || len(ng.sumVals) == 0 {
		return 0
	}

	return ng.sumVals[len(ng.sumVals)-1]
}

// Returns the number of nodes in the group
func num(ng *nodeGroup) int {
	if ng == nil {
		return 0
	}

	return len(ng.nodes)
}

// Adds the Nodes to the group. Nodes cannot be added once the group is continuous.
func (ng *nodeGroup) add(nodes ...*Node) {
	if ng.isContinuous() {
		panic("cannot add to a continuous nodeGroup")
	}

	ng.nodes = append(ng.nodes, nodes...)
	for _, n := range nodes {
		ng.sumVals = append(ng.sumVals, ng.size()+n.Size())
	}
}

// Returns the position of the given Node in the group, or -1 if it is not a member. Nodes may be
// present more than once; the first position is returned.
func (ng *nodeGroup) index(n *Node) int {
	for i := range ng.nodes {
		if ng.nodes[i] == n {
			return i
		}
	}

	return -1
}

// Returns whether or not the nodeGroup was able to be made continuous. Cannot become continuous if
// a Node is already in another continuous nodeGroup.
func (ng *nodeGroup) makeContinuous() bool {
	for _, n := range ng.nodes {
		if n.group != nil {
			return false
		}
	}

	ng.values = make([]float64, ng.size())
	for i, n := range ng.nodes {
		copy(ng.values[ng.sumVals[i]-n.Size():], n.values)
		n.values = ng.values[ng.sumVals[i]-n.Size() : ng.sumVals[i]]
		n.group = ng
	}

	return true
}

func (ng *nodeGroup) isContinuous() bool {
	return ng.values != nil
}

// Duplicates the internal slices to reduce unused capacity
func (ng *nodeGroup) trim() {
	nodes := make([]*Node, len(ng.nodes))
	copy(nodes, ng.nodes)
	ng.nodes = nodes

	sumVals := make([]int, len(ng.sumVals))
	copy(sumVals, ng.sumVals)
	ng.sumVals = sumVals
}

// Sets the values of the nodeGroup
func (ng *nodeGroup) setValues(values []float64) error {
	if ng.size() != len(values) {
		return errors.Errorf("Number of given values and group values don't match (%d != %d)", len(values), ng.size())
	}

	if ng.isContinuous() {
		copy(ng.values, values)
		return nil
	}

	for i, n := range ng.nodes {
		copy(n.values, values[ng.sumVals[i]-n.Size():ng.sumVals[i]])
	}

	return nil
}

// Returns the values of the nodeGroup. Will need to copy if the nodeGroup is not continuous
func (ng *nodeGroup) getValues(dupe bool) []float64 {
	if ng.isContinuous() {
		if !dupe {
			return ng.values
		}

		values := make([]float64, ng.size())
		copy(values, ng.values)
		return values
	}

	values := make([]float64, ng.size())
	for i, n := range ng.nodes {
		copy(values[ng.sumVals[i]-n.Size():], n.values)
	}
	return values
}

// Adds the given deltas to each member Node. Assumes len(ds) == ng.size(). Input Nodes do not
// keep deltas, and are skipped.
func (ng *nodeGroup) addDeltas(ds []float64) {
	for i, n := range ng.nodes {
		if n.IsInput() {
			continue
		}

		pos := ng.sumVals[i] - n.Size()
		for j := range n.deltas {
			n.deltas[j] += ds[pos+j]
		}
	}
}

// Binary searches for the node with the specified index if not continuous. Allows out-of-bounds
// panics.
func (ng *nodeGroup) value(index int) float64 {
	if ng.isContinuous() {
		return ng.values[index]
	}

	i := sort.Search(len(ng.nodes), func(i int) bool {
		return index < ng.sumVals[i]
	})

	if i > 0 {
		index -= ng.sumVals[i-1]
	}

	return ng.nodes[i].values[index]
}

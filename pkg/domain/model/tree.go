package model

import (
	"encoding/json"
	"fmt"
	"math"
)

type treeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`

	// training sample counts per class at this node. Optional; when
	// present on a leaf, it becomes the leaf's class distribution.
	ClassCounts []float64 `json:"class_counts,omitempty"`
}

type treeParams struct {
	Nodes []treeNode `json:"nodes"`
}

// decisionTree evaluates a flat node array, root at index 0.
type decisionTree struct {
	nodes []treeNode

	// per-leaf class distribution, precomputed at load.
	probs [][]float64
}

var _ Classifier = &decisionTree{}

func newDecisionTree(params json.RawMessage, classes int) (*decisionTree, error) {
	var p treeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf(`"parameters" are malformed: %w`, err)
	}
	if len(p.Nodes) < 1 {
		return nil, fmt.Errorf(`"nodes" should not be empty`)
	}
	if err := verifyTree(p.Nodes, classes); err != nil {
		return nil, err
	}

	probs := make([][]float64, len(p.Nodes))
	for i, n := range p.Nodes {
		if !n.IsLeaf {
			continue
		}
		probs[i] = leafDistribution(n, classes)
	}

	return &decisionTree{nodes: p.Nodes, probs: probs}, nil
}

// verifyTree checks every path from the root reaches a leaf:
// indexes in range, thresholds finite, no cycles.
func verifyTree(nodes []treeNode, classes int) error {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		if i < 0 || len(nodes) <= i {
			return fmt.Errorf("node index %d is out of range", i)
		}
		switch color[i] {
		case gray:
			return fmt.Errorf("node %d is its own ancestor", i)
		case black:
			return nil
		}
		color[i] = gray

		n := nodes[i]
		if n.IsLeaf {
			if n.ClassLabel < 0 || classes <= n.ClassLabel {
				return fmt.Errorf("leaf %d: class_label %d is out of range", i, n.ClassLabel)
			}
			if n.ClassCounts != nil {
				if len(n.ClassCounts) != classes {
					return fmt.Errorf("leaf %d: class_counts should have %d entries", i, classes)
				}
				total := 0.0
				for _, c := range n.ClassCounts {
					if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
						return fmt.Errorf("leaf %d: class_counts should be non-negative finite numbers", i)
					}
					total += c
				}
				if total <= 0 {
					return fmt.Errorf("leaf %d: class_counts should not sum to zero", i)
				}
			}
		} else {
			if n.FeatureIdx < 0 || len(FeatureNames) <= n.FeatureIdx {
				return fmt.Errorf("node %d: feature_idx %d is out of range", i, n.FeatureIdx)
			}
			if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
				return fmt.Errorf("node %d: threshold should be finite", i)
			}
			if err := visit(n.LeftChild); err != nil {
				return err
			}
			if err := visit(n.RightChild); err != nil {
				return err
			}
		}

		color[i] = black
		return nil
	}

	return visit(0)
}

func leafDistribution(n treeNode, classes int) []float64 {
	dist := make([]float64, classes)
	if n.ClassCounts == nil {
		dist[n.ClassLabel] = 1.0
		return dist
	}

	total := 0.0
	for _, c := range n.ClassCounts {
		total += c
	}
	for i, c := range n.ClassCounts {
		dist[i] = c / total
	}
	return dist
}

func (t *decisionTree) predict(x [4]float64) (int, []float64) {
	i := 0
	for !t.nodes[i].IsLeaf {
		n := t.nodes[i]
		if x[n.FeatureIdx] <= n.Threshold {
			i = n.LeftChild
		} else {
			i = n.RightChild
		}
	}
	return t.nodes[i].ClassLabel, t.probs[i]
}

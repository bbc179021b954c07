package model

import "fmt"

// leaf marks a node without children in the children arrays.
const leaf = -1

// DecisionTree is a trained binary classification tree in the array layout
// used by scikit-learn. Node 0 is the root.
type DecisionTree struct {
	ChildrenLeft  []int        `yaml:"children_left"`
	ChildrenRight []int        `yaml:"children_right"`
	Feature       []int        `yaml:"feature"`
	Threshold     []float64    `yaml:"threshold"`
	ClassCounts   [][2]float64 `yaml:"class_counts"`
	NodeCount     int          `yaml:"node_count"`
}

// Validate checks that the arrays describe a well-formed tree over
// numFeatures features.
func (t *DecisionTree) Validate(numFeatures int) error {
	n := t.NodeCount
	if n <= 0 {
		return fmt.Errorf("tree has %d nodes", n)
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n || len(t.Feature) != n ||
		len(t.Threshold) != n || len(t.ClassCounts) != n {
		return fmt.Errorf("tree arrays do not all have %d nodes", n)
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if (l == leaf) != (r == leaf) {
			return fmt.Errorf("node %d has only one child", i)
		}
		if l == leaf {
			c := t.ClassCounts[i]
			if c[0] < 0 || c[1] < 0 || c[0]+c[1] <= 0 {
				return fmt.Errorf("leaf %d has class counts %v", i, c)
			}
			continue
		}
		// Children always follow their parent, so descent terminates.
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d has children %d, %d outside (%d, %d)", i, l, r, i, n)
		}
		if f := t.Feature[i]; f < 0 || f >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, f, numFeatures)
		}
	}
	return nil
}

// PredictProba returns the class 1 probability of the leaf x falls in. At
// each split x goes left when its feature value is less than or equal to the
// threshold.
func (t *DecisionTree) PredictProba(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	c := t.ClassCounts[node]
	return c[1] / (c[0] + c[1])
}

package model

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages the class 1 probability of its trees. Trees are
// read-only after construction, so one forest may serve concurrent callers.
type RandomForest struct {
	trees   []*DecisionTree
	workers int
}

// NewRandomForest validates the trees over numFeatures features. Predictions
// fan out over at most workers goroutines; workers <= 1 evaluates inline.
func NewRandomForest(trees []*DecisionTree, numFeatures, workers int) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("random forest has no trees")
	}
	for i, t := range trees {
		if t == nil {
			return nil, fmt.Errorf("tree %d is missing", i)
		}
		if err := t.Validate(numFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	if workers < 1 {
		workers = 1
	}
	return &RandomForest{trees: trees, workers: workers}, nil
}

// TreeCount returns the number of trees.
func (f *RandomForest) TreeCount() int {
	return len(f.trees)
}

// PredictProba returns the mean class 1 probability over all trees.
func (f *RandomForest) PredictProba(x []float64) float64 {
	workers := f.workers
	if workers > len(f.trees) {
		workers = len(f.trees)
	}
	if workers == 1 {
		return sumProba(f.trees, x) / float64(len(f.trees))
	}

	// Each worker sums a disjoint chunk of trees into its own slot.
	partial := make([]float64, workers)
	chunk := (len(f.trees) + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(f.trees) {
			break
		}
		end := min(start+chunk, len(f.trees))
		g.Go(func() error {
			partial[w] = sumProba(f.trees[start:end], x)
			return nil
		})
	}
	// Tree evaluation cannot fail; the group only joins the workers.
	_ = g.Wait()

	var sum float64
	for _, p := range partial {
		sum += p
	}
	return sum / float64(len(f.trees))
}

func sumProba(trees []*DecisionTree, x []float64) float64 {
	var sum float64
	for _, t := range trees {
		sum += t.PredictProba(x)
	}
	return sum
}

package model

import (
	"errors"
	"fmt"
)

// leafMarker is the child index sklearn uses for leaves.
const leafMarker = -1

// Tree is one decision tree in array layout. Node i splits on
// Feature[i] <= Threshold[i] (left) and is a leaf when ChildrenLeft[i] is -1,
// in which case Value[i] holds per-class sample weights.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Forest averages the class distributions of its trees.
type Forest struct {
	NClasses int    `json:"n_classes"`
	Trees    []Tree `json:"trees"`
}

// PredictProba returns the averaged class probabilities for x.
func (f Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.NClasses)
	for i := range f.Trees {
		leaf := f.Trees[i].leaf(x)
		dist := f.Trees[i].Value[leaf]
		var sum float64
		for _, w := range dist {
			sum += w
		}
		if sum == 0 {
			continue
		}
		for c, w := range dist {
			proba[c] += w / sum
		}
	}
	if n := float64(len(f.Trees)); n > 0 {
		for c := range proba {
			proba[c] /= n
		}
	}
	return proba
}

// Predict returns the class index with the highest probability. Ties go to
// the lowest index.
func (f Forest) Predict(x []float64) int {
	return argmax(f.PredictProba(x))
}

func argmax(proba []float64) int {
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best
}

func (t Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leafMarker {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}

func (f Forest) validate(nFeatures int) error {
	if f.NClasses < 1 {
		return errors.New("forest has no classes")
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, t := range f.Trees {
		if err := t.validate(nFeatures, f.NClasses); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// validate checks array shapes and that every child index points forward, so
// traversal always terminates.
func (t Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leafMarker {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("node %d: leaf has %d class weights, want %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

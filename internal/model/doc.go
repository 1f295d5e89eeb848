// Package model evaluates pre-trained crash classifiers.
//
// A classifier artifact is a JSON document exported from a trained random
// forest. Categorical inputs are label-encoded with the class lists stored in
// the artifact; numeric inputs are parsed as floats. Training is out of scope:
// artifacts are produced offline and only read here.
package model

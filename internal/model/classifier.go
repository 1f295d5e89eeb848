package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrModelNotFound is returned when no artifact exists for a model name.
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidInput is returned for missing or non-numeric feature values.
	ErrInvalidInput = errors.New("invalid input")
)

// Feature kinds reported by Options.
const (
	KindCategorical = "categorical"
	KindNumeric     = "numeric"
)

// Feature is one model input column. Categorical features carry an encoder.
type Feature struct {
	Name    string        `json:"name"`
	Encoder *LabelEncoder `json:"encoder,omitempty"`
	Default string        `json:"default,omitempty"`
}

// Artifact is the on-disk classifier format.
type Artifact struct {
	Name          string       `json:"name"`
	Target        string       `json:"target"`
	Features      []Feature    `json:"features"`
	TargetEncoder LabelEncoder `json:"target_encoder"`
	Importances   []float64    `json:"feature_importances,omitempty"`
	Forest        Forest       `json:"forest"`
}

// Validate checks that the artifact is internally consistent.
func (a Artifact) Validate() error {
	if a.Name == "" {
		return errors.New("artifact has no name")
	}
	if len(a.Features) == 0 {
		return errors.New("artifact has no features")
	}
	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if f.Name == "" {
			return errors.New("feature has no name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		if f.Encoder != nil {
			if err := f.Encoder.validate(); err != nil {
				return fmt.Errorf("feature %q: %w", f.Name, err)
			}
		}
	}
	if err := a.TargetEncoder.validate(); err != nil {
		return fmt.Errorf("target encoder: %w", err)
	}
	if len(a.TargetEncoder.Classes) != a.Forest.NClasses {
		return fmt.Errorf("target encoder has %d classes, forest has %d", len(a.TargetEncoder.Classes), a.Forest.NClasses)
	}
	if len(a.Importances) != 0 && len(a.Importances) != len(a.Features) {
		return fmt.Errorf("%d feature importances for %d features", len(a.Importances), len(a.Features))
	}
	return a.Forest.validate(len(a.Features))
}

// Classifier predicts a target label from string inputs.
type Classifier struct {
	artifact Artifact
}

// Load decodes and validates an artifact.
func Load(r io.Reader) (*Classifier, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return New(a)
}

// New wraps a validated artifact.
func New(a Artifact) (*Classifier, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("validate artifact: %w", err)
	}
	return &Classifier{artifact: a}, nil
}

// Name returns the model name.
func (c *Classifier) Name() string { return c.artifact.Name }

// Target returns the predicted column.
func (c *Classifier) Target() string { return c.artifact.Target }

// Prediction is the outcome of one classification.
type Prediction struct {
	Model         string             `json:"model"`
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Predict encodes the inputs, evaluates the forest and decodes the label.
// Missing inputs fall back to the feature default.
func (c *Classifier) Predict(inputs map[string]string) (Prediction, error) {
	x, err := c.encode(inputs)
	if err != nil {
		return Prediction{}, err
	}

	proba := c.artifact.Forest.PredictProba(x)
	label, err := c.artifact.TargetEncoder.InverseTransform(argmax(proba))
	if err != nil {
		return Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}

	probs := make(map[string]float64, len(proba))
	for i, p := range proba {
		probs[c.artifact.TargetEncoder.Classes[i]] = p
	}
	return Prediction{Model: c.artifact.Name, Label: label, Probabilities: probs}, nil
}

func (c *Classifier) encode(inputs map[string]string) ([]float64, error) {
	x := make([]float64, len(c.artifact.Features))
	for i, f := range c.artifact.Features {
		v := strings.TrimSpace(inputs[f.Name])
		if v == "" {
			v = f.Default
		}
		if v == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, f.Name)
		}
		if f.Encoder != nil {
			code, err := f.Encoder.Transform(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.Name, err)
			}
			x[i] = float64(code)
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be numeric, got %q", ErrInvalidInput, f.Name, v)
		}
		x[i] = n
	}
	return x, nil
}

// FeatureOption describes an input for form rendering.
type FeatureOption struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Classes []string `json:"classes,omitempty"`
	Default string   `json:"default,omitempty"`
}

// Options lists the inputs in model order.
func (c *Classifier) Options() []FeatureOption {
	out := make([]FeatureOption, 0, len(c.artifact.Features))
	for _, f := range c.artifact.Features {
		opt := FeatureOption{Name: f.Name, Kind: KindNumeric, Default: f.Default}
		if f.Encoder != nil {
			opt.Kind = KindCategorical
			opt.Classes = f.Encoder.Classes
		}
		out = append(out, opt)
	}
	return out
}

// FeatureImportance is a feature with its share of the forest's splits.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopFeatures returns the n most important features, highest first. It
// returns an empty slice when the artifact carries no importances.
func (c *Classifier) TopFeatures(n int) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(c.artifact.Importances))
	for i, imp := range c.artifact.Importances {
		out = append(out, FeatureImportance{Feature: c.artifact.Features[i].Name, Importance: imp})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

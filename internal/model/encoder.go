package model

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownCategory is returned when a value was not seen during training.
var ErrUnknownCategory = errors.New("unknown category")

// LabelEncoder maps category strings to their index in a sorted class list.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// NewLabelEncoder builds an encoder over the distinct values, sorted.
func NewLabelEncoder(values []string) LabelEncoder {
	classes := slices.Clone(values)
	slices.Sort(classes)
	return LabelEncoder{Classes: slices.Compact(classes)}
}

// Transform returns the code for a value.
func (e LabelEncoder) Transform(v string) (int, error) {
	i, ok := slices.BinarySearch(e.Classes, v)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, v)
	}
	return i, nil
}

// InverseTransform returns the value for a code.
func (e LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownCategory, code)
	}
	return e.Classes[code], nil
}

func (e LabelEncoder) validate() error {
	if len(e.Classes) == 0 {
		return errors.New("encoder has no classes")
	}
	if !slices.IsSorted(e.Classes) {
		return errors.New("encoder classes are not sorted")
	}
	for i := 1; i < len(e.Classes); i++ {
		if e.Classes[i] == e.Classes[i-1] {
			return fmt.Errorf("duplicate encoder class %q", e.Classes[i])
		}
	}
	return nil
}

package model

import (
	"errors"
	"fmt"
	"strings"
)

// FallbackCategory is assigned whenever a classification cannot be matched
// against the configured category set.
const FallbackCategory = "Other"

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = []string{
	"Groceries",
	"Rent",
	"Bills",
	"Entertainment",
	"Transport",
	"Healthcare",
	"Education",
	"Shopping",
}

// Category set errors.
var (
	ErrEmptyCategorySet     = errors.New("category set cannot be empty")
	ErrBlankCategory        = errors.New("category name cannot be blank")
	ErrDuplicateCategory    = errors.New("duplicate category")
	ErrReservedCategoryName = errors.New("category name is reserved for the fallback label")
)

// CategorySet is an ordered, closed list of category labels.
// Membership is exact and case-sensitive. A CategorySet is immutable once
// constructed and safe for concurrent reads.
type CategorySet struct {
	index map[string]struct{}
	names []string
}

// NewCategorySet validates names and builds a CategorySet preserving order.
func NewCategorySet(names []string) (CategorySet, error) {
	if len(names) == 0 {
		return CategorySet{}, ErrEmptyCategorySet
	}

	set := CategorySet{
		names: make([]string, 0, len(names)),
		index: make(map[string]struct{}, len(names)),
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return CategorySet{}, fmt.Errorf("%w: index %d", ErrBlankCategory, i)
		}
		if name != strings.TrimSpace(name) {
			return CategorySet{}, fmt.Errorf("%w: %q has surrounding whitespace", ErrBlankCategory, name)
		}
		if name == FallbackCategory {
			return CategorySet{}, fmt.Errorf("%w: %q", ErrReservedCategoryName, name)
		}
		if _, exists := set.index[name]; exists {
			return CategorySet{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		set.index[name] = struct{}{}
		set.names = append(set.names, name)
	}

	return set, nil
}

// MustCategorySet is like NewCategorySet but panics on invalid input.
// Intended for package-level defaults and tests.
func MustCategorySet(names []string) CategorySet {
	set, err := NewCategorySet(names)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains reports whether label is exactly one of the set's names.
func (s CategorySet) Contains(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Names returns a copy of the category names in configured order.
func (s CategorySet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of categories.
func (s CategorySet) Len() int {
	return len(s.names)
}

// String renders the set as a comma-separated list.
func (s CategorySet) String() string {
	return strings.Join(s.names, ", ")
}

// IsValidLabel reports whether label is a member of the set or the fallback.
func (s CategorySet) IsValidLabel(label string) bool {
	return label == FallbackCategory || s.Contains(label)
}

// Package spec describes queries as immutable values.
//
// A Spec carries the filter, related data to load, ordering, paging, tracking
// mode and cache policy of one read. Two specs are equal when their canonical
// keys are equal; see Spec.Key.
package spec

import (
	"time"

	"github.com/unkn0wn-root/speccache/expr"
)

// DefaultCacheDuration applies when caching is enabled without a positive duration.
const DefaultCacheDuration = 60 * time.Second

// Spec is an immutable query description over entities of type E.
type Spec[E any] struct {
	criteria       *expr.Lambda
	includes       []*expr.Lambda
	includeStrings []string
	orderBy        *expr.Lambda
	descending     bool
	skip, take     int
	paging         bool
	untracked      bool
	cache          bool
	cacheDuration  time.Duration
}

// Criteria returns the filter, or nil when every entity matches.
func (s *Spec[E]) Criteria() *expr.Lambda { return s.criteria }

func (s *Spec[E]) Includes() []*expr.Lambda {
	return append([]*expr.Lambda(nil), s.includes...)
}

func (s *Spec[E]) IncludeStrings() []string {
	return append([]string(nil), s.includeStrings...)
}

func (s *Spec[E]) OrderBy() *expr.Lambda { return s.orderBy }

// Ascending reports the order direction. It defaults to true.
func (s *Spec[E]) Ascending() bool { return !s.descending }

func (s *Spec[E]) Skip() int { return s.skip }
func (s *Spec[E]) Take() int { return s.take }

// Paging reports whether Skip and Take apply.
func (s *Spec[E]) Paging() bool { return s.paging }

func (s *Spec[E]) Untracked() bool { return s.untracked }

func (s *Spec[E]) ShouldCache() bool { return s.cache }

func (s *Spec[E]) CacheDuration() time.Duration { return s.cacheDuration }

// WithUntracked returns a copy of s in no-tracking mode.
func (s *Spec[E]) WithUntracked() *Spec[E] {
	if s.untracked {
		return s
	}
	c := *s
	c.untracked = true
	return &c
}

package spec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/speccache/expr"
)

const (
	keySep     = "-"
	includeSep = ","
)

// Key returns the canonical cache key of s:
//
//	fullname-criteria-order-True|False-includes-Take<n>-Skip<n>
//
// Includes are joined by ",". An unpaged spec renders "Unpaged" in place of
// the bounds, since paging also changes the planned order.
//
// Captured values are folded to literals and constant collections are
// expanded, and every lambda parameter is rendered as the entity's simple
// name, so specs built at different call sites share a key.
func (s *Spec[E]) Key() (string, error) {
	alias := SimpleName[E]()

	criteria, err := canonicalText(s.criteria, alias)
	if err != nil {
		return "", fmt.Errorf("spec: criteria: %w", err)
	}
	order, err := canonicalText(s.orderBy, alias)
	if err != nil {
		return "", fmt.Errorf("spec: order: %w", err)
	}
	includes := make([]string, 0, len(s.includes)+len(s.includeStrings))
	for _, inc := range s.includes {
		txt, err := canonicalText(inc, alias)
		if err != nil {
			return "", fmt.Errorf("spec: include: %w", err)
		}
		includes = append(includes, txt)
	}
	includes = append(includes, s.includeStrings...)

	asc := "True"
	if s.descending {
		asc = "False"
	}
	parts := []string{
		TypeName[E](),
		criteria,
		order,
		asc,
		strings.Join(includes, includeSep),
	}
	if s.paging {
		parts = append(parts, "Take"+strconv.Itoa(s.take), "Skip"+strconv.Itoa(s.skip))
	} else {
		parts = append(parts, "Unpaged")
	}
	return strings.Join(parts, keySep), nil
}

func canonicalText(l *expr.Lambda, alias string) (string, error) {
	if l == nil {
		return "", nil
	}
	pe, err := expr.PartialEval(l, nil)
	if err != nil {
		return "", err
	}
	ex, err := expr.ExpandCollections(pe)
	if err != nil {
		return "", err
	}
	return expr.Format(ex, alias)
}

// Equal reports whether s and o have the same key. It is false when either
// key cannot be built.
func (s *Spec[E]) Equal(o *Spec[E]) bool {
	if s == nil || o == nil {
		return s == o
	}
	a, err := s.Key()
	if err != nil {
		return false
	}
	b, err := o.Key()
	return err == nil && a == b
}

// Hash is consistent with Equal.
func (s *Spec[E]) Hash() (uint64, error) {
	k, err := s.Key()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64String(k), nil
}

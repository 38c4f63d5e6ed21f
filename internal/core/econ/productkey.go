package econ

import (
	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// ProductIDForGranularity returns the fact's identifier value at the
// requested granularity. Empty means the fact does not carry it.
func ProductIDForGranularity(f *v1.Fact, g ProductGranularity) string {
	switch g {
	case GranularityChildAsin:
		return f.ChildAsin
	case GranularityFnsku:
		return f.Fnsku
	case GranularityMsku:
		return f.Msku
	default: // PARENT_ASIN
		return f.ParentAsin
	}
}

// identitySet tracks the distinct non-empty values seen for one identifier
// field. Resolution is based on distinct-value counts, never on the order
// facts arrive in.
type identitySet struct {
	values map[string]struct{}
}

func (s *identitySet) add(v string) {
	if v == "" {
		return
	}
	if s.values == nil {
		s.values = make(map[string]struct{}, 1)
	}
	s.values[v] = struct{}{}
}

// sole returns the single distinct value, or "" when the set holds zero or
// more than one value.
func (s *identitySet) sole() string {
	if len(s.values) != 1 {
		return ""
	}
	for v := range s.values {
		return v
	}
	return ""
}

// min returns the lexicographically smallest value, or "" for an empty set.
// Used for parentAsin, where disagreement is an upstream data-integrity
// violation but emission must still be deterministic.
func (s *identitySet) min() string {
	var best string
	for v := range s.values {
		if best == "" || v < best {
			best = v
		}
	}
	return best
}

// resolveIdentifiers produces the identifier fields of a finalized row.
// parentAsin is always emitted; the per-granularity field is emitted only
// when the group's facts agree on exactly one distinct value, and the
// remaining fields stay null.
func resolveIdentifiers(g ProductGranularity, parents, granField identitySet) (parentAsin string, child, fnsku, msku *string) {
	parentAsin = parents.min()

	if g == GranularityParentAsin {
		return parentAsin, nil, nil, nil
	}

	var resolved *string
	if v := granField.sole(); v != "" {
		resolved = &v
	}
	switch g {
	case GranularityChildAsin:
		child = resolved
	case GranularityFnsku:
		fnsku = resolved
	case GranularityMsku:
		msku = resolved
	}
	return parentAsin, child, fnsku, msku
}

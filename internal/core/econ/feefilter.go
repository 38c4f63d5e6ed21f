package econ

// FeeTypeSet is the caller-supplied set of fee types whose component
// breakdown should be expanded in the response.
type FeeTypeSet map[string]struct{}

// NewFeeTypeSet builds a set from a list of fee type names.
func NewFeeTypeSet(feeTypes []string) FeeTypeSet {
	if len(feeTypes) == 0 {
		return nil
	}
	set := make(FeeTypeSet, len(feeTypes))
	for _, ft := range feeTypes {
		set[ft] = struct{}{}
	}
	return set
}

// Requested reports whether the caller asked for a component breakdown of
// the given fee type.
func (s FeeTypeSet) Requested(feeType string) bool {
	_, ok := s[feeType]
	return ok
}

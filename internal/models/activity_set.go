package models

// ActivitySet is an ordered, duplicate-free list of free-text activity tags.
// It marshals as a plain JSON array, which is also its storage representation
// in the activities jsonb column.
type ActivitySet []string

// Add appends tag unless it is already present. Returns true when the set grew.
func (a *ActivitySet) Add(tag string) bool {
	if a.Contains(tag) {
		return false
	}
	*a = append(*a, tag)
	return true
}

func (a ActivitySet) Contains(tag string) bool {
	for _, existing := range a {
		if existing == tag {
			return true
		}
	}
	return false
}

// Normalize drops duplicates while keeping first-occurrence order. Used when
// decoding rows written before de-duplication was enforced.
func (a ActivitySet) Normalize() ActivitySet {
	out := make(ActivitySet, 0, len(a))
	for _, tag := range a {
		out.Add(tag)
	}
	return out
}

package domain

// MutationSet is the universal reconciler output: the minimal classified
// set of changes to bring the stored projection in line with the incoming
// snapshot. The three lists are disjoint in identity for properties; for
// items the replace-on-change policy pairs a delete with an add for the
// same id and never populates Update.
type MutationSet[T any] struct {
	// Add holds full entities to insert.
	Add []T

	// Update holds full entities to update in place.
	Update []T

	// Delete holds external ids to remove.
	Delete []string
}

// Empty reports whether the set carries no mutations.
func (m MutationSet[T]) Empty() bool {
	return len(m.Add) == 0 && len(m.Update) == 0 && len(m.Delete) == 0
}

// Size returns the total number of classified mutations.
func (m MutationSet[T]) Size() int {
	return len(m.Add) + len(m.Update) + len(m.Delete)
}

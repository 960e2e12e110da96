package services

import (
	"sort"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// PropertyReconciler diffs the persisted property entities of a database
// against the freshly grouped incoming entities. Properties are
// mutable-in-place references: a changed entity is classified as an update,
// keeping its id and relation rows.
type PropertyReconciler struct{}

// NewPropertyReconciler creates a property reconciler.
func NewPropertyReconciler() *PropertyReconciler {
	return &PropertyReconciler{}
}

// Reconcile classifies incoming entities against the current projection.
// Every current entity ends in exactly one of {unchanged, update, delete};
// every incoming entity ends in exactly one of {add, update, unchanged}.
// No id appears in more than one output list. The output lists are sorted
// by id, so identical inputs always produce identical mutation sets.
func (r *PropertyReconciler) Reconcile(current []domain.PropertyEntity, incoming map[string][]domain.PropertyEntity) domain.MutationSet[domain.PropertyEntity] {
	lookup := make(map[string]domain.PropertyEntity, len(current))
	for _, entity := range current {
		lookup[entity.ID] = entity
	}

	var out domain.MutationSet[domain.PropertyEntity]
	visited := make(map[string]struct{})

	for _, bucket := range incoming {
		for _, in := range bucket {
			if _, seen := visited[in.ID]; seen {
				continue
			}
			visited[in.ID] = struct{}{}

			cur, ok := lookup[in.ID]
			if !ok {
				out.Add = append(out.Add, in)
				continue
			}
			if !cur.Equal(in) {
				out.Update = append(out.Update, in)
			}
			delete(lookup, in.ID)
		}
	}

	// Whatever was never visited no longer exists upstream.
	for id := range lookup {
		out.Delete = append(out.Delete, id)
	}

	sortEntities(out.Add)
	sortEntities(out.Update)
	sort.Strings(out.Delete)
	return out
}

func sortEntities(entities []domain.PropertyEntity) {
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
}

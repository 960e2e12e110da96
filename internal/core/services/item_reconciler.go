package services

import (
	"sort"
	"time"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

// ItemReconciler diffs the persisted item projection against the incoming
// normalised records. Items are immutable versioned snapshots: a changed
// item is classified as a paired delete of the stored copy plus an add of
// the new one, never an in-place update. The Update list stays empty.
type ItemReconciler struct{}

// NewItemReconciler creates an item reconciler.
func NewItemReconciler() *ItemReconciler {
	return &ItemReconciler{}
}

// Reconcile classifies incoming records against the current projection.
// Newness is judged per item, against the stored copy's own last-modified
// timestamp; the database-level cursor only forces a full rebuild when the
// database has never completed a pass. An item absent upstream is deleted.
func (r *ItemReconciler) Reconcile(current []domain.ItemProjection, incoming map[string]domain.NormalizedRecord, sourceLastSynced *time.Time) domain.MutationSet[domain.NormalizedRecord] {
	lookup := make(map[string]domain.ItemProjection, len(current))
	for _, item := range current {
		lookup[item.ID] = item
	}

	var out domain.MutationSet[domain.NormalizedRecord]

	for id, record := range incoming {
		cur, ok := lookup[id]
		if !ok {
			out.Add = append(out.Add, record)
			continue
		}
		delete(lookup, id)

		if sourceLastSynced == nil || cur.UpdatedAt.Before(record.UpdatedAt) {
			// Supersede: replace the stored snapshot entirely.
			out.Add = append(out.Add, record)
			out.Delete = append(out.Delete, id)
		}
	}

	for id := range lookup {
		out.Delete = append(out.Delete, id)
	}

	sort.Slice(out.Add, func(i, j int) bool { return out.Add[i].ID < out.Add[j].ID })
	sort.Strings(out.Delete)
	return out
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemirror/pagemirror/internal/core/domain"
)

func prop(id, label, name string) domain.PropertyEntity {
	return domain.PropertyEntity{ID: id, Label: label, PropertyName: name}
}

func TestPropertyReconcile_Classification(t *testing.T) {
	current := []domain.PropertyEntity{
		prop("p1", "Go", "techstack"),
		prop("p2", "Rust", "techstack"),
		prop("p3", "Old", "category"),
	}
	// p1 unchanged, p2 relabelled upstream, p4 new, p3 gone.
	incoming := map[string][]domain.PropertyEntity{
		"techstack": {
			prop("p1", "Go", "techstack"),
			prop("p2", "Rustlang", "techstack"),
			prop("p4", "Zig", "techstack"),
		},
	}

	out := NewPropertyReconciler().Reconcile(current, incoming)

	require.Len(t, out.Add, 1)
	assert.Equal(t, "p4", out.Add[0].ID)
	require.Len(t, out.Update, 1)
	assert.Equal(t, "Rustlang", out.Update[0].Label)
	assert.Equal(t, []string{"p3"}, out.Delete)
}

func TestPropertyReconcile_NoIDInTwoLists(t *testing.T) {
	current := []domain.PropertyEntity{prop("p1", "Go", "techstack")}
	// Same id surfacing from two buckets must be classified once.
	incoming := map[string][]domain.PropertyEntity{
		"techstack": {prop("p1", "Golang", "techstack")},
		"languages": {prop("p1", "Go", "languages")},
	}

	out := NewPropertyReconciler().Reconcile(current, incoming)

	seen := map[string]int{}
	for _, e := range out.Add {
		seen[e.ID]++
	}
	for _, e := range out.Update {
		seen[e.ID]++
	}
	for _, id := range out.Delete {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s classified %d times", id, n)
	}
	assert.Empty(t, out.Delete)
}

func TestPropertyReconcile_Idempotent(t *testing.T) {
	current := []domain.PropertyEntity{
		prop("p2", "Rust", "techstack"),
		prop("p1", "Go", "techstack"),
	}
	incoming := map[string][]domain.PropertyEntity{
		"techstack": {
			prop("p3", "Zig", "techstack"),
			prop("p1", "Golang", "techstack"),
		},
	}

	r := NewPropertyReconciler()
	first := r.Reconcile(current, incoming)
	second := r.Reconcile(current, incoming)
	assert.Equal(t, first, second)

	// Sorted outputs regardless of map iteration order.
	assert.Equal(t, "p3", first.Add[0].ID)
	assert.Equal(t, []string{"p2"}, first.Delete)
}

func TestPropertyReconcile_MetadataChangeIsUpdate(t *testing.T) {
	current := []domain.PropertyEntity{
		{ID: "p1", Label: "cover.png", PropertyName: "thumbnail", Metadata: &domain.PropertyMetadata{File: "blob/old"}},
	}
	incoming := map[string][]domain.PropertyEntity{
		"thumbnail": {
			{ID: "p1", Label: "cover.png", PropertyName: "thumbnail", Metadata: &domain.PropertyMetadata{File: "blob/new"}},
		},
	}

	out := NewPropertyReconciler().Reconcile(current, incoming)
	require.Len(t, out.Update, 1)
	assert.Equal(t, "blob/new", out.Update[0].Metadata.File)
	assert.Empty(t, out.Add)
	assert.Empty(t, out.Delete)
}

func TestPropertyReconcile_EmptyInputs(t *testing.T) {
	r := NewPropertyReconciler()

	out := r.Reconcile(nil, nil)
	assert.True(t, out.Empty())

	out = r.Reconcile([]domain.PropertyEntity{prop("p1", "Go", "techstack")}, nil)
	assert.Equal(t, []string{"p1"}, out.Delete)

	out = r.Reconcile(nil, map[string][]domain.PropertyEntity{
		"techstack": {prop("p1", "Go", "techstack")},
	})
	require.Len(t, out.Add, 1)
}

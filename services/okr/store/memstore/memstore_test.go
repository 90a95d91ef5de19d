// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

func newObjective(id string) *datatypes.Objective {
	return &datatypes.Objective{
		ID:         id,
		Title:      "objective " + id,
		OwnerID:    "u-1",
		Visibility: datatypes.VisibilityTeam,
		Status:     datatypes.StatusDraft,
	}
}

// TestObjectiveCRUD verifies the basic objective lifecycle.
func TestObjectiveCRUD(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.InsertObjective(ctx, newObjective("a")))

	obj, err := st.GetObjective(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "objective a", obj.Title)
	assert.False(t, obj.CreatedAt.IsZero())
	assert.Equal(t, obj.CreatedAt, obj.UpdatedAt)

	p := 42.0
	updated, err := st.UpdateObjective(ctx, "a", datatypes.ObjectivePatch{Progress: &p})
	require.NoError(t, err)
	assert.Equal(t, 42.0, updated.Progress)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	require.NoError(t, st.DeleteObjective(ctx, "a"))
	_, err = st.GetObjective(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteObjective(ctx, "a"), store.ErrNotFound)
}

// TestGetObjectiveCopies verifies callers cannot mutate stored state through
// returned pointers.
func TestGetObjectiveCopies(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertObjective(ctx, newObjective("a")))

	obj, err := st.GetObjective(ctx, "a")
	require.NoError(t, err)
	obj.Title = "mutated"

	again, err := st.GetObjective(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "objective a", again.Title)
}

// TestGetObjectiveReconcilesParent verifies the parent pointer is re-derived
// from the edge set on read, healing a stale cached value.
func TestGetObjectiveReconcilesParent(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertObjective(ctx, newObjective("parent")))
	child := newObjective("child")
	child.ParentID = "ghost" // stale pointer, no edge backs it
	require.NoError(t, st.InsertObjective(ctx, child))

	got, err := st.GetObjective(ctx, "child")
	require.NoError(t, err)
	assert.Empty(t, got.ParentID, "pointer without a backing edge is cleared")

	_, err = st.InsertAlignment(ctx, &datatypes.Alignment{
		ID:       "e1",
		SourceID: "parent",
		TargetID: "child",
		Type:     datatypes.AlignParentChild,
		Weight:   1,
	})
	require.NoError(t, err)

	got, err = st.GetObjective(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, "parent", got.ParentID, "pointer follows the edge set")
}

// TestDeleteObjectiveCascades verifies deletion removes owned key results and
// every alignment touching the objective.
func TestDeleteObjectiveCascades(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertObjective(ctx, newObjective("a")))
	require.NoError(t, st.InsertObjective(ctx, newObjective("b")))

	_, err := st.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e1", SourceID: "a", TargetID: "b", Type: datatypes.AlignParentChild, Weight: 1,
	})
	require.NoError(t, err)
	require.NoError(t, st.InsertKeyResult(ctx, &datatypes.KeyResult{
		ID:              "kr1",
		ObjectiveID:     "a",
		MeasurementType: datatypes.MeasurementNumeric,
		TargetValue:     10,
		Weight:          1,
	}))

	require.NoError(t, st.DeleteObjective(ctx, "a"))

	edges, err := st.ListAlignments(ctx, datatypes.AlignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, edges)

	krs, err := st.ListKeyResults(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, krs)

	// The orphaned child heals its parent pointer on the next read.
	b, err := st.GetObjective(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, b.ParentID)
}

// TestListAlignmentsFilter verifies filtering by source, target, and type.
func TestListAlignmentsFilter(t *testing.T) {
	st := New()
	ctx := context.Background()
	_, err := st.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e1", SourceID: "a", TargetID: "b", Type: datatypes.AlignParentChild, Weight: 1,
	})
	require.NoError(t, err)
	_, err = st.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e2", SourceID: "a", TargetID: "c", Type: datatypes.AlignSupports, Weight: 1,
	})
	require.NoError(t, err)

	got, err := st.ListAlignments(ctx, datatypes.AlignmentFilter{SourceID: "a"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.ListAlignments(ctx, datatypes.AlignmentFilter{SourceID: "a", Type: datatypes.AlignParentChild})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].TargetID)

	got, err = st.ListAlignments(ctx, datatypes.AlignmentFilter{TargetID: "c"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
}

// TestKeyResultLifecycle verifies weight clamping, derived progress, and
// value updates.
func TestKeyResultLifecycle(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertKeyResult(ctx, &datatypes.KeyResult{
		ID:              "kr1",
		ObjectiveID:     "obj",
		MeasurementType: datatypes.MeasurementNumeric,
		StartValue:      0,
		TargetValue:     200,
		CurrentValue:    50,
		Weight:          2.5,
	}))

	kr, err := st.GetKeyResult(ctx, "kr1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, kr.Weight, "weight clamps to [0,1]")
	assert.InDelta(t, 25, kr.Progress, 1e-9)

	v := 150.0
	kr, err = st.UpdateKeyResultValue(ctx, "kr1", &v, nil)
	require.NoError(t, err)
	assert.InDelta(t, 75, kr.Progress, 1e-9)

	require.NoError(t, st.DeleteKeyResult(ctx, "kr1"))
	_, err = st.GetKeyResult(ctx, "kr1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestListChildObjectives verifies children are found by the edge set and
// that an empty parent id matches nothing.
func TestListChildObjectives(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertObjective(ctx, newObjective("parent")))
	require.NoError(t, st.InsertObjective(ctx, newObjective("c1")))
	require.NoError(t, st.InsertObjective(ctx, newObjective("c2")))
	for i, child := range []string{"c1", "c2"} {
		_, err := st.InsertAlignment(ctx, &datatypes.Alignment{
			ID: fmt.Sprintf("e%d", i), SourceID: "parent", TargetID: child,
			Type: datatypes.AlignParentChild, Weight: 1,
		})
		require.NoError(t, err)
	}

	kids, err := st.ListChildObjectives(ctx, "parent")
	require.NoError(t, err)
	assert.Len(t, kids, 2)

	none, err := st.ListChildObjectives(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestListObjectivesReconcilesParents verifies list reads heal stale parent
// pointers the same way point reads do.
func TestListObjectivesReconcilesParents(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.InsertObjective(ctx, newObjective("parent")))
	stale := newObjective("stale")
	stale.ParentID = "ghost" // no edge backs it
	require.NoError(t, st.InsertObjective(ctx, stale))
	drifted := newObjective("drifted")
	drifted.ParentID = "ghost" // edge says "parent"
	require.NoError(t, st.InsertObjective(ctx, drifted))
	_, err := st.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e1", SourceID: "parent", TargetID: "drifted",
		Type: datatypes.AlignParentChild, Weight: 1,
	})
	require.NoError(t, err)

	all, err := st.ListObjectives(ctx)
	require.NoError(t, err)
	byID := make(map[string]string, len(all))
	for _, obj := range all {
		byID[obj.ID] = obj.ParentID
	}
	assert.Empty(t, byID["stale"], "pointer without a backing edge is cleared")
	assert.Equal(t, "parent", byID["drifted"], "pointer follows the edge set")

	// The stale pointer can neither hide a child nor invent one.
	kids, err := st.ListChildObjectives(ctx, "parent")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "drifted", kids[0].ID)

	none, err := st.ListChildObjectives(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestContextCancellation verifies operations fail fast on a cancelled
// context.
func TestContextCancellation(t *testing.T) {
	st := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, st.InsertObjective(ctx, newObjective("a")))
	_, err := st.ListObjectives(ctx)
	assert.Error(t, err)
}

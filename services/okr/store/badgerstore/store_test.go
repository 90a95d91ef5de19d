// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testObjective(id string) *datatypes.Objective {
	return &datatypes.Objective{
		ID:         id,
		Title:      "objective " + id,
		OwnerID:    "u-1",
		Visibility: datatypes.VisibilityTeam,
		Status:     datatypes.StatusDraft,
	}
}

// TestObjectiveRoundTrip verifies objective records survive serialization.
func TestObjectiveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	obj := testObjective("a")
	obj.Description = "ship the thing"
	obj.CalcMethod = datatypes.CalcWeightedAvg
	require.NoError(t, s.InsertObjective(ctx, obj))

	got, err := s.GetObjective(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "objective a", got.Title)
	assert.Equal(t, "ship the thing", got.Description)
	assert.Equal(t, datatypes.CalcWeightedAvg, got.CalcMethod)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetObjective(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestUpdateObjectivePatch verifies only set patch fields are applied.
func TestUpdateObjectivePatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertObjective(ctx, testObjective("a")))

	p := 30.0
	st := datatypes.StatusInProgress
	got, err := s.UpdateObjective(ctx, "a", datatypes.ObjectivePatch{Progress: &p, Status: &st})
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Progress)
	assert.Equal(t, datatypes.StatusInProgress, got.Status)
	assert.Equal(t, "objective a", got.Title, "unset fields untouched")

	_, err = s.UpdateObjective(ctx, "missing", datatypes.ObjectivePatch{Progress: &p})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestGetObjectiveHealsParentPointer verifies the read path rewrites a stale
// cached parent pointer to match the edge set, and persists the fix.
func TestGetObjectiveHealsParentPointer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	child := testObjective("child")
	child.ParentID = "ghost"
	require.NoError(t, s.InsertObjective(ctx, child))

	got, err := s.GetObjective(ctx, "child")
	require.NoError(t, err)
	assert.Empty(t, got.ParentID)

	_, err = s.InsertAlignment(ctx, &datatypes.Alignment{
		ID:       "e1",
		SourceID: "parent",
		TargetID: "child",
		Type:     datatypes.AlignParentChild,
		Weight:   1,
	})
	require.NoError(t, err)

	got, err = s.GetObjective(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, "parent", got.ParentID)
}

// TestListingsFollowEdgeSet verifies list reads serve the edge-derived
// parent pointer, not a stale cached one.
func TestListingsFollowEdgeSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertObjective(ctx, testObjective("parent")))
	child := testObjective("child")
	child.ParentID = "ghost" // edge says "parent"
	require.NoError(t, s.InsertObjective(ctx, child))
	orphan := testObjective("orphan")
	orphan.ParentID = "ghost" // no edge backs it
	require.NoError(t, s.InsertObjective(ctx, orphan))
	_, err := s.InsertAlignment(ctx, &datatypes.Alignment{
		ID:       "e1",
		SourceID: "parent",
		TargetID: "child",
		Type:     datatypes.AlignParentChild,
		Weight:   1,
	})
	require.NoError(t, err)

	all, err := s.ListObjectives(ctx)
	require.NoError(t, err)
	byID := make(map[string]string, len(all))
	for _, obj := range all {
		byID[obj.ID] = obj.ParentID
	}
	assert.Equal(t, "parent", byID["child"])
	assert.Empty(t, byID["orphan"])

	kids, err := s.ListChildObjectives(ctx, "parent")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "child", kids[0].ID)

	none, err := s.ListChildObjectives(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestDeleteObjectiveCleansUp verifies cascade deletion of alignments and
// key results.
func TestDeleteObjectiveCleansUp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertObjective(ctx, testObjective("a")))
	require.NoError(t, s.InsertObjective(ctx, testObjective("b")))
	_, err := s.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e1", SourceID: "a", TargetID: "b", Type: datatypes.AlignParentChild, Weight: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertKeyResult(ctx, &datatypes.KeyResult{
		ID:              "kr1",
		ObjectiveID:     "a",
		MeasurementType: datatypes.MeasurementNumeric,
		TargetValue:     10,
		Weight:          1,
	}))

	require.NoError(t, s.DeleteObjective(ctx, "a"))

	edges, err := s.ListAlignments(ctx, datatypes.AlignmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, edges)

	krs, err := s.ListKeyResults(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, krs)

	assert.ErrorIs(t, s.DeleteObjective(ctx, "a"), store.ErrNotFound)
}

// TestAlignmentFilters verifies prefix scans honor the filter fields.
func TestAlignmentFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e1", SourceID: "a", TargetID: "b", Type: datatypes.AlignParentChild, Weight: 0.5,
	})
	require.NoError(t, err)
	_, err = s.InsertAlignment(ctx, &datatypes.Alignment{
		ID: "e2", SourceID: "a", TargetID: "c", Type: datatypes.AlignSupports, Weight: 1,
	})
	require.NoError(t, err)

	got, err := s.ListAlignments(ctx, datatypes.AlignmentFilter{SourceID: "a", Type: datatypes.AlignParentChild})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, 0.5, got[0].Weight)

	require.NoError(t, s.DeleteAlignment(ctx, "e1"))
	assert.ErrorIs(t, s.DeleteAlignment(ctx, "e1"), store.ErrNotFound)
}

// TestKeyResultValueUpdate verifies progress is recomputed on write.
func TestKeyResultValueUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertKeyResult(ctx, &datatypes.KeyResult{
		ID:              "kr1",
		ObjectiveID:     "obj",
		MeasurementType: datatypes.MeasurementNumeric,
		TargetValue:     100,
		CurrentValue:    20,
		Weight:          1,
	}))

	kr, err := s.GetKeyResult(ctx, "kr1")
	require.NoError(t, err)
	assert.InDelta(t, 20, kr.Progress, 1e-9)

	v := 65.0
	kr, err = s.UpdateKeyResultValue(ctx, "kr1", &v, nil)
	require.NoError(t, err)
	assert.InDelta(t, 65, kr.Progress, 1e-9)

	done := true
	require.NoError(t, s.InsertKeyResult(ctx, &datatypes.KeyResult{
		ID:              "kr2",
		ObjectiveID:     "obj",
		MeasurementType: datatypes.MeasurementBoolean,
		Weight:          1,
	}))
	kr, err = s.UpdateKeyResultValue(ctx, "kr2", nil, &done)
	require.NoError(t, err)
	assert.Equal(t, 100.0, kr.Progress)

	krs, err := s.ListKeyResults(ctx, "obj")
	require.NoError(t, err)
	assert.Len(t, krs, 2)
}

// TestPersistentPathRequired verifies Open rejects a disk config with no
// path.
func TestPersistentPathRequired(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

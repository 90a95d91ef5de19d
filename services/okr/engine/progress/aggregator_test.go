// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store/memstore"
)

func newAggregator(st *memstore.Store) *Aggregator {
	return NewAggregator(AggregatorConfig{Store: st})
}

func putObjective(t *testing.T, st *memstore.Store, id string, progress float64, status datatypes.Status) {
	t.Helper()
	require.NoError(t, st.InsertObjective(context.Background(), &datatypes.Objective{
		ID:         id,
		Title:      "objective " + id,
		OwnerID:    "u-1",
		Visibility: datatypes.VisibilityTeam,
		Status:     status,
		Progress:   progress,
	}))
}

func putEdge(t *testing.T, st *memstore.Store, id, parent, child string, weight float64) {
	t.Helper()
	_, err := st.InsertAlignment(context.Background(), &datatypes.Alignment{
		ID:       id,
		SourceID: parent,
		TargetID: child,
		Type:     datatypes.AlignParentChild,
		Weight:   weight,
	})
	require.NoError(t, err)
}

func putKR(t *testing.T, st *memstore.Store, id, objectiveID string, current, target, weight float64) {
	t.Helper()
	require.NoError(t, st.InsertKeyResult(context.Background(), &datatypes.KeyResult{
		ID:              id,
		ObjectiveID:     objectiveID,
		MeasurementType: datatypes.MeasurementNumeric,
		CurrentValue:    current,
		TargetValue:     target,
		Weight:          weight,
	}))
}

// TestRecalculateFromKeyResults verifies the weighted mean over key
// results: 80%*0.5 + 40%*0.25 + 100%*0.25 = 75%.
func TestRecalculateFromKeyResults(t *testing.T) {
	st := memstore.New()
	putObjective(t, st, "obj", 0, datatypes.StatusInProgress)
	putKR(t, st, "kr1", "obj", 80, 100, 0.5)
	putKR(t, st, "kr2", "obj", 40, 100, 0.25)
	putKR(t, st, "kr3", "obj", 100, 100, 0.25)

	res, err := newAggregator(st).Recalculate(context.Background(), "obj")
	require.NoError(t, err)
	assert.InDelta(t, 75, res.Progress, 1e-9)
	assert.False(t, res.Underweighted)
	assert.Equal(t, 3, res.Sources)

	obj, err := st.GetObjective(context.Background(), "obj")
	require.NoError(t, err)
	assert.InDelta(t, 75, obj.Progress, 1e-9)
}

// TestRecalculateFromChildren verifies roll-up over child objectives via
// edge weights, including persistence of the result.
func TestRecalculateFromChildren(t *testing.T) {
	st := memstore.New()
	putObjective(t, st, "parent", 0, datatypes.StatusInProgress)
	putObjective(t, st, "c1", 90, datatypes.StatusOnTrack)
	putObjective(t, st, "c2", 30, datatypes.StatusAtRisk)
	putEdge(t, st, "e1", "parent", "c1", 0.6)
	putEdge(t, st, "e2", "parent", "c2", 0.4)

	res, err := newAggregator(st).Recalculate(context.Background(), "parent")
	require.NoError(t, err)
	// (90*0.6 + 30*0.4) / 1.0 = 66
	assert.InDelta(t, 66, res.Progress, 1e-9)
}

// TestRecalculatePicksUpChildChange verifies the parent's stored progress
// moves when a child's progress changes: children at (90, 0.5) and
// (46, 0.5) give 68; raising the second child to 74 gives 82.
func TestRecalculatePicksUpChildChange(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	putObjective(t, st, "parent", 0, datatypes.StatusInProgress)
	putObjective(t, st, "c1", 90, datatypes.StatusOnTrack)
	putObjective(t, st, "c2", 46, datatypes.StatusInProgress)
	putEdge(t, st, "e1", "parent", "c1", 0.5)
	putEdge(t, st, "e2", "parent", "c2", 0.5)
	agg := newAggregator(st)

	res, err := agg.Recalculate(ctx, "parent")
	require.NoError(t, err)
	assert.InDelta(t, 68, res.Progress, 1e-9)

	p := 74.0
	_, err = st.UpdateObjective(ctx, "c2", datatypes.ObjectivePatch{Progress: &p})
	require.NoError(t, err)

	res, err = agg.Recalculate(ctx, "parent")
	require.NoError(t, err)
	assert.InDelta(t, 82, res.Progress, 1e-9)
}

// TestRecalculateZeroWeightSum verifies the mean is defined as 0 when all
// weights are 0, with no division-by-zero panic.
func TestRecalculateZeroWeightSum(t *testing.T) {
	st := memstore.New()
	putObjective(t, st, "parent", 50, datatypes.StatusInProgress)
	putObjective(t, st, "c1", 90, datatypes.StatusOnTrack)
	putEdge(t, st, "e1", "parent", "c1", 0)

	res, err := newAggregator(st).Recalculate(context.Background(), "parent")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Progress)
	assert.False(t, res.Underweighted, "a zero weight sum is not underweighted")
}

// TestRecalculateUnderweighted verifies the flag when weights sum below 1.
func TestRecalculateUnderweighted(t *testing.T) {
	st := memstore.New()
	putObjective(t, st, "obj", 0, datatypes.StatusInProgress)
	putKR(t, st, "kr1", "obj", 50, 100, 0.3)

	res, err := newAggregator(st).Recalculate(context.Background(), "obj")
	require.NoError(t, err)
	// 50*0.3 / 0.3 = 50: the mean is over the weights that exist.
	assert.InDelta(t, 50, res.Progress, 1e-9)
	assert.True(t, res.Underweighted)
}

// TestRecalculateNoSources verifies an objective with neither key results
// nor children resets to 0.
func TestRecalculateNoSources(t *testing.T) {
	st := memstore.New()
	putObjective(t, st, "obj", 40, datatypes.StatusInProgress)

	res, err := newAggregator(st).Recalculate(context.Background(), "obj")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Progress)
	assert.Equal(t, 0, res.Sources)
}

// TestRecalculateDerivesStatus verifies status coupling: a full roll-up
// forces completed, and a draft gaining progress auto-advances.
func TestRecalculateDerivesStatus(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	putObjective(t, st, "done", 0, datatypes.StatusInProgress)
	putKR(t, st, "kr1", "done", 100, 100, 1)

	_, err := newAggregator(st).Recalculate(ctx, "done")
	require.NoError(t, err)
	obj, err := st.GetObjective(ctx, "done")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusCompleted, obj.Status)

	putObjective(t, st, "fresh", 0, datatypes.StatusDraft)
	putKR(t, st, "kr2", "fresh", 25, 100, 1)
	_, err = newAggregator(st).Recalculate(ctx, "fresh")
	require.NoError(t, err)
	obj, err = st.GetObjective(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusInProgress, obj.Status)
}

// TestCascadeThreeLevels verifies a leaf update propagates through a
// three-level hierarchy bottom-up.
func TestCascadeThreeLevels(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	putObjective(t, st, "root", 0, datatypes.StatusInProgress)
	putObjective(t, st, "mid", 0, datatypes.StatusInProgress)
	putObjective(t, st, "leaf", 0, datatypes.StatusInProgress)
	putEdge(t, st, "e1", "root", "mid", 1)
	putEdge(t, st, "e2", "mid", "leaf", 1)
	putKR(t, st, "kr1", "leaf", 60, 100, 1)

	results, err := newAggregator(st).Cascade(ctx, "leaf")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "leaf", results[0].ObjectiveID)
	assert.Equal(t, "mid", results[1].ObjectiveID)
	assert.Equal(t, "root", results[2].ObjectiveID)

	for _, id := range []string{"leaf", "mid", "root"} {
		obj, err := st.GetObjective(ctx, id)
		require.NoError(t, err)
		assert.InDelta(t, 60, obj.Progress, 1e-9, "objective %s", id)
	}
}

// TestCascadeNotifies verifies the notifier sees every touched objective.
func TestCascadeNotifies(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	putObjective(t, st, "root", 0, datatypes.StatusInProgress)
	putObjective(t, st, "leaf", 0, datatypes.StatusInProgress)
	putEdge(t, st, "e1", "root", "leaf", 1)

	var notified [][]string
	agg := NewAggregator(AggregatorConfig{
		Store:    st,
		Notifier: notifierFunc(func(ids []string, _ string) { notified = append(notified, ids) }),
	})

	_, err := agg.Cascade(ctx, "leaf")
	require.NoError(t, err)
	require.Len(t, notified, 1)
	assert.ElementsMatch(t, []string{"leaf", "root"}, notified[0])
}

// notifierFunc adapts a function to the alignment.Notifier interface.
type notifierFunc func(ids []string, reason string)

func (f notifierFunc) ObjectivesInvalidated(_ context.Context, ids []string, reason string) {
	f(ids, reason)
}

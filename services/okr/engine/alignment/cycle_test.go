// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package alignment

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store/memstore"
)

// addEdge inserts a parent_child edge directly into the store, bypassing
// the manager's checks.
func addEdge(t *testing.T, st *memstore.Store, id, parent, child string) {
	t.Helper()
	_, err := st.InsertAlignment(context.Background(), &datatypes.Alignment{
		ID:       id,
		SourceID: parent,
		TargetID: child,
		Type:     datatypes.AlignParentChild,
		Weight:   1,
	})
	require.NoError(t, err)
}

// TestWouldCreateCycleSelfLoop verifies a self-edge is always rejected.
func TestWouldCreateCycleSelfLoop(t *testing.T) {
	d := NewCycleDetector(memstore.New())
	cyclic, err := d.WouldCreateCycle(context.Background(), "a", "a")
	require.NoError(t, err)
	assert.True(t, cyclic)
}

// TestWouldCreateCycleChain verifies detection along a multi-level chain:
// with a -> b -> c in place, adding c -> a must be rejected while a -> c
// stays legal (it merely shortcuts the hierarchy).
func TestWouldCreateCycleChain(t *testing.T) {
	st := memstore.New()
	addEdge(t, st, "e1", "a", "b")
	addEdge(t, st, "e2", "b", "c")
	d := NewCycleDetector(st)

	cyclic, err := d.WouldCreateCycle(context.Background(), "c", "a")
	require.NoError(t, err)
	assert.True(t, cyclic, "c -> a closes the loop a -> b -> c -> a")

	cyclic, err = d.WouldCreateCycle(context.Background(), "a", "c")
	require.NoError(t, err)
	assert.False(t, cyclic)

	cyclic, err = d.WouldCreateCycle(context.Background(), "b", "a")
	require.NoError(t, err)
	assert.True(t, cyclic)
}

// TestWouldCreateCycleDisjoint verifies edges between unrelated trees are
// never flagged.
func TestWouldCreateCycleDisjoint(t *testing.T) {
	st := memstore.New()
	addEdge(t, st, "e1", "a", "b")
	addEdge(t, st, "e2", "x", "y")
	d := NewCycleDetector(st)

	cyclic, err := d.WouldCreateCycle(context.Background(), "b", "x")
	require.NoError(t, err)
	assert.False(t, cyclic)
}

// TestWouldCreateCycleCancelled verifies the traversal honors context
// cancellation instead of walking a large graph to completion.
func TestWouldCreateCycleCancelled(t *testing.T) {
	st := memstore.New()
	addEdge(t, st, "e1", "a", "b")
	d := NewCycleDetector(st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.WouldCreateCycle(ctx, "z", "a")
	assert.Error(t, err)
}

// TestWouldCreateCycleRandomForest builds random forests by only inserting
// edges the detector clears, then asserts the result is always acyclic: no
// node can reach itself by following parent_child edges.
func TestWouldCreateCycleRandomForest(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		st := memstore.New()
		d := NewCycleDetector(st)
		const nodes = 12

		for attempt := 0; attempt < 60; attempt++ {
			parent := fmt.Sprintf("n%d", rng.Intn(nodes))
			child := fmt.Sprintf("n%d", rng.Intn(nodes))

			cyclic, err := d.WouldCreateCycle(context.Background(), parent, child)
			require.NoError(t, err)
			if cyclic {
				continue
			}
			addEdge(t, st, fmt.Sprintf("t%d-a%d", trial, attempt), parent, child)
		}

		// Every node must fail to reach itself.
		for i := 0; i < nodes; i++ {
			id := fmt.Sprintf("n%d", i)
			cyclic, err := d.WouldCreateCycle(context.Background(), id, id)
			require.NoError(t, err)
			assert.True(t, cyclic, "self loop is trivially cyclic")

			// Walk descendants of id; id itself must never appear.
			seen := map[string]bool{}
			work := []string{id}
			for len(work) > 0 {
				cur := work[len(work)-1]
				work = work[:len(work)-1]
				edges, err := st.ListAlignments(context.Background(), datatypes.AlignmentFilter{
					SourceID: cur,
					Type:     datatypes.AlignParentChild,
				})
				require.NoError(t, err)
				for _, e := range edges {
					require.NotEqual(t, id, e.TargetID, "graph reached %s from itself", id)
					if !seen[e.TargetID] {
						seen[e.TargetID] = true
						work = append(work, e.TargetID)
					}
				}
			}
		}
	}
}

// TestAncestors verifies the nearest-first ancestor chain.
func TestAncestors(t *testing.T) {
	st := memstore.New()
	addEdge(t, st, "e1", "root", "mid")
	addEdge(t, st, "e2", "mid", "leaf")

	chain, err := Ancestors(context.Background(), st, "leaf")
	require.NoError(t, err)
	assert.Equal(t, []string{"mid", "root"}, chain)

	chain, err = Ancestors(context.Background(), st, "root")
	require.NoError(t, err)
	assert.Empty(t, chain)
}

// TestAncestorsCorruptCycle verifies the visited guard terminates on a
// graph corrupted out of band.
func TestAncestorsCorruptCycle(t *testing.T) {
	st := memstore.New()
	addEdge(t, st, "e1", "a", "b")
	addEdge(t, st, "e2", "b", "a")

	chain, err := Ancestors(context.Background(), st, "a")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(chain), 2)
}

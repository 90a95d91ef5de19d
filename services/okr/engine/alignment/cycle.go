// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package alignment maintains the objective hierarchy: typed alignment
// edges between objectives, cycle prevention on parent_child edges, and the
// mutual-exclusivity constraint between key results and child alignments.
package alignment

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// CycleDetector answers whether a proposed parent_child edge would make the
// alignment graph cyclic.
//
// # Description
//
// The detector computes the full descendant set of the proposed child by
// walking existing parent_child edges, and reports a cycle when the
// proposed parent is in that set. The traversal is a pure read: it never
// mutates the store, and it is re-run at the moment of every write rather
// than cached, because the graph is shared mutable state.
//
// # Thread Safety
//
// Safe for concurrent use; the detector holds no state across calls.
type CycleDetector struct {
	alignments store.AlignmentStore
}

// NewCycleDetector creates a detector over the given alignment store.
func NewCycleDetector(alignments store.AlignmentStore) *CycleDetector {
	return &CycleDetector{alignments: alignments}
}

// WouldCreateCycle reports whether inserting a parent_child edge from
// proposedParentID to proposedChildID would close a loop.
//
// # Description
//
// Walks every descendant of proposedChildID with an explicit worklist (no
// language-level recursion, so depth is bounded and the context is checked
// each step). Visited ids are memoized within the call so wide graphs do
// not trigger redundant store round trips. A self-loop (parent == child)
// is always a cycle. "No rows" from the store means an empty descendant
// set, not an error.
//
// # Inputs
//
//   - ctx: Context for cancellation. Each traversal step is a store call.
//   - proposedParentID: Objective that would become the parent (edge source).
//   - proposedChildID: Objective that would become the child (edge target).
//
// # Outputs
//
//   - bool: True if the edge must be rejected.
//   - error: Store read failures, wrapped. Never a false negative: the
//     traversal visits every descendant or returns an error.
func (d *CycleDetector) WouldCreateCycle(ctx context.Context, proposedParentID, proposedChildID string) (bool, error) {
	if proposedParentID == proposedChildID {
		return true, nil
	}

	visited := map[string]bool{proposedChildID: true}
	worklist := []string{proposedChildID}

	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("cycle check cancelled: %w", err)
		}

		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		edges, err := d.alignments.ListAlignments(ctx, datatypes.AlignmentFilter{
			SourceID: cur,
			Type:     datatypes.AlignParentChild,
		})
		if err != nil {
			return false, fmt.Errorf("list child alignments of %s: %w", cur, err)
		}

		for _, edge := range edges {
			if edge.TargetID == proposedParentID {
				return true, nil
			}
			if !visited[edge.TargetID] {
				visited[edge.TargetID] = true
				worklist = append(worklist, edge.TargetID)
			}
		}
	}

	return false, nil
}

// Ancestors returns the chain of ancestor objective ids of id, nearest
// first, by following inbound parent_child edges.
//
// A visited guard stops the walk if out-of-band data manipulation has
// produced a cycle, so the caller can never loop forever on corrupt data.
func Ancestors(ctx context.Context, alignments store.AlignmentStore, id string) ([]string, error) {
	var chain []string
	visited := map[string]bool{id: true}
	cur := id

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ancestor walk cancelled: %w", err)
		}

		inbound, err := alignments.ListAlignments(ctx, datatypes.AlignmentFilter{
			TargetID: cur,
			Type:     datatypes.AlignParentChild,
		})
		if err != nil {
			return nil, fmt.Errorf("list parent alignments of %s: %w", cur, err)
		}
		if len(inbound) == 0 {
			return chain, nil
		}

		parent := inbound[0].SourceID
		if visited[parent] {
			return chain, nil
		}
		visited[parent] = true
		chain = append(chain, parent)
		cur = parent
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package alignment

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// ConstraintSet is the per-objective creation constraint state.
//
// The mutual-exclusivity rule exists because the two roll-up strategies
// (aggregating key result values vs. aggregating child objective progress)
// are structurally incompatible: mixing them would make the weighted mean
// ill-defined. An objective therefore rolls up from one source or the
// other, and each kind of creation is blocked once the other kind exists.
type ConstraintSet struct {
	HasKeyResults            bool
	HasChildAlignments       bool
	CanCreateChildAlignments bool
	CanCreateKeyResults      bool
}

// Constraints derives the constraint set for an objective from current
// store state.
//
// # Thread Safety
//
// Safe for concurrent use; every query re-reads the store. Results are
// never cached across calls, so a constraint check is only as stale as the
// store reads it is built from.
type Constraints struct {
	keyResults store.KeyResultStore
	alignments store.AlignmentStore
}

// NewConstraints creates a constraint checker over the given stores.
func NewConstraints(keyResults store.KeyResultStore, alignments store.AlignmentStore) *Constraints {
	return &Constraints{keyResults: keyResults, alignments: alignments}
}

// Check recomputes the constraint set for the objective.
//
// An objective with key results cannot gain child alignments, and an
// objective with child alignments cannot gain key results. Existing data is
// never retroactively deleted: if out-of-band writes produced both, both
// creation kinds read as blocked and the ambiguous state is left for an
// operator to resolve.
func (c *Constraints) Check(ctx context.Context, objectiveID string) (ConstraintSet, error) {
	krs, err := c.keyResults.ListKeyResults(ctx, objectiveID)
	if err != nil {
		return ConstraintSet{}, fmt.Errorf("list key results of %s: %w", objectiveID, err)
	}

	children, err := c.alignments.ListAlignments(ctx, datatypes.AlignmentFilter{
		SourceID: objectiveID,
		Type:     datatypes.AlignParentChild,
	})
	if err != nil {
		return ConstraintSet{}, fmt.Errorf("list child alignments of %s: %w", objectiveID, err)
	}

	set := ConstraintSet{
		HasKeyResults:      len(krs) > 0,
		HasChildAlignments: len(children) > 0,
	}
	set.CanCreateChildAlignments = !set.HasKeyResults
	set.CanCreateKeyResults = !set.HasChildAlignments
	return set, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store defines the record store interfaces the OKR engine is built
// against, plus the sentinel errors every implementation must return.
//
// The engine treats the store as a remote collaborator: every call is an
// independently awaited round trip, and there is no transactional guarantee
// across multi-step operations. Multi-write sequences (insert alignment,
// then update the child's parent pointer) can be interrupted; the alignment
// edge set is authoritative and cached fields are re-derived on read.
package store

import (
	"context"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
)

// ObjectiveStore persists objectives and supports the point lookups and
// foreign-key scans the engine needs.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type ObjectiveStore interface {
	// InsertObjective persists a new objective record.
	InsertObjective(ctx context.Context, obj *datatypes.Objective) error

	// GetObjective returns the objective with the given id, or ErrNotFound.
	GetObjective(ctx context.Context, id string) (*datatypes.Objective, error)

	// ListObjectives returns all objectives, in unspecified order.
	ListObjectives(ctx context.Context) ([]*datatypes.Objective, error)

	// ListChildObjectives returns objectives whose parent, per the
	// parent_child edge set, is parentID. An unknown parentID yields an
	// empty slice, not an error.
	ListChildObjectives(ctx context.Context, parentID string) ([]*datatypes.Objective, error)

	// UpdateObjective applies the non-nil fields of the patch and returns
	// the updated record, or ErrNotFound.
	UpdateObjective(ctx context.Context, id string, patch datatypes.ObjectivePatch) (*datatypes.Objective, error)

	// DeleteObjective removes the objective, its key results, and any
	// alignments touching it. Returns ErrNotFound for unknown ids.
	DeleteObjective(ctx context.Context, id string) error
}

// AlignmentStore persists alignment edges.
type AlignmentStore interface {
	// InsertAlignment persists a new alignment edge and returns it.
	InsertAlignment(ctx context.Context, a *datatypes.Alignment) (*datatypes.Alignment, error)

	// GetAlignment returns the alignment with the given id, or ErrNotFound.
	GetAlignment(ctx context.Context, id string) (*datatypes.Alignment, error)

	// ListAlignments returns edges matching the filter. No matches is an
	// empty slice, not an error.
	ListAlignments(ctx context.Context, filter datatypes.AlignmentFilter) ([]*datatypes.Alignment, error)

	// DeleteAlignment removes the edge. Returns ErrNotFound for unknown ids;
	// deleting a missing alignment is not a silent no-op.
	DeleteAlignment(ctx context.Context, id string) error
}

// KeyResultStore persists key results.
type KeyResultStore interface {
	// InsertKeyResult persists a new key result. The store clamps the
	// weight into [0, 1] and derives the progress percentage before
	// writing; callers never persist unclamped weights.
	InsertKeyResult(ctx context.Context, kr *datatypes.KeyResult) error

	// GetKeyResult returns the key result with the given id, or ErrNotFound.
	GetKeyResult(ctx context.Context, id string) (*datatypes.KeyResult, error)

	// ListKeyResults returns the key results owned by an objective.
	ListKeyResults(ctx context.Context, objectiveID string) ([]*datatypes.KeyResult, error)

	// UpdateKeyResultValue sets the current (or boolean) value and
	// recomputes the derived progress. Returns the updated record.
	UpdateKeyResultValue(ctx context.Context, id string, current *float64, boolean *bool) (*datatypes.KeyResult, error)

	// DeleteKeyResult removes the key result, or returns ErrNotFound.
	DeleteKeyResult(ctx context.Context, id string) error
}

// Store is the full record store the OKR service runs against.
type Store interface {
	ObjectiveStore
	AlignmentStore
	KeyResultStore

	// Close releases underlying resources.
	Close() error
}

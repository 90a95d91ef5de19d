// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memstore provides an in-memory store.Store implementation.
//
// Used by tests and by the service's lightweight mode when no database path
// is configured. Records are deep-copied on the way in and out so callers
// can never alias the store's internal state.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// Store is an in-memory record store guarded by a single RWMutex.
type Store struct {
	mu         sync.RWMutex
	objectives map[string]*datatypes.Objective
	alignments map[string]*datatypes.Alignment
	keyResults map[string]*datatypes.KeyResult
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objectives: make(map[string]*datatypes.Objective),
		alignments: make(map[string]*datatypes.Alignment),
		keyResults: make(map[string]*datatypes.KeyResult),
	}
}

var _ store.Store = (*Store)(nil)

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// =============================================================================
// Objectives
// =============================================================================

// InsertObjective persists a new objective record.
func (s *Store) InsertObjective(ctx context.Context, obj *datatypes.Objective) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *obj
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.objectives[cp.ID] = &cp
	return nil
}

// GetObjective returns the objective with the given id.
//
// The parent pointer is re-derived from the parent_child edge set on every
// read: the edge set is authoritative and the cached pointer can drift when
// a multi-write sequence is interrupted.
func (s *Store) GetObjective(ctx context.Context, id string) (*datatypes.Objective, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objectives[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	s.reconcileParentLocked(obj)
	cp := *obj
	return &cp, nil
}

// ListObjectives returns all objectives. Parent pointers are reconciled
// against the edge set the same way GetObjective does, so a listing never
// serves a pointer a point read would have healed.
func (s *Store) ListObjectives(ctx context.Context) ([]*datatypes.Objective, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*datatypes.Objective, 0, len(s.objectives))
	for _, obj := range s.objectives {
		s.reconcileParentLocked(obj)
		cp := *obj
		out = append(out, &cp)
	}
	return out, nil
}

// ListChildObjectives returns objectives whose parent, per the edge set, is
// parentID. The edge set is consulted directly so a stale cached pointer
// can neither hide a child nor invent one.
func (s *Store) ListChildObjectives(ctx context.Context, parentID string) ([]*datatypes.Objective, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if parentID == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*datatypes.Objective
	for _, obj := range s.objectives {
		s.reconcileParentLocked(obj)
		if obj.ParentID == parentID {
			cp := *obj
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateObjective applies the non-nil fields of the patch.
func (s *Store) UpdateObjective(ctx context.Context, id string, patch datatypes.ObjectivePatch) (*datatypes.Objective, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objectives[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	applyPatch(obj, patch)
	obj.UpdatedAt = time.Now().UTC()
	cp := *obj
	return &cp, nil
}

// DeleteObjective removes the objective, its key results, and any alignments
// touching it.
func (s *Store) DeleteObjective(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objectives[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.objectives, id)
	for aid, a := range s.alignments {
		if a.SourceID == id || a.TargetID == id {
			delete(s.alignments, aid)
		}
	}
	for kid, kr := range s.keyResults {
		if kr.ObjectiveID == id {
			delete(s.keyResults, kid)
		}
	}
	// Orphaned children keep their cached pointer until the next read
	// reconciles it against the (now empty) edge set.
	return nil
}

// =============================================================================
// Alignments
// =============================================================================

// InsertAlignment persists a new alignment edge.
func (s *Store) InsertAlignment(ctx context.Context, a *datatypes.Alignment) (*datatypes.Alignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.alignments[cp.ID] = &cp
	out := cp
	return &out, nil
}

// GetAlignment returns the alignment with the given id.
func (s *Store) GetAlignment(ctx context.Context, id string) (*datatypes.Alignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAlignments returns edges matching the filter.
func (s *Store) ListAlignments(ctx context.Context, filter datatypes.AlignmentFilter) ([]*datatypes.Alignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*datatypes.Alignment
	for _, a := range s.alignments {
		if filter.Matches(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// DeleteAlignment removes the edge.
func (s *Store) DeleteAlignment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alignments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.alignments, id)
	return nil
}

// =============================================================================
// Key Results
// =============================================================================

// InsertKeyResult persists a new key result, clamping the weight and
// deriving the progress percentage.
func (s *Store) InsertKeyResult(ctx context.Context, kr *datatypes.KeyResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *kr
	cp.Weight = validation.ClampWeight(cp.Weight)
	cp.Progress = cp.ComputeProgress()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.keyResults[cp.ID] = &cp
	return nil
}

// GetKeyResult returns the key result with the given id.
func (s *Store) GetKeyResult(ctx context.Context, id string) (*datatypes.KeyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	kr, ok := s.keyResults[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *kr
	return &cp, nil
}

// ListKeyResults returns the key results owned by an objective.
func (s *Store) ListKeyResults(ctx context.Context, objectiveID string) ([]*datatypes.KeyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*datatypes.KeyResult
	for _, kr := range s.keyResults {
		if kr.ObjectiveID == objectiveID {
			cp := *kr
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateKeyResultValue sets the measured value and recomputes progress.
func (s *Store) UpdateKeyResultValue(ctx context.Context, id string, current *float64, boolean *bool) (*datatypes.KeyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kr, ok := s.keyResults[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if current != nil {
		kr.CurrentValue = *current
	}
	if boolean != nil {
		kr.BooleanValue = *boolean
	}
	kr.Progress = kr.ComputeProgress()
	kr.UpdatedAt = time.Now().UTC()
	cp := *kr
	return &cp, nil
}

// DeleteKeyResult removes the key result.
func (s *Store) DeleteKeyResult(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keyResults[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.keyResults, id)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// reconcileParentLocked re-derives the cached parent pointer from the
// parent_child edge set. Caller must hold the write lock.
func (s *Store) reconcileParentLocked(obj *datatypes.Objective) {
	derived := ""
	for _, a := range s.alignments {
		if a.Type == datatypes.AlignParentChild && a.TargetID == obj.ID {
			derived = a.SourceID
			break
		}
	}
	if obj.ParentID != derived {
		obj.ParentID = derived
	}
}

func applyPatch(obj *datatypes.Objective, patch datatypes.ObjectivePatch) {
	if patch.Title != nil {
		obj.Title = *patch.Title
	}
	if patch.Description != nil {
		obj.Description = *patch.Description
	}
	if patch.Visibility != nil {
		obj.Visibility = *patch.Visibility
	}
	if patch.Status != nil {
		obj.Status = *patch.Status
	}
	if patch.Progress != nil {
		obj.Progress = *patch.Progress
	}
	if patch.Approved != nil {
		obj.Approved = *patch.Approved
	}
	if patch.ParentID != nil {
		obj.ParentID = *patch.ParentID
	}
	if patch.CalcMethod != nil {
		obj.CalcMethod = *patch.CalcMethod
	}
}

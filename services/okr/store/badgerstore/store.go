// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// Key prefixes for the record families.
const (
	prefixObjective = "obj:"
	prefixAlignment = "aln:"
	prefixKeyResult = "kr:"
)

// Store implements store.Store on BadgerDB.
//
// # Thread Safety
//
// Safe for concurrent use. Badger transactions provide snapshot isolation
// per call; there is no cross-call transaction, matching the engine's
// no-transactional-guarantee contract.
type Store struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
}

var _ store.Store = (*Store)(nil)

// Open opens a Badger-backed store with the given configuration.
func Open(cfg Config) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go gcLoop(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger, s.stopGC, s.doneGC)
	}
	return s, nil
}

// OpenInMemory opens an in-memory store for testing.
func OpenInMemory() (*Store, error) {
	return Open(InMemoryConfig())
}

// Close stops garbage collection and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
		s.stopGC = nil
	}
	return s.db.Close()
}

// =============================================================================
// Generic record helpers
// =============================================================================

func (s *Store) putRecord(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", store.ErrStore, key, err)
	}
	err = withTxn(ctx, s.db, func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", store.ErrStore, key, err)
	}
	return nil
}

func (s *Store) getRecord(ctx context.Context, key string, v any) error {
	err := withReadTxn(ctx, s.db, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: get %s: %v", store.ErrStore, key, err)
	}
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, key string) error {
	err := withTxn(ctx, s.db, func(txn *badger.Txn) error {
		// Badger's Delete does not report missing keys; check first so
		// deletion of an absent record surfaces as ErrNotFound.
		if _, err := txn.Get([]byte(key)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", store.ErrStore, key, err)
	}
	return nil
}

// scanPrefix iterates every value under a prefix, passing raw bytes to fn.
func (s *Store) scanPrefix(ctx context.Context, prefix string, fn func(val []byte) error) error {
	err := withReadTxn(ctx, s.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := it.Item().Value(func(val []byte) error {
				return fn(val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: scan %s: %v", store.ErrStore, prefix, err)
	}
	return nil
}

// =============================================================================
// Objectives
// =============================================================================

// InsertObjective persists a new objective record.
func (s *Store) InsertObjective(ctx context.Context, obj *datatypes.Objective) error {
	cp := *obj
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	return s.putRecord(ctx, prefixObjective+cp.ID, &cp)
}

// GetObjective returns the objective with the given id, re-deriving the
// cached parent pointer from the parent_child edge set. The edge set is
// authoritative; a crash between the two writes of an alignment mutation
// can leave the pointer stale, and this read heals it.
func (s *Store) GetObjective(ctx context.Context, id string) (*datatypes.Objective, error) {
	var obj datatypes.Objective
	if err := s.getRecord(ctx, prefixObjective+id, &obj); err != nil {
		return nil, err
	}

	inbound, err := s.ListAlignments(ctx, datatypes.AlignmentFilter{
		TargetID: id,
		Type:     datatypes.AlignParentChild,
	})
	if err != nil {
		return nil, err
	}
	derived := ""
	if len(inbound) > 0 {
		derived = inbound[0].SourceID
	}
	if obj.ParentID != derived {
		obj.ParentID = derived
		if err := s.putRecord(ctx, prefixObjective+id, &obj); err != nil {
			return nil, err
		}
	}
	return &obj, nil
}

// ListObjectives returns all objectives. Parent pointers in the result are
// derived from the edge set, the same source of truth GetObjective heals
// from, so listings never serve a pointer a point read would correct. The
// stored record is left alone; the next GetObjective persists the fix.
func (s *Store) ListObjectives(ctx context.Context) ([]*datatypes.Objective, error) {
	parents, err := s.parentsByChild(ctx)
	if err != nil {
		return nil, err
	}

	var out []*datatypes.Objective
	err = s.scanPrefix(ctx, prefixObjective, func(val []byte) error {
		var obj datatypes.Objective
		if err := json.Unmarshal(val, &obj); err != nil {
			return err
		}
		obj.ParentID = parents[obj.ID]
		out = append(out, &obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListChildObjectives returns objectives whose parent, per the edge set, is
// parentID.
func (s *Store) ListChildObjectives(ctx context.Context, parentID string) ([]*datatypes.Objective, error) {
	if parentID == "" {
		return nil, nil
	}
	parents, err := s.parentsByChild(ctx)
	if err != nil {
		return nil, err
	}

	var out []*datatypes.Objective
	err = s.scanPrefix(ctx, prefixObjective, func(val []byte) error {
		var obj datatypes.Objective
		if err := json.Unmarshal(val, &obj); err != nil {
			return err
		}
		if parents[obj.ID] == parentID {
			obj.ParentID = parentID
			out = append(out, &obj)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateObjective applies the non-nil fields of the patch.
func (s *Store) UpdateObjective(ctx context.Context, id string, patch datatypes.ObjectivePatch) (*datatypes.Objective, error) {
	var obj datatypes.Objective
	if err := s.getRecord(ctx, prefixObjective+id, &obj); err != nil {
		return nil, err
	}
	applyPatch(&obj, patch)
	obj.UpdatedAt = time.Now().UTC()
	if err := s.putRecord(ctx, prefixObjective+id, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// DeleteObjective removes the objective, its key results, and any alignments
// touching it.
func (s *Store) DeleteObjective(ctx context.Context, id string) error {
	if err := s.deleteRecord(ctx, prefixObjective+id); err != nil {
		return err
	}

	edges, err := s.ListAlignments(ctx, datatypes.AlignmentFilter{})
	if err != nil {
		return err
	}
	for _, a := range edges {
		if a.SourceID == id || a.TargetID == id {
			if err := s.deleteRecord(ctx, prefixAlignment+a.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
	}

	krs, err := s.ListKeyResults(ctx, id)
	if err != nil {
		return err
	}
	for _, kr := range krs {
		if err := s.deleteRecord(ctx, prefixKeyResult+kr.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// =============================================================================
// Alignments
// =============================================================================

// InsertAlignment persists a new alignment edge.
func (s *Store) InsertAlignment(ctx context.Context, a *datatypes.Alignment) (*datatypes.Alignment, error) {
	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if err := s.putRecord(ctx, prefixAlignment+cp.ID, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetAlignment returns the alignment with the given id.
func (s *Store) GetAlignment(ctx context.Context, id string) (*datatypes.Alignment, error) {
	var a datatypes.Alignment
	if err := s.getRecord(ctx, prefixAlignment+id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlignments returns edges matching the filter.
func (s *Store) ListAlignments(ctx context.Context, filter datatypes.AlignmentFilter) ([]*datatypes.Alignment, error) {
	var out []*datatypes.Alignment
	err := s.scanPrefix(ctx, prefixAlignment, func(val []byte) error {
		var a datatypes.Alignment
		if err := json.Unmarshal(val, &a); err != nil {
			return err
		}
		if filter.Matches(&a) {
			out = append(out, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAlignment removes the edge.
func (s *Store) DeleteAlignment(ctx context.Context, id string) error {
	return s.deleteRecord(ctx, prefixAlignment+id)
}

// =============================================================================
// Key Results
// =============================================================================

// InsertKeyResult persists a new key result, clamping the weight and
// deriving the progress percentage.
func (s *Store) InsertKeyResult(ctx context.Context, kr *datatypes.KeyResult) error {
	cp := *kr
	cp.Weight = validation.ClampWeight(cp.Weight)
	cp.Progress = cp.ComputeProgress()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	return s.putRecord(ctx, prefixKeyResult+cp.ID, &cp)
}

// GetKeyResult returns the key result with the given id.
func (s *Store) GetKeyResult(ctx context.Context, id string) (*datatypes.KeyResult, error) {
	var kr datatypes.KeyResult
	if err := s.getRecord(ctx, prefixKeyResult+id, &kr); err != nil {
		return nil, err
	}
	return &kr, nil
}

// ListKeyResults returns the key results owned by an objective.
func (s *Store) ListKeyResults(ctx context.Context, objectiveID string) ([]*datatypes.KeyResult, error) {
	var out []*datatypes.KeyResult
	err := s.scanPrefix(ctx, prefixKeyResult, func(val []byte) error {
		var kr datatypes.KeyResult
		if err := json.Unmarshal(val, &kr); err != nil {
			return err
		}
		if kr.ObjectiveID == objectiveID {
			out = append(out, &kr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateKeyResultValue sets the measured value and recomputes progress.
func (s *Store) UpdateKeyResultValue(ctx context.Context, id string, current *float64, boolean *bool) (*datatypes.KeyResult, error) {
	var kr datatypes.KeyResult
	if err := s.getRecord(ctx, prefixKeyResult+id, &kr); err != nil {
		return nil, err
	}
	if current != nil {
		kr.CurrentValue = *current
	}
	if boolean != nil {
		kr.BooleanValue = *boolean
	}
	kr.Progress = kr.ComputeProgress()
	kr.UpdatedAt = time.Now().UTC()
	if err := s.putRecord(ctx, prefixKeyResult+id, &kr); err != nil {
		return nil, err
	}
	return &kr, nil
}

// DeleteKeyResult removes the key result.
func (s *Store) DeleteKeyResult(ctx context.Context, id string) error {
	return s.deleteRecord(ctx, prefixKeyResult+id)
}

// =============================================================================
// Helpers
// =============================================================================

// parentsByChild maps each child objective id to its parent per the
// parent_child edge set.
func (s *Store) parentsByChild(ctx context.Context) (map[string]string, error) {
	edges, err := s.ListAlignments(ctx, datatypes.AlignmentFilter{Type: datatypes.AlignParentChild})
	if err != nil {
		return nil, err
	}
	parents := make(map[string]string, len(edges))
	for _, a := range edges {
		parents[a.TargetID] = a.SourceID
	}
	return parents, nil
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

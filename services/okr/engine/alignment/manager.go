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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianOKR/pkg/extensions"
	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// Notifier receives view-invalidation events after alignment mutations.
// The websocket hub implements this; tests use a recording fake.
type Notifier interface {
	ObjectivesInvalidated(ctx context.Context, objectiveIDs []string, reason string)
}

// Manager orchestrates creation and deletion of alignment edges.
//
// # Description
//
// Every parent_child mutation runs the cycle detector and constraint
// checker against current store state before writing, then maintains the
// child's denormalized parent pointer alongside the edge.
//
// # Consistency
//
// "Insert edge" and "update parent pointer" are two separate store writes
// with no transaction across them. A crash between the two leaves the
// pointer stale; the store re-derives it from the edge set on the next
// read, so the edge set stays authoritative.
//
// The cycle check itself is check-then-act: a read followed by a write with
// no lock spanning both. A process-local mutex serializes parent_child
// writes from this instance, which closes the window for a single service
// process. Writers in other processes can still race; that residual window
// is an accepted limitation of the store's consistency model.
//
// # Thread Safety
//
// Safe for concurrent use.
type Manager struct {
	store       store.Store
	cycles      *CycleDetector
	constraints *Constraints
	perm        extensions.AlignmentPermission
	audit       extensions.AuditLogger
	notifier    Notifier
	logger      *slog.Logger

	// parentMu serializes parent_child check-then-act sequences in this
	// process.
	parentMu sync.Mutex
}

// ManagerConfig configures a Manager. Store is required; nil collaborators
// fall back to permissive/no-op defaults.
type ManagerConfig struct {
	Store      store.Store
	Permission extensions.AlignmentPermission
	Audit      extensions.AuditLogger
	Notifier   Notifier
	Logger     *slog.Logger
}

// NewManager creates an alignment manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Permission == nil {
		cfg.Permission = &extensions.NopAlignmentPermission{}
	}
	if cfg.Audit == nil {
		cfg.Audit = &extensions.NopAuditLogger{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		store:       cfg.Store,
		cycles:      NewCycleDetector(cfg.Store),
		constraints: NewConstraints(cfg.Store, cfg.Store),
		perm:        cfg.Permission,
		audit:       cfg.Audit,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
	}
}

// Constraints exposes the manager's constraint checker for handlers that
// only need the read side.
func (m *Manager) Constraints() *Constraints {
	return m.constraints
}

// Create validates and inserts a new alignment edge.
//
// # Description
//
// For parent_child edges, in order:
//
//  1. Both objectives must exist (store.ErrNotFound otherwise).
//  2. The actor must be permitted at the target objective's visibility.
//  3. The cycle detector must clear the edge (ErrCycle otherwise).
//  4. The source must be allowed to gain children: no key results
//     (ErrConstraintViolation), and the target must not already have a
//     parent (single-parent invariant, also ErrConstraintViolation).
//  5. The edge is inserted, then the target's parent pointer is set.
//
// Informational edge types skip steps 3 and 4. A zero weight is treated as
// unset and defaults to 1; all weights are clamped into [0, 1].
//
// # Outputs
//
//   - *datatypes.Alignment: The created edge.
//   - error: ErrCycle, ErrConstraintViolation, ErrPermission,
//     store.ErrNotFound, or a wrapped store failure.
func (m *Manager) Create(ctx context.Context, actor *extensions.AuthInfo, req datatypes.CreateAlignmentRequest) (*datatypes.Alignment, error) {
	source, err := m.store.GetObjective(ctx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("source objective %s: %w", req.SourceID, err)
	}
	target, err := m.store.GetObjective(ctx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("target objective %s: %w", req.TargetID, err)
	}

	if !m.perm.CanCreateAlignment(actor, string(target.Visibility)) {
		return nil, fmt.Errorf("%w (visibility %s)", ErrPermission, target.Visibility)
	}

	edgeType := datatypes.AlignmentType(req.Type)
	weight := req.Weight
	if weight == 0 {
		weight = 1
	}
	weight = validation.ClampWeight(weight)

	edge := &datatypes.Alignment{
		ID:        uuid.New().String(),
		SourceID:  source.ID,
		TargetID:  target.ID,
		Type:      edgeType,
		Weight:    weight,
		CreatedAt: time.Now().UTC(),
	}
	if actor != nil {
		edge.CreatedBy = actor.UserID
	}

	if edgeType != datatypes.AlignParentChild {
		created, err := m.store.InsertAlignment(ctx, edge)
		if err != nil {
			return nil, fmt.Errorf("insert alignment: %w", err)
		}
		m.logCreated(ctx, created)
		m.invalidate(ctx, []string{source.ID, target.ID}, "alignment_created")
		return created, nil
	}

	m.parentMu.Lock()
	defer m.parentMu.Unlock()

	cyclic, err := m.cycles.WouldCreateCycle(ctx, source.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCycle, source.ID, target.ID)
	}

	set, err := m.constraints.Check(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	if !set.CanCreateChildAlignments {
		return nil, fmt.Errorf("%w: objective %s has key results and cannot have child alignments", ErrConstraintViolation, source.ID)
	}

	existing, err := m.store.ListAlignments(ctx, datatypes.AlignmentFilter{
		TargetID: target.ID,
		Type:     datatypes.AlignParentChild,
	})
	if err != nil {
		return nil, fmt.Errorf("list parent alignments of %s: %w", target.ID, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: objective %s already has a parent", ErrConstraintViolation, target.ID)
	}

	created, err := m.store.InsertAlignment(ctx, edge)
	if err != nil {
		return nil, fmt.Errorf("insert alignment: %w", err)
	}

	// Second write of the pair. If this fails the pointer is stale until
	// the next GetObjective re-derives it from the edge set.
	parentID := source.ID
	if _, err := m.store.UpdateObjective(ctx, target.ID, datatypes.ObjectivePatch{ParentID: &parentID}); err != nil {
		m.logger.Warn("parent pointer update failed after edge insert",
			"alignment_id", created.ID,
			"child_id", target.ID,
			"error", err.Error(),
		)
	}

	m.logCreated(ctx, created)
	m.invalidateWithAncestors(ctx, source.ID, target.ID, "alignment_created")
	return created, nil
}

// Delete removes an alignment edge and, for parent_child edges, clears the
// child's parent pointer.
//
// Deleting a missing alignment returns store.ErrNotFound, not a silent
// no-op, so callers can distinguish a double delete from a successful one.
func (m *Manager) Delete(ctx context.Context, actor *extensions.AuthInfo, alignmentID string) error {
	edge, err := m.store.GetAlignment(ctx, alignmentID)
	if err != nil {
		return fmt.Errorf("alignment %s: %w", alignmentID, err)
	}

	if edge.Type == datatypes.AlignParentChild {
		m.parentMu.Lock()
		defer m.parentMu.Unlock()
	}

	if err := m.store.DeleteAlignment(ctx, alignmentID); err != nil {
		return fmt.Errorf("delete alignment %s: %w", alignmentID, err)
	}

	if edge.Type == datatypes.AlignParentChild {
		empty := ""
		if _, err := m.store.UpdateObjective(ctx, edge.TargetID, datatypes.ObjectivePatch{ParentID: &empty}); err != nil {
			m.logger.Warn("parent pointer clear failed after edge delete",
				"alignment_id", alignmentID,
				"child_id", edge.TargetID,
				"error", err.Error(),
			)
		}
	}

	_ = m.audit.Log(ctx, extensions.AuditEvent{
		EventType:    "alignment.deleted",
		Timestamp:    time.Now().UTC(),
		UserID:       actorID(actor),
		Action:       "delete",
		ResourceType: "alignment",
		ResourceID:   alignmentID,
		Outcome:      "success",
	})
	m.invalidateWithAncestors(ctx, edge.SourceID, edge.TargetID, "alignment_deleted")
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func (m *Manager) logCreated(ctx context.Context, edge *datatypes.Alignment) {
	m.logger.Info("alignment created",
		"alignment_id", edge.ID,
		"source_id", edge.SourceID,
		"target_id", edge.TargetID,
		"type", string(edge.Type),
	)
	_ = m.audit.Log(ctx, extensions.AuditEvent{
		EventType:    "alignment.created",
		Timestamp:    edge.CreatedAt,
		UserID:       edge.CreatedBy,
		Action:       "create",
		ResourceType: "alignment",
		ResourceID:   edge.ID,
		Outcome:      "success",
		Metadata: extensions.NewMetadata().
			Set("source_id", edge.SourceID).
			Set("target_id", edge.TargetID).
			Set("type", string(edge.Type)),
	})
}

// invalidateWithAncestors invalidates the two endpoints plus every ancestor
// of the parent, since progress and hierarchy may have changed anywhere up
// the chain.
func (m *Manager) invalidateWithAncestors(ctx context.Context, parentID, childID, reason string) {
	ids := []string{parentID, childID}
	ancestors, err := Ancestors(ctx, m.store, parentID)
	if err != nil {
		m.logger.Warn("ancestor walk for invalidation failed", "objective_id", parentID, "error", err.Error())
	} else {
		ids = append(ids, ancestors...)
	}
	m.invalidate(ctx, ids, reason)
}

func (m *Manager) invalidate(ctx context.Context, ids []string, reason string) {
	if m.notifier == nil {
		return
	}
	m.notifier.ObjectivesInvalidated(ctx, ids, reason)
}

func actorID(actor *extensions.AuthInfo) string {
	if actor == nil {
		return ""
	}
	return actor.UserID
}

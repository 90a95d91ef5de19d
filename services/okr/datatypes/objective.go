// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the record types shared by the OKR service:
// objectives, key results, and the typed alignment edges between objectives.
//
// The types here mirror what the record store persists. Derived state
// (constraint sets, roll-up results) lives in the engine packages.
package datatypes

import "time"

// =============================================================================
// Enumerations
// =============================================================================

// Status is the lifecycle status of an objective.
//
// Objectives start in StatusDraft. Progress updates can force or auto-advance
// the status (see engine/status for the transition rules).
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusAtRisk     Status = "at_risk"
	StatusOnTrack    Status = "on_track"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusAtRisk, StatusOnTrack, StatusCompleted:
		return true
	}
	return false
}

// Visibility controls who can see an objective and, through role checks,
// who may create alignments against it.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityTeam         Visibility = "team"
	VisibilityDepartment   Visibility = "department"
	VisibilityOrganization Visibility = "organization"
)

// IsValid reports whether v is one of the defined visibility levels.
func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityDepartment, VisibilityOrganization:
		return true
	}
	return false
}

// CalcMethod selects how an objective's progress is rolled up from its
// children.
//
// The two methods currently share the same weighted-mean arithmetic. They are
// kept as distinct values because user-facing configuration and tooltips
// distinguish them by name, and a future release may differentiate the math.
// Do not collapse them.
type CalcMethod string

const (
	CalcWeightedSum CalcMethod = "weighted_sum"
	CalcWeightedAvg CalcMethod = "weighted_avg"
)

// IsValid reports whether m is one of the defined calculation methods.
func (m CalcMethod) IsValid() bool {
	return m == CalcWeightedSum || m == CalcWeightedAvg
}

// =============================================================================
// Objective
// =============================================================================

// Objective is a goal node in the alignment hierarchy.
//
// # Invariants
//
//   - An objective has at most one inbound parent_child alignment. ParentID
//     is a denormalized cache of that edge and the edge set is authoritative;
//     the store re-derives ParentID on read when the two disagree.
//   - Progress is a percentage in [0, 100].
//   - An objective contributes to the roll-up either through its key results
//     or through its child objectives, never both (see engine/alignment).
type Objective struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CycleID     string     `json:"cycle_id,omitempty"`
	OwnerID     string     `json:"owner_id"`
	Visibility  Visibility `json:"visibility"`
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	Approved    bool       `json:"approved"`

	// ParentID caches the source of the unique inbound parent_child
	// alignment, empty when the objective is a root.
	ParentID string `json:"parent_id,omitempty"`

	// CalcMethod overrides the process-wide default roll-up method when set.
	CalcMethod CalcMethod `json:"calc_method,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveCalcMethod returns the objective's roll-up method, falling back to
// the supplied process-wide default when the objective has no override.
func (o *Objective) EffectiveCalcMethod(def CalcMethod) CalcMethod {
	if o.CalcMethod.IsValid() {
		return o.CalcMethod
	}
	return def
}

// ObjectivePatch is a partial update applied by the store. Nil fields are
// left unchanged.
type ObjectivePatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
	Status      *Status     `json:"status,omitempty"`
	Progress    *float64    `json:"progress,omitempty"`
	Approved    *bool       `json:"approved,omitempty"`
	ParentID    *string     `json:"parent_id,omitempty"`
	CalcMethod  *CalcMethod `json:"calc_method,omitempty"`
}

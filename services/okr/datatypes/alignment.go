// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// AlignmentType is the kind of relationship an alignment edge expresses.
//
// Only AlignParentChild has structural consequences: it forms the objective
// hierarchy, participates in cycle detection, and feeds the progress roll-up.
// The other types are informational annotations between objectives.
type AlignmentType string

const (
	// AlignParentChild links a parent objective (source) to a child
	// objective (target). The parent_child subgraph must stay acyclic.
	AlignParentChild AlignmentType = "parent_child"

	// AlignSupports marks the source as supporting the target without
	// making it part of the hierarchy.
	AlignSupports AlignmentType = "supports"

	// AlignRelated marks two objectives as loosely related.
	AlignRelated AlignmentType = "related"
)

// IsValid reports whether t is one of the defined alignment types.
func (t AlignmentType) IsValid() bool {
	switch t {
	case AlignParentChild, AlignSupports, AlignRelated:
		return true
	}
	return false
}

// Structural reports whether edges of this type shape the hierarchy.
func (t AlignmentType) Structural() bool {
	return t == AlignParentChild
}

// Alignment is a directed, typed, weighted edge between two objectives.
//
// For parent_child edges the source is the parent and the target is the
// child. Weight is used identically to a key result weight during the
// progress roll-up and defaults to 1.
type Alignment struct {
	ID       string        `json:"id"`
	SourceID string        `json:"source_id"`
	TargetID string        `json:"target_id"`
	Type     AlignmentType `json:"type"`
	Weight   float64       `json:"weight"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// AlignmentFilter selects alignments in store queries. Zero-valued fields
// match everything.
type AlignmentFilter struct {
	SourceID string
	TargetID string
	Type     AlignmentType
}

// Matches reports whether a satisfies every set field of the filter.
func (f AlignmentFilter) Matches(a *Alignment) bool {
	if f.SourceID != "" && a.SourceID != f.SourceID {
		return false
	}
	if f.TargetID != "" && a.TargetID != f.TargetID {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

// AlignmentPermission decides whether an actor may create alignment edges
// against an objective at a given visibility level.
//
// The alignment engine treats this as an opaque predicate: it supplies the
// actor and the target objective's visibility and acts on the boolean. How
// the decision is made (role tables, group membership, an external policy
// service) is the implementation's business.
//
// Implementations must be safe for concurrent use.
type AlignmentPermission interface {
	// CanCreateAlignment reports whether the actor may create an alignment
	// against an objective with the given visibility. A nil actor means an
	// unauthenticated request.
	CanCreateAlignment(info *AuthInfo, visibility string) bool
}

// RoleAlignmentPermission gates alignment creation by role per visibility
// level.
//
// Example:
//
//	perm := &extensions.RoleAlignmentPermission{
//	    RequiredRoles: map[string]string{
//	        "organization": "admin",
//	        "department":   "manager",
//	    },
//	}
//
// Visibility levels absent from the map are open to any authenticated
// actor.
type RoleAlignmentPermission struct {
	// RequiredRoles maps a visibility level to the role needed to create
	// alignments at that level.
	RequiredRoles map[string]string
}

// CanCreateAlignment implements AlignmentPermission.
func (p *RoleAlignmentPermission) CanCreateAlignment(info *AuthInfo, visibility string) bool {
	if info == nil {
		return false
	}
	role, gated := p.RequiredRoles[visibility]
	if !gated {
		return true
	}
	return info.HasRole(role)
}

// NopAlignmentPermission permits every alignment. This is the open source
// default, matching NopAuthProvider's local-user-is-admin behavior.
type NopAlignmentPermission struct{}

// CanCreateAlignment always returns true.
func (p *NopAlignmentPermission) CanCreateAlignment(_ *AuthInfo, _ string) bool {
	return true
}

var (
	_ AlignmentPermission = (*RoleAlignmentPermission)(nil)
	_ AlignmentPermission = (*NopAlignmentPermission)(nil)
)

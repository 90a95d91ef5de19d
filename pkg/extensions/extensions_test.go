// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultOptions verifies every extension point gets a no-op default.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.NotNil(t, opts.AuthProvider)
	assert.NotNil(t, opts.AuthzProvider)
	assert.NotNil(t, opts.AuditLogger)
	assert.NotNil(t, opts.AlignPerm)
}

// TestWithBuilders verifies the fluent setters replace only their field.
func TestWithBuilders(t *testing.T) {
	perm := &RoleAlignmentPermission{RequiredRoles: map[string]string{"organization": "admin"}}
	opts := DefaultOptions().WithAlignPerm(perm)

	assert.Same(t, perm, opts.AlignPerm.(*RoleAlignmentPermission))
	assert.IsType(t, &NopAuthProvider{}, opts.AuthProvider, "other fields untouched")
}

// TestNopAuthProvider verifies the open source default authenticates any
// token as the local admin user.
func TestNopAuthProvider(t *testing.T) {
	provider := &NopAuthProvider{}

	info, err := provider.Validate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "local-user", info.UserID)
	assert.True(t, info.HasRole("admin"))
	assert.False(t, info.HasRole("viewer"))
}

// TestNopAuthzProvider verifies all actions are allowed.
func TestNopAuthzProvider(t *testing.T) {
	provider := &NopAuthzProvider{}
	err := provider.Authorize(context.Background(), AuthzRequest{
		User:         &AuthInfo{UserID: "anyone"},
		Action:       "delete",
		ResourceType: "objective",
	})
	assert.NoError(t, err)
}

// TestNopAuditLogger verifies events are discarded and queries come back
// empty.
func TestNopAuditLogger(t *testing.T) {
	logger := &NopAuditLogger{}
	ctx := context.Background()

	require.NoError(t, logger.Log(ctx, AuditEvent{
		EventType: "alignment.create",
		UserID:    "local-user",
	}))

	events, err := logger.Query(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, logger.Flush(ctx))
}

// TestRoleAlignmentPermission verifies role gating by visibility level.
func TestRoleAlignmentPermission(t *testing.T) {
	perm := &RoleAlignmentPermission{
		RequiredRoles: map[string]string{
			"organization": "admin",
			"department":   "manager",
		},
	}

	admin := &AuthInfo{UserID: "u-1", Roles: []string{"admin"}}
	viewer := &AuthInfo{UserID: "u-2", Roles: []string{"viewer"}}

	assert.True(t, perm.CanCreateAlignment(admin, "organization"))
	assert.False(t, perm.CanCreateAlignment(viewer, "organization"))
	assert.False(t, perm.CanCreateAlignment(viewer, "department"))
	assert.True(t, perm.CanCreateAlignment(viewer, "team"), "ungated level is open")
	assert.False(t, perm.CanCreateAlignment(nil, "team"), "nil actor is denied")
}

// TestNopAlignmentPermission verifies the open source default permits all.
func TestNopAlignmentPermission(t *testing.T) {
	perm := &NopAlignmentPermission{}
	assert.True(t, perm.CanCreateAlignment(nil, "organization"))
}

// TestMetadataAccessors verifies the type-safe accessors and the fluent
// builder.
func TestMetadataAccessors(t *testing.T) {
	now := time.Now()
	meta := NewMetadata().
		Set("request_id", "req-1").
		Set("retry_count", 3).
		Set("duration_ms", int64(150)).
		Set("score", 0.9).
		Set("mfa_verified", true).
		Set("created_at", now)

	s, ok := meta.GetString("request_id")
	assert.True(t, ok)
	assert.Equal(t, "req-1", s)

	i, ok := meta.GetInt("retry_count")
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	i64, ok := meta.GetInt64("duration_ms")
	assert.True(t, ok)
	assert.Equal(t, int64(150), i64)

	f, ok := meta.GetFloat64("score")
	assert.True(t, ok)
	assert.Equal(t, 0.9, f)

	b, ok := meta.GetBool("mfa_verified")
	assert.True(t, ok)
	assert.True(t, b)

	tm, ok := meta.GetTime("created_at")
	assert.True(t, ok)
	assert.Equal(t, now, tm)

	// Wrong type and missing key both report !ok.
	_, ok = meta.GetInt("request_id")
	assert.False(t, ok)
	_, ok = meta.GetString("missing")
	assert.False(t, ok)
}

// TestMetadataCloneAndMerge verifies clone independence and merge
// overwrite semantics.
func TestMetadataCloneAndMerge(t *testing.T) {
	original := NewMetadata().Set("env", "prod")
	clone := original.Clone().Set("env", "dev")
	env, _ := original.GetString("env")
	assert.Equal(t, "prod", env)
	env, _ = clone.GetString("env")
	assert.Equal(t, "dev", env)

	original.Merge(NewMetadata().Set("env", "staging").Set("version", "1.0"))
	env, _ = original.GetString("env")
	assert.Equal(t, "staging", env)
	assert.True(t, original.Has("version"))
	assert.Equal(t, 2, original.Len())

	original.Delete("version")
	assert.False(t, original.Has("version"))
}

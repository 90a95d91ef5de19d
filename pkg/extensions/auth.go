// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when authentication or authorization fails.
// Implementations wrap it so callers can map the failure to a 401/403 with
// errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// AuthInfo is the identity an AuthProvider resolved from a token.
//
// UserID is always populated; the rest depends on the provider. Enterprise
// providers put extra claims (department, MFA state, IdP session) into
// Metadata rather than extending the struct.
type AuthInfo struct {
	// UserID uniquely identifies the authenticated user. Never empty.
	UserID string

	// Email may be empty when the provider does not supply one.
	Email string

	// Roles drive authorization decisions. The OKR service looks for
	// "admin", "manager", and "viewer".
	Roles []string

	// Metadata holds provider-specific claims, e.g.
	//
	//	Metadata: NewMetadata().
	//	    Set("department", "engineering").
	//	    Set("mfa_verified", true),
	Metadata Metadata
}

// HasRole reports whether the user carries the given role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider turns a bearer token into an identity.
//
// The open source default, NopAuthProvider, accepts anything and answers
// with the local admin user, so the service and CLI run with no identity
// infrastructure. Enterprise builds validate against an IdP (Okta, Azure
// AD) and wrap ErrUnauthorized on rejection.
//
// Implementations must be safe for concurrent use.
type AuthProvider interface {
	// Validate checks the token and returns the user's identity, or an
	// error wrapping ErrUnauthorized when the token is invalid.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// AuthzRequest is one (subject, action, resource) authorization check.
//
//	req := AuthzRequest{
//	    User:         authInfo,
//	    Action:       "delete",
//	    ResourceType: "objective",
//	    ResourceID:   "obj-123",
//	}
type AuthzRequest struct {
	// User is the identity from AuthProvider.Validate.
	User *AuthInfo

	// Action is the operation: "create", "read", "update", "delete".
	Action string

	// ResourceType is "objective", "alignment", or "key_result".
	ResourceType string

	// ResourceID names the specific record; empty means the check is for
	// the type in general.
	ResourceID string
}

// AuthzProvider decides whether a user may perform an action. The OKR
// handlers consult it on destructive objective operations (delete, manual
// status edits); a denial wraps ErrUnauthorized and surfaces as 403.
//
// Implementations must be safe for concurrent use.
type AuthzProvider interface {
	// Authorize returns nil when permitted, or an error wrapping
	// ErrUnauthorized when denied.
	Authorize(ctx context.Context, req AuthzRequest) error
}

// NopAuthProvider authenticates every token as the local admin user.
// This is the open source default for single-user deployments.
type NopAuthProvider struct{}

// Validate ignores the token and returns local-user with the admin role.
func (p *NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID: "local-user",
		Roles:  []string{"admin"},
	}, nil
}

// NopAuthzProvider allows every action. This is the open source default
// for single-user deployments.
type NopAuthzProvider struct{}

// Authorize always permits the request.
func (p *NopAuthzProvider) Authorize(_ context.Context, _ AuthzRequest) error {
	return nil
}

var (
	_ AuthProvider  = (*NopAuthProvider)(nil)
	_ AuthzProvider = (*NopAuthzProvider)(nil)
)

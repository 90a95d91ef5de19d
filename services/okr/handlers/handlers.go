// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the HTTP handlers for the OKR service.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianOKR/pkg/extensions"
	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/alignment"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/progress"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/status"
	"github.com/AleutianAI/AleutianOKR/services/okr/middleware"
	"github.com/AleutianAI/AleutianOKR/services/okr/store"
)

// ServiceVersion is the OKR service version.
const ServiceVersion = "0.1.0"

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers contains the HTTP handlers for the OKR service.
type Handlers struct {
	store      store.Store
	alignments *alignment.Manager
	aggregator *progress.Aggregator
	authz      extensions.AuthzProvider

	// defaultCalc is the process-wide roll-up method reported for
	// objectives with no override.
	defaultCalc datatypes.CalcMethod
}

// NewHandlers creates handlers over the given collaborators. A nil authz
// provider falls back to the permissive open source default.
func NewHandlers(st store.Store, mgr *alignment.Manager, agg *progress.Aggregator, authz extensions.AuthzProvider, defaultCalc datatypes.CalcMethod) *Handlers {
	if authz == nil {
		authz = &extensions.NopAuthzProvider{}
	}
	if !defaultCalc.IsValid() {
		defaultCalc = datatypes.CalcWeightedAvg
	}
	return &Handlers{
		store:       st,
		alignments:  mgr,
		aggregator:  agg,
		authz:       authz,
		defaultCalc: defaultCalc,
	}
}

// authorize consults the authz provider for the current user. On denial it
// writes the 403 response and returns false.
func (h *Handlers) authorize(c *gin.Context, action, resourceType, resourceID string) bool {
	err := h.authz.Authorize(c.Request.Context(), extensions.AuthzRequest{
		User:         middleware.GetAuthInfo(c),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// pathID returns the validated :id path parameter. Record ids are UUIDs
// minted by the service, so anything else is a malformed request; pathID
// writes the 400 response and returns false for those.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validation.ValidateRecordID(id); err != nil {
		respondBadRequest(c, err)
		return "", false
	}
	return id, true
}

// getOrCreateRequestID returns the inbound X-Request-ID, minting one when
// the client did not send it, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// respondError maps engine and store sentinel errors onto HTTP statuses.
//
//	store.ErrNotFound            -> 404 NOT_FOUND
//	alignment.ErrCycle           -> 409 CYCLE_DETECTED
//	alignment.ErrConstraintViolation -> 409 CONSTRAINT_VIOLATION
//	status.ErrCompletedLocked    -> 409 COMPLETED_LOCKED
//	alignment.ErrPermission      -> 403 FORBIDDEN
//	extensions.ErrUnauthorized   -> 403 FORBIDDEN
//	anything else                -> 500 INTERNAL
func respondError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errCode := "INTERNAL"

	switch {
	case errors.Is(err, store.ErrNotFound):
		statusCode = http.StatusNotFound
		errCode = "NOT_FOUND"
	case errors.Is(err, alignment.ErrCycle):
		statusCode = http.StatusConflict
		errCode = "CYCLE_DETECTED"
	case errors.Is(err, alignment.ErrConstraintViolation):
		statusCode = http.StatusConflict
		errCode = "CONSTRAINT_VIOLATION"
	case errors.Is(err, status.ErrCompletedLocked):
		statusCode = http.StatusConflict
		errCode = "COMPLETED_LOCKED"
	case errors.Is(err, alignment.ErrPermission), errors.Is(err, extensions.ErrUnauthorized):
		statusCode = http.StatusForbidden
		errCode = "FORBIDDEN"
	}

	c.JSON(statusCode, ErrorResponse{
		Error: err.Error(),
		Code:  errCode,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Code:  "INVALID_REQUEST",
	})
}

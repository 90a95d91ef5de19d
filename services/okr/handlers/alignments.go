// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/alignment"
	"github.com/AleutianAI/AleutianOKR/services/okr/middleware"
	"github.com/AleutianAI/AleutianOKR/services/okr/observability"
)

// HandleCreateAlignment handles POST /v1/alignments.
//
// # Description
//
// Creates a typed edge between two objectives. parent_child edges run the
// cycle detector and the mutual-exclusivity constraints before insert, and
// trigger a progress cascade from the new parent on success.
//
// Response:
//
//	201 Created: datatypes.Alignment
//	400 Bad Request: Validation error
//	403 Forbidden: Actor not permitted at the target's visibility
//	404 Not Found: Either objective unknown
//	409 Conflict: Cycle or constraint violation
func (h *Handlers) HandleCreateAlignment(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateAlignment")

	var req datatypes.CreateAlignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	actor := middleware.GetAuthInfo(c)
	edge, err := h.alignments.Create(c.Request.Context(), actor, req)
	if err != nil {
		observability.AlignmentMutationsTotal.WithLabelValues("create", "error").Inc()
		if errors.Is(err, alignment.ErrCycle) {
			observability.CycleRejectionsTotal.Inc()
		}
		logger.Warn("Alignment creation rejected", "source_id", req.SourceID, "target_id", req.TargetID, "error", err)
		respondError(c, err)
		return
	}
	observability.AlignmentMutationsTotal.WithLabelValues("create", "success").Inc()

	if edge.Type == datatypes.AlignParentChild {
		if _, err := h.aggregator.Cascade(c.Request.Context(), edge.SourceID); err != nil {
			logger.Warn("Post-alignment cascade failed", "objective_id", edge.SourceID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, edge)
}

// HandleListAlignments handles GET /v1/alignments. Supports filtering by
// source_id, target_id, and type query parameters.
func (h *Handlers) HandleListAlignments(c *gin.Context) {
	filter := datatypes.AlignmentFilter{
		SourceID: c.Query("source_id"),
		TargetID: c.Query("target_id"),
		Type:     datatypes.AlignmentType(c.Query("type")),
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		respondBadRequest(c, errors.New("invalid type filter"))
		return
	}

	edges, err := h.store.ListAlignments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alignments": edges, "count": len(edges)})
}

// HandleDeleteAlignment handles DELETE /v1/alignments/:id.
//
// Deleting a parent_child edge detaches the child and recalculates the
// former parent's progress without that contribution.
func (h *Handlers) HandleDeleteAlignment(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeleteAlignment")
	id, ok := pathID(c)
	if !ok {
		return
	}

	// Read before delete so the cascade knows the former parent.
	edge, err := h.store.GetAlignment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	actor := middleware.GetAuthInfo(c)
	if err := h.alignments.Delete(c.Request.Context(), actor, id); err != nil {
		observability.AlignmentMutationsTotal.WithLabelValues("delete", "error").Inc()
		respondError(c, err)
		return
	}
	observability.AlignmentMutationsTotal.WithLabelValues("delete", "success").Inc()

	if edge.Type == datatypes.AlignParentChild {
		if _, err := h.aggregator.Cascade(c.Request.Context(), edge.SourceID); err != nil {
			logger.Warn("Post-unalignment cascade failed", "objective_id", edge.SourceID, "error", err)
		}
	}

	c.Status(http.StatusNoContent)
}

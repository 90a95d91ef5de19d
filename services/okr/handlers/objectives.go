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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianOKR/pkg/validation"
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/status"
	"github.com/AleutianAI/AleutianOKR/services/okr/observability"
)

// HandleCreateObjective handles POST /v1/objectives.
//
// Response:
//
//	201 Created: datatypes.Objective
//	400 Bad Request: Validation error
func (h *Handlers) HandleCreateObjective(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateObjective")

	var req datatypes.CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	now := time.Now().UTC()
	obj := &datatypes.Objective{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		CycleID:     req.CycleID,
		OwnerID:     req.OwnerID,
		Visibility:  datatypes.Visibility(req.Visibility),
		Status:      datatypes.StatusDraft,
		CalcMethod:  datatypes.CalcMethod(req.CalcMethod),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.InsertObjective(c.Request.Context(), obj); err != nil {
		logger.Error("Insert objective failed", "error", err)
		respondError(c, err)
		return
	}

	logger.Info("Objective created", "objective_id", obj.ID, "owner_id", obj.OwnerID)
	c.JSON(http.StatusCreated, obj)
}

// HandleGetObjective handles GET /v1/objectives/:id.
func (h *Handlers) HandleGetObjective(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	obj, err := h.store.GetObjective(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

// HandleListObjectives handles GET /v1/objectives.
func (h *Handlers) HandleListObjectives(c *gin.Context) {
	objs, err := h.store.ListObjectives(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objectives": objs, "count": len(objs)})
}

// HandleListChildren handles GET /v1/objectives/:id/children.
func (h *Handlers) HandleListChildren(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.store.GetObjective(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	children, err := h.store.ListChildObjectives(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"objectives": children, "count": len(children)})
}

// HandleDeleteObjective handles DELETE /v1/objectives/:id. Deleting an
// objective removes its key results and every alignment touching it.
func (h *Handlers) HandleDeleteObjective(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !h.authorize(c, "delete", "objective", id) {
		return
	}

	if err := h.store.DeleteObjective(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	slog.Info("Objective deleted", "request_id", requestID, "objective_id", id)
	c.Status(http.StatusNoContent)
}

// HandleGetConstraints handles GET /v1/objectives/:id/constraints.
//
// Response:
//
//	200 OK: datatypes.ConstraintsResponse
//	404 Not Found: Unknown objective
func (h *Handlers) HandleGetConstraints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.store.GetObjective(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	set, err := h.alignments.Constraints().Check(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, datatypes.ConstraintsResponse{
		ObjectiveID:              id,
		HasKeyResults:            set.HasKeyResults,
		HasChildAlignments:       set.HasChildAlignments,
		CanCreateChildAlignments: set.CanCreateChildAlignments,
		CanCreateKeyResults:      set.CanCreateKeyResults,
	})
}

// HandleUpdateStatus handles PUT /v1/objectives/:id/status.
//
// A manual status edit is rejected with 409 COMPLETED_LOCKED while the
// objective sits at 100% progress.
func (h *Handlers) HandleUpdateStatus(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpdateStatus")
	id, ok := pathID(c)
	if !ok {
		return
	}
	if !h.authorize(c, "update", "objective", id) {
		return
	}

	var req datatypes.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	obj, err := h.store.GetObjective(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	requested := datatypes.Status(req.Status)
	if err := status.ValidateManualEdit(obj, requested); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.store.UpdateObjective(c.Request.Context(), id, datatypes.ObjectivePatch{Status: &requested})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("Objective status updated", "objective_id", id, "status", string(requested))
	c.JSON(http.StatusOK, updated)
}

// HandleUpdateProgress handles PUT /v1/objectives/:id/progress.
//
// # Description
//
// Directly sets an objective's progress, derives the resulting status
// (100 forces completed, a draft gaining progress auto-advances to
// in_progress), and cascades the change to every ancestor.
func (h *Handlers) HandleUpdateProgress(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpdateProgress")
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req datatypes.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	obj, err := h.store.GetObjective(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	newProgress := validation.ClampProgress(req.Progress)
	newStatus := status.DeriveOnProgress(obj.Status, newProgress, datatypes.Status(req.Status))

	updated, err := h.store.UpdateObjective(c.Request.Context(), id, datatypes.ObjectivePatch{
		Progress: &newProgress,
		Status:   &newStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.aggregator.CascadeAncestors(c.Request.Context(), id); err != nil {
		// The objective itself is committed; an ancestor roll-up failure is
		// logged and healed by the next recalculation.
		logger.Warn("Ancestor cascade failed", "objective_id", id, "error", err)
	}

	logger.Info("Objective progress updated", "objective_id", id, "progress", newProgress)
	c.JSON(http.StatusOK, updated)
}

// HandleRecalculate handles POST /v1/objectives/:id/recalculate.
//
// # Description
//
// Recomputes the objective's progress from its key results or child
// objectives. With ?cascade=true the recalculation walks every ancestor
// up to the root, bottom-up.
//
// Response:
//
//	200 OK: datatypes.RecalculateResponse
//	404 Not Found: Unknown objective
func (h *Handlers) HandleRecalculate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRecalculate")
	id, ok := pathID(c)
	if !ok {
		return
	}
	cascade := c.Query("cascade") == "true"

	var (
		result datatypes.RecalculateResponse
		err    error
	)
	if cascade {
		chain, cerr := h.aggregator.Cascade(c.Request.Context(), id)
		err = cerr
		if cerr == nil {
			observability.CascadeDepth.Observe(float64(len(chain)))
			result = datatypes.RecalculateResponse{
				ObjectiveID:   chain[0].ObjectiveID,
				Progress:      chain[0].Progress,
				Underweighted: chain[0].Underweighted,
				Cascaded:      true,
			}
		}
	} else {
		res, rerr := h.aggregator.Recalculate(c.Request.Context(), id)
		err = rerr
		if rerr == nil {
			result = datatypes.RecalculateResponse{
				ObjectiveID:   res.ObjectiveID,
				Progress:      res.Progress,
				Underweighted: res.Underweighted,
			}
		}
	}

	if err != nil {
		observability.RecalculationsTotal.WithLabelValues("error").Inc()
		logger.Error("Recalculation failed", "objective_id", id, "error", err)
		respondError(c, err)
		return
	}

	observability.RecalculationsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, result)
}

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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
	"github.com/AleutianAI/AleutianOKR/services/okr/engine/alignment"
)

// HandleCreateKeyResult handles POST /v1/objectives/:id/keyresults.
//
// # Description
//
// Attaches a measurable key result to an objective. Rejected with 409 when
// the objective already has child alignments: an objective rolls up from
// key results or from children, never both.
//
// Response:
//
//	201 Created: datatypes.KeyResult
//	400 Bad Request: Validation error
//	404 Not Found: Unknown objective
//	409 Conflict: Objective has child alignments
func (h *Handlers) HandleCreateKeyResult(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCreateKeyResult")
	objectiveID, ok := pathID(c)
	if !ok {
		return
	}

	var req datatypes.CreateKeyResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	if _, err := h.store.GetObjective(c.Request.Context(), objectiveID); err != nil {
		respondError(c, err)
		return
	}

	set, err := h.alignments.Constraints().Check(c.Request.Context(), objectiveID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !set.CanCreateKeyResults {
		respondError(c, fmt.Errorf("%w: objective %s has child alignments and cannot have key results",
			alignment.ErrConstraintViolation, objectiveID))
		return
	}

	now := time.Now().UTC()
	kr := &datatypes.KeyResult{
		ID:              uuid.New().String(),
		ObjectiveID:     objectiveID,
		Title:           req.Title,
		MeasurementType: datatypes.MeasurementType(req.MeasurementType),
		StartValue:      req.StartValue,
		CurrentValue:    req.StartValue,
		TargetValue:     req.TargetValue,
		Weight:          req.Weight,
		Status:          datatypes.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.store.InsertKeyResult(c.Request.Context(), kr); err != nil {
		logger.Error("Insert key result failed", "error", err)
		respondError(c, err)
		return
	}

	if _, err := h.aggregator.Cascade(c.Request.Context(), objectiveID); err != nil {
		logger.Warn("Post-create cascade failed", "objective_id", objectiveID, "error", err)
	}

	logger.Info("Key result created", "key_result_id", kr.ID, "objective_id", objectiveID)
	c.JSON(http.StatusCreated, kr)
}

// HandleListKeyResults handles GET /v1/objectives/:id/keyresults.
func (h *Handlers) HandleListKeyResults(c *gin.Context) {
	objectiveID, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.store.GetObjective(c.Request.Context(), objectiveID); err != nil {
		respondError(c, err)
		return
	}

	krs, err := h.store.ListKeyResults(c.Request.Context(), objectiveID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key_results": krs, "count": len(krs)})
}

// HandleUpdateKeyResultValue handles PUT /v1/keyresults/:id/value.
//
// # Description
//
// Updates the measured value, recomputes the key result's derived progress,
// and cascades the owning objective's roll-up to the root.
//
// Response:
//
//	200 OK: datatypes.KeyResult
//	400 Bad Request: Validation error
//	404 Not Found: Unknown key result
func (h *Handlers) HandleUpdateKeyResultValue(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleUpdateKeyResultValue")
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req datatypes.UpdateKeyResultValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondBadRequest(c, err)
		return
	}

	kr, err := h.store.UpdateKeyResultValue(c.Request.Context(), id, req.CurrentValue, req.BooleanValue)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.aggregator.Cascade(c.Request.Context(), kr.ObjectiveID); err != nil {
		logger.Warn("Post-update cascade failed", "objective_id", kr.ObjectiveID, "error", err)
	}

	logger.Info("Key result value updated", "key_result_id", id, "progress", kr.Progress)
	c.JSON(http.StatusOK, kr)
}

// HandleDeleteKeyResult handles DELETE /v1/keyresults/:id.
func (h *Handlers) HandleDeleteKeyResult(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleDeleteKeyResult")
	id, ok := pathID(c)
	if !ok {
		return
	}

	kr, err := h.store.GetKeyResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.DeleteKeyResult(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.aggregator.Cascade(c.Request.Context(), kr.ObjectiveID); err != nil {
		logger.Warn("Post-delete cascade failed", "objective_id", kr.ObjectiveID, "error", err)
	}

	logger.Info("Key result deleted", "key_result_id", id, "objective_id", kr.ObjectiveID)
	c.Status(http.StatusNoContent)
}

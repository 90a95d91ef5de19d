// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for values that
// end up in the record store.
//
// Weight and progress values from user input are normalized here so every
// write path applies the same correction. Out-of-range weights are clamped,
// not rejected: the product treats a weight of 1.3 as "1" rather than
// surfacing an error for a slider the UI should have bounded.
package validation

import (
	"fmt"

	"github.com/google/uuid"
)

// ClampWeight forces a roll-up weight into [0, 1].
//
// Values below 0 become 0, values above 1 become 1. NaN becomes 0 so a
// corrupt input can never poison a weighted sum.
func ClampWeight(w float64) float64 {
	if w != w { // NaN
		return 0
	}
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// ClampProgress forces a progress percentage into [0, 100].
func ClampProgress(p float64) float64 {
	if p != p { // NaN
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ValidateRecordID checks that an id is a well-formed UUID.
//
// All record ids in the OKR service are UUIDs minted by the service itself,
// so anything else in a path parameter is a malformed request, not a lookup
// miss.
//
// Example:
//
//	if err := validation.ValidateRecordID(objectiveID); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid record id %q: %w", id, err)
	}
	return nil
}

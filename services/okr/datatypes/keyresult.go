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

// MeasurementType describes how a key result's value is measured.
type MeasurementType string

const (
	MeasurementNumeric    MeasurementType = "numeric"
	MeasurementPercentage MeasurementType = "percentage"
	MeasurementCurrency   MeasurementType = "currency"
	MeasurementBoolean    MeasurementType = "boolean"
)

// IsValid reports whether m is one of the defined measurement types.
func (m MeasurementType) IsValid() bool {
	switch m {
	case MeasurementNumeric, MeasurementPercentage, MeasurementCurrency, MeasurementBoolean:
		return true
	}
	return false
}

// KeyResult is a leaf measurable outcome attached to an objective.
//
// # Invariants
//
//   - Weight is clamped into [0, 1] before persistence. Out-of-range values
//     are silently corrected, not rejected.
//   - Progress is derived from the current value against the target and is
//     always in [0, 100].
//   - A key result may only be created when the owning objective has no
//     outgoing parent_child alignments (see engine/alignment.Constraints).
type KeyResult struct {
	ID          string `json:"id"`
	ObjectiveID string `json:"objective_id"`
	Title       string `json:"title"`

	MeasurementType MeasurementType `json:"measurement_type"`

	// StartValue, CurrentValue and TargetValue apply to numeric, percentage
	// and currency measurements.
	StartValue   float64 `json:"start_value"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`

	// BooleanValue applies to boolean measurements: done or not done.
	BooleanValue bool `json:"boolean_value"`

	Weight   float64 `json:"weight"`
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeProgress derives the progress percentage from the key result's
// values according to its measurement type.
//
// Boolean measurements are all-or-nothing. For the numeric family the
// progress is (current-start)/(target-start), clamped to [0, 100]. A target
// equal to the start yields 0 to avoid a division by zero.
func (k *KeyResult) ComputeProgress() float64 {
	if k.MeasurementType == MeasurementBoolean {
		if k.BooleanValue {
			return 100
		}
		return 0
	}

	span := k.TargetValue - k.StartValue
	if span == 0 {
		return 0
	}
	pct := (k.CurrentValue - k.StartValue) / span * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

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

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxTitleLength bounds objective and key result titles.
	MaxTitleLength = 256

	// MaxDescriptionLength bounds objective descriptions.
	MaxDescriptionLength = 8 * 1024
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// okrValidate is the validator instance for OKR request datatypes, driven
// by the `validate:` struct tags below. Initialized in init() with the
// custom enum validators those tags reference.
var okrValidate *validator.Validate

func init() {
	okrValidate = validator.New()

	// Enum validators so the struct tags can say "okrstatus" etc. instead
	// of repeating oneof lists that drift from the type definitions.
	_ = okrValidate.RegisterValidation("okrstatus", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	_ = okrValidate.RegisterValidation("okrvisibility", func(fl validator.FieldLevel) bool {
		return Visibility(fl.Field().String()).IsValid()
	})
	_ = okrValidate.RegisterValidation("okrcalcmethod", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || CalcMethod(s).IsValid()
	})
	_ = okrValidate.RegisterValidation("okraligntype", func(fl validator.FieldLevel) bool {
		return AlignmentType(fl.Field().String()).IsValid()
	})
	_ = okrValidate.RegisterValidation("okrmeasurement", func(fl validator.FieldLevel) bool {
		return MeasurementType(fl.Field().String()).IsValid()
	})
}

// =============================================================================
// Request Structures
// =============================================================================

// CreateObjectiveRequest creates a new objective. Status is always draft at
// creation and cannot be supplied by the caller.
type CreateObjectiveRequest struct {
	Title       string `json:"title" binding:"required,max=256" validate:"required,max=256"`
	Description string `json:"description" binding:"max=8192" validate:"max=8192"`
	CycleID     string `json:"cycle_id"`
	OwnerID     string `json:"owner_id" binding:"required" validate:"required"`
	Visibility  string `json:"visibility" binding:"required" validate:"required,okrvisibility"`
	CalcMethod  string `json:"calc_method" validate:"okrcalcmethod"`
}

// Validate checks enum fields beyond what gin's binding covers.
func (r *CreateObjectiveRequest) Validate() error {
	if err := okrValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid objective request: %w", err)
	}
	return nil
}

// CreateAlignmentRequest creates an alignment edge between two objectives.
type CreateAlignmentRequest struct {
	SourceID string  `json:"source_id" binding:"required" validate:"required"`
	TargetID string  `json:"target_id" binding:"required" validate:"required"`
	Type     string  `json:"type" binding:"required" validate:"required,okraligntype"`
	Weight   float64 `json:"weight"`
}

// Validate checks the endpoints and the alignment type enum. The weight is
// not validated here: out-of-range weights are clamped at write time, not
// rejected.
func (r *CreateAlignmentRequest) Validate() error {
	if err := okrValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid alignment request: %w", err)
	}
	return nil
}

// CreateKeyResultRequest creates a key result under an objective.
type CreateKeyResultRequest struct {
	Title           string  `json:"title" binding:"required,max=256" validate:"required,max=256"`
	MeasurementType string  `json:"measurement_type" binding:"required" validate:"required,okrmeasurement"`
	StartValue      float64 `json:"start_value"`
	TargetValue     float64 `json:"target_value"`
	Weight          float64 `json:"weight"`
}

// Validate checks the measurement type and the value span.
func (r *CreateKeyResultRequest) Validate() error {
	if err := okrValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid key result request: %w", err)
	}
	mt := MeasurementType(r.MeasurementType)
	if mt != MeasurementBoolean && r.TargetValue == r.StartValue {
		return fmt.Errorf("target_value must differ from start_value for %s measurements", mt)
	}
	return nil
}

// UpdateKeyResultValueRequest updates a key result's measured value.
type UpdateKeyResultValueRequest struct {
	CurrentValue *float64 `json:"current_value,omitempty"`
	BooleanValue *bool    `json:"boolean_value,omitempty"`
}

// Validate requires exactly one value field.
func (r *UpdateKeyResultValueRequest) Validate() error {
	if (r.CurrentValue == nil) == (r.BooleanValue == nil) {
		return fmt.Errorf("exactly one of current_value or boolean_value must be set")
	}
	return nil
}

// UpdateStatusRequest updates an objective's lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" validate:"required,okrstatus"`
}

// Validate checks the status enum.
func (r *UpdateStatusRequest) Validate() error {
	if err := okrValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid status request: %w", err)
	}
	return nil
}

// UpdateProgressRequest updates an objective's progress percentage directly.
// Status, when present, is applied subject to the transition rules.
type UpdateProgressRequest struct {
	Progress float64 `json:"progress" binding:"gte=0,lte=100" validate:"gte=0,lte=100"`
	Status   string  `json:"status,omitempty" validate:"omitempty,okrstatus"`
}

// Validate checks the progress range and the optional status enum.
func (r *UpdateProgressRequest) Validate() error {
	if err := okrValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid progress request: %w", err)
	}
	return nil
}

// =============================================================================
// Response Structures
// =============================================================================

// ConstraintsResponse is the per-objective creation constraint set.
type ConstraintsResponse struct {
	ObjectiveID              string `json:"objective_id"`
	HasKeyResults            bool   `json:"has_key_results"`
	HasChildAlignments       bool   `json:"has_child_alignments"`
	CanCreateChildAlignments bool   `json:"can_create_child_alignments"`
	CanCreateKeyResults      bool   `json:"can_create_key_results"`
}

// RecalculateResponse reports a roll-up result.
type RecalculateResponse struct {
	ObjectiveID   string  `json:"objective_id"`
	Progress      float64 `json:"progress"`
	Underweighted bool    `json:"underweighted"`
	Cascaded      bool    `json:"cascaded"`
}

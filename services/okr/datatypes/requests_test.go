// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateObjectiveRequestValidate verifies enum checking beyond gin's
// binding tags.
func TestCreateObjectiveRequestValidate(t *testing.T) {
	req := CreateObjectiveRequest{
		Title:      "Grow revenue",
		OwnerID:    "u-1",
		Visibility: "team",
	}
	require.NoError(t, req.Validate())

	req.Visibility = "everyone"
	assert.Error(t, req.Validate())

	req.Visibility = "team"
	req.CalcMethod = "weighted_median"
	assert.Error(t, req.Validate())

	req.CalcMethod = "weighted_sum"
	assert.NoError(t, req.Validate())
}

// TestCreateAlignmentRequestValidate verifies the type enum check.
func TestCreateAlignmentRequestValidate(t *testing.T) {
	req := CreateAlignmentRequest{SourceID: "a", TargetID: "b", Type: "parent_child"}
	require.NoError(t, req.Validate())

	req.Type = "blocks"
	assert.Error(t, req.Validate())
}

// TestCreateKeyResultRequestValidate verifies the measurement enum and the
// zero-span rejection.
func TestCreateKeyResultRequestValidate(t *testing.T) {
	req := CreateKeyResultRequest{
		Title:           "Close 10 deals",
		MeasurementType: "numeric",
		StartValue:      0,
		TargetValue:     10,
	}
	require.NoError(t, req.Validate())

	req.TargetValue = 0
	assert.Error(t, req.Validate(), "target equal to start must be rejected")

	boolReq := CreateKeyResultRequest{Title: "Ship v2", MeasurementType: "boolean"}
	assert.NoError(t, boolReq.Validate(), "boolean measurements have no span")
}

// TestUpdateStatusRequestValidate verifies the status enum tag rejects
// unknown and empty values.
func TestUpdateStatusRequestValidate(t *testing.T) {
	require.NoError(t, (&UpdateStatusRequest{Status: "at_risk"}).Validate())
	assert.Error(t, (&UpdateStatusRequest{Status: "paused"}).Validate())
	assert.Error(t, (&UpdateStatusRequest{}).Validate(), "status is required")
}

// TestUpdateProgressRequestValidate verifies the range and the optional
// status enum.
func TestUpdateProgressRequestValidate(t *testing.T) {
	require.NoError(t, (&UpdateProgressRequest{Progress: 50}).Validate())
	require.NoError(t, (&UpdateProgressRequest{Progress: 50, Status: "on_track"}).Validate())
	assert.Error(t, (&UpdateProgressRequest{Progress: 120}).Validate())
	assert.Error(t, (&UpdateProgressRequest{Progress: 50, Status: "paused"}).Validate())
}

// TestUpdateKeyResultValueRequestValidate verifies the exactly-one-of rule.
func TestUpdateKeyResultValueRequestValidate(t *testing.T) {
	assert.Error(t, (&UpdateKeyResultValueRequest{}).Validate())

	v := 5.0
	b := true
	assert.Error(t, (&UpdateKeyResultValueRequest{CurrentValue: &v, BooleanValue: &b}).Validate())
	assert.NoError(t, (&UpdateKeyResultValueRequest{CurrentValue: &v}).Validate())
	assert.NoError(t, (&UpdateKeyResultValueRequest{BooleanValue: &b}).Validate())
}

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
)

// TestComputeProgressNumeric verifies the (current-start)/(target-start)
// derivation and its clamping.
func TestComputeProgressNumeric(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		current float64
		target  float64
		want    float64
	}{
		{"halfway", 0, 50, 100, 50},
		{"complete", 0, 100, 100, 100},
		{"overshoot clamps to 100", 0, 150, 100, 100},
		{"below start clamps to 0", 10, 5, 100, 0},
		{"nonzero start", 100, 150, 200, 50},
		{"decreasing target", 100, 75, 50, 50},
		{"zero span yields 0", 10, 10, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kr := KeyResult{
				MeasurementType: MeasurementNumeric,
				StartValue:      tt.start,
				CurrentValue:    tt.current,
				TargetValue:     tt.target,
			}
			assert.InDelta(t, tt.want, kr.ComputeProgress(), 1e-9)
		})
	}
}

// TestComputeProgressBoolean verifies boolean measurements are
// all-or-nothing.
func TestComputeProgressBoolean(t *testing.T) {
	kr := KeyResult{MeasurementType: MeasurementBoolean}
	assert.Equal(t, 0.0, kr.ComputeProgress())

	kr.BooleanValue = true
	assert.Equal(t, 100.0, kr.ComputeProgress())
}

// TestEffectiveCalcMethod verifies the per-objective override wins over
// the process default.
func TestEffectiveCalcMethod(t *testing.T) {
	obj := Objective{}
	assert.Equal(t, CalcWeightedAvg, obj.EffectiveCalcMethod(CalcWeightedAvg))

	obj.CalcMethod = CalcWeightedSum
	assert.Equal(t, CalcWeightedSum, obj.EffectiveCalcMethod(CalcWeightedAvg))

	obj.CalcMethod = "bogus"
	assert.Equal(t, CalcWeightedAvg, obj.EffectiveCalcMethod(CalcWeightedAvg))
}

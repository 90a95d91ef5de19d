// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParsePersonalityLevel verifies aliases and the full fallback.
func TestParsePersonalityLevel(t *testing.T) {
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("full"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("F"))
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel("minimal"))
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel("min"))
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("machine"))
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("quiet"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel("nonsense"))
	assert.Equal(t, PersonalityFull, ParsePersonalityLevel(""))
}

// TestSetPersonalityLevel verifies the setter round-trips.
func TestSetPersonalityLevel(t *testing.T) {
	orig := GetPersonality().Level
	defer SetPersonalityLevel(orig)

	SetPersonalityLevel(PersonalityMachine)
	assert.Equal(t, PersonalityMachine, GetPersonality().Level)

	SetPersonalityLevel(PersonalityMinimal)
	assert.Equal(t, PersonalityMinimal, GetPersonality().Level)
}

// TestDetectPersonalityEnvOverride verifies OKR_CLI_OUTPUT wins over TTY
// detection.
func TestDetectPersonalityEnvOverride(t *testing.T) {
	t.Setenv("OKR_CLI_OUTPUT", "machine")
	assert.Equal(t, PersonalityMachine, DetectPersonality())

	t.Setenv("OKR_CLI_OUTPUT", "minimal")
	assert.Equal(t, PersonalityMinimal, DetectPersonality())
}

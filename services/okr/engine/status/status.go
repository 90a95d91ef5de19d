// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package status derives and validates objective lifecycle transitions.
//
// The rules are deliberately small:
//
//   - Progress 100 forces completed, whatever else was requested.
//   - While progress is 100, a manual move to any non-completed status is
//     rejected; reopening requires lowering progress first.
//   - A draft objective whose progress rises above 0 auto-advances to
//     in_progress unless the caller explicitly asked for at_risk, on_track
//     or completed in the same update.
//   - Everything else is settable verbatim. at_risk, on_track and
//     in_progress are freely inter-settable; there is no terminal state.
package status

import (
	"errors"

	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
)

// ErrCompletedLocked indicates a manual status edit was rejected because
// the objective's progress is 100. A fully complete objective stays
// completed until its progress is reduced.
var ErrCompletedLocked = errors.New("objective is at 100% progress and must remain completed")

// ValidateManualEdit checks a manual status change against the current
// objective state. It does not apply the change.
func ValidateManualEdit(current *datatypes.Objective, requested datatypes.Status) error {
	if current.Progress == 100 && requested != datatypes.StatusCompleted {
		return ErrCompletedLocked
	}
	return nil
}

// DeriveOnProgress returns the status an objective lands in after a
// progress update.
//
// # Inputs
//
//   - current: Status before the update.
//   - newProgress: Progress after the update, already clamped to [0, 100].
//   - requested: Status explicitly asked for in the same update, or empty
//     when the caller only changed progress.
//
// # Outputs
//
//   - datatypes.Status: The resulting status. Progress 100 always yields
//     completed; a draft gaining progress auto-advances to in_progress
//     unless the caller explicitly chose at_risk, on_track or completed.
func DeriveOnProgress(current datatypes.Status, newProgress float64, requested datatypes.Status) datatypes.Status {
	if newProgress == 100 {
		return datatypes.StatusCompleted
	}

	explicit := requested == datatypes.StatusAtRisk ||
		requested == datatypes.StatusOnTrack ||
		requested == datatypes.StatusCompleted

	if current == datatypes.StatusDraft && newProgress > 0 && !explicit {
		return datatypes.StatusInProgress
	}

	if requested != "" {
		return requested
	}
	return current
}

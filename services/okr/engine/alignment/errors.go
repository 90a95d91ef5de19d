// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package alignment

import "errors"

// Sentinel errors for the alignment engine. Handlers map these to HTTP
// statuses; the messages stay specific because the same error surface is
// reused for very different root causes and operators need to tell "change
// the input" apart from "retry" and "escalate".
var (
	// ErrCycle indicates the proposed parent_child edge would close a loop
	// in the alignment graph.
	ErrCycle = errors.New("alignment would create a circular dependency")

	// ErrConstraintViolation indicates the mutual-exclusivity rule between
	// key results and child alignments would be breached.
	ErrConstraintViolation = errors.New("mutually-exclusive constraint violated")

	// ErrPermission indicates the actor's roles do not allow creating an
	// alignment at the objective's visibility level.
	ErrPermission = errors.New("not permitted to create alignments at this visibility level")
)

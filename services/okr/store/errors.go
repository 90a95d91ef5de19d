// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import "errors"

// Sentinel errors for record store operations. Engine packages and handlers
// distinguish root causes with errors.Is so operators can tell "not found"
// from "underlying storage error" when deciding whether to retry.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrStore indicates an underlying persistence failure. Implementations
	// wrap the driver error with this sentinel.
	ErrStore = errors.New("storage error")
)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianOKR/pkg/ux"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the OKR server's health",
	Run:   runHealthCommand,
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	var resp struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Error   string `json:"error,omitempty"`
	}
	if err := callAPI("GET", "/v1/health", nil, &resp); err != nil {
		ux.Error(fmt.Sprintf("Server unreachable: %v", err))
		os.Exit(1)
	}

	if resp.Status == "ok" {
		ux.Success(fmt.Sprintf("Server healthy (version %s)", resp.Version))
		return
	}
	ux.Warning(fmt.Sprintf("Server degraded: %s", resp.Error))
	os.Exit(1)
}

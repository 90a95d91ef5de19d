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
	"github.com/AleutianAI/AleutianOKR/services/okr/datatypes"
)

var (
	recalcCascade bool

	recalcCmd = &cobra.Command{
		Use:   "recalc [objective-id]",
		Short: "Recalculate an objective's progress from its children",
		Long: `Recomputes the weighted progress roll-up for an objective from its
key results or child objectives. With --cascade the recalculation
propagates to every ancestor up to the root.`,
		Args: cobra.ExactArgs(1),
		Run:  runRecalcCommand,
	}
)

func init() {
	recalcCmd.Flags().BoolVar(&recalcCascade, "cascade", false,
		"Also recalculate every ancestor up to the root")
}

func runRecalcCommand(cmd *cobra.Command, args []string) {
	path := "/v1/objectives/" + args[0] + "/recalculate"
	if recalcCascade {
		path += "?cascade=true"
	}

	var resp datatypes.RecalculateResponse
	if err := callAPI("POST", path, nil, &resp); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	ux.Success(fmt.Sprintf("Objective %s recalculated: %s",
		resp.ObjectiveID, ux.ProgressBar(resp.Progress, 20)))
	if resp.Underweighted {
		ux.Warning("Contributing weights sum to less than 1; progress may understate reality.")
	}
	if resp.Cascaded {
		ux.Muted("Ancestors recalculated.")
	}
}

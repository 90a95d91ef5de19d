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
	alignType   string
	alignWeight float64

	alignCmd = &cobra.Command{
		Use:   "align [parent-id] [child-id]",
		Short: "Create an alignment edge between two objectives",
		Long: `Creates an alignment from a parent objective to a child objective.
parent_child edges (the default) form the roll-up hierarchy and are
rejected if they would create a cycle or violate the key-result
exclusivity constraint.`,
		Args: cobra.ExactArgs(2),
		Run:  runAlignCommand,
	}

	unalignCmd = &cobra.Command{
		Use:   "unalign [alignment-id]",
		Short: "Delete an alignment edge",
		Args:  cobra.ExactArgs(1),
		Run:   runUnalignCommand,
	}
)

func init() {
	alignCmd.Flags().StringVar(&alignType, "type", "parent_child",
		"Alignment type: parent_child, supports, or related")
	alignCmd.Flags().Float64Var(&alignWeight, "weight", 1.0,
		"Contribution weight in [0, 1]")
}

func runAlignCommand(cmd *cobra.Command, args []string) {
	req := map[string]any{
		"source_id": args[0],
		"target_id": args[1],
		"type":      alignType,
		"weight":    alignWeight,
	}

	var edge datatypes.Alignment
	if err := callAPI("POST", "/v1/alignments", req, &edge); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Aligned %s -> %s (%s, weight %.2f, id %s)",
		edge.SourceID, edge.TargetID, string(edge.Type), edge.Weight, edge.ID))
}

func runUnalignCommand(cmd *cobra.Command, args []string) {
	if err := callAPI("DELETE", "/v1/alignments/"+args[0], nil, nil); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ux.Success("Alignment deleted: " + args[0])
}

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
	objectiveOwner      string
	objectiveVisibility string
	objectiveCycle      string
	objectiveCalcMethod string

	objectiveCmd = &cobra.Command{
		Use:   "objective",
		Short: "Inspect and manage objectives",
	}

	objectiveListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all objectives with their progress",
		Run:   runObjectiveList,
	}

	objectiveGetCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Show one objective with its constraints and key results",
		Args:  cobra.ExactArgs(1),
		Run:   runObjectiveGet,
	}

	objectiveCreateCmd = &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new objective in draft status",
		Args:  cobra.ExactArgs(1),
		Run:   runObjectiveCreate,
	}
)

func init() {
	objectiveCreateCmd.Flags().StringVar(&objectiveOwner, "owner", "local-user", "Owner user id")
	objectiveCreateCmd.Flags().StringVar(&objectiveVisibility, "visibility", "team",
		"Visibility: private, team, department, or organization")
	objectiveCreateCmd.Flags().StringVar(&objectiveCycle, "cycle", "", "Cycle id (e.g. 2026-Q3)")
	objectiveCreateCmd.Flags().StringVar(&objectiveCalcMethod, "calc-method", "",
		"Roll-up method override: weighted_sum or weighted_avg")

	objectiveCmd.AddCommand(objectiveListCmd)
	objectiveCmd.AddCommand(objectiveGetCmd)
	objectiveCmd.AddCommand(objectiveCreateCmd)
}

func statusIcon(s datatypes.Status) ux.Icon {
	switch s {
	case datatypes.StatusCompleted:
		return ux.IconSuccess
	case datatypes.StatusAtRisk:
		return ux.IconWarning
	default:
		return ux.IconBullet
	}
}

func runObjectiveList(cmd *cobra.Command, args []string) {
	var resp struct {
		Objectives []datatypes.Objective `json:"objectives"`
		Count      int                   `json:"count"`
	}
	if err := callAPI("GET", "/v1/objectives", nil, &resp); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	ux.Title(fmt.Sprintf("Objectives (%d)", resp.Count))
	for _, obj := range resp.Objectives {
		detail := fmt.Sprintf("%s %s  %s", obj.ID, string(obj.Status), ux.ProgressBar(obj.Progress, 20))
		ux.ObjectiveLine(statusIcon(obj.Status), obj.Title, detail)
	}
}

func runObjectiveGet(cmd *cobra.Command, args []string) {
	id := args[0]

	var obj datatypes.Objective
	if err := callAPI("GET", "/v1/objectives/"+id, nil, &obj); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	var constraints datatypes.ConstraintsResponse
	if err := callAPI("GET", "/v1/objectives/"+id+"/constraints", nil, &constraints); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	content := fmt.Sprintf("Status: %s\nProgress: %s\nOwner: %s\nVisibility: %s",
		string(obj.Status), ux.ProgressBar(obj.Progress, 20), obj.OwnerID, string(obj.Visibility))
	if obj.ParentID != "" {
		content += "\nParent: " + obj.ParentID
	}
	ux.Box(obj.Title, content)

	if constraints.HasKeyResults {
		var krResp struct {
			KeyResults []datatypes.KeyResult `json:"key_results"`
		}
		if err := callAPI("GET", "/v1/objectives/"+id+"/keyresults", nil, &krResp); err != nil {
			ux.Error(err.Error())
			os.Exit(1)
		}
		ux.Muted("Key results:")
		for _, kr := range krResp.KeyResults {
			ux.ObjectiveLine(statusIcon(kr.Status), kr.Title,
				fmt.Sprintf("weight %.2f  %s", kr.Weight, ux.ProgressBar(kr.Progress, 12)))
		}
	}
	if constraints.HasChildAlignments {
		ux.Muted("Progress rolls up from child objectives.")
	}
}

func runObjectiveCreate(cmd *cobra.Command, args []string) {
	req := map[string]any{
		"title":      args[0],
		"owner_id":   objectiveOwner,
		"visibility": objectiveVisibility,
	}
	if objectiveCycle != "" {
		req["cycle_id"] = objectiveCycle
	}
	if objectiveCalcMethod != "" {
		req["calc_method"] = objectiveCalcMethod
	}

	var obj datatypes.Objective
	if err := callAPI("POST", "/v1/objectives", req, &obj); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("Created objective %s (%s)", obj.Title, obj.ID))
}

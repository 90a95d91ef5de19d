// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command okr is the CLI for the AleutianOKR service: inspect objectives,
// manage alignments, and trigger progress roll-ups from the terminal.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianOKR/pkg/ux"
)

var (
	serverURL  string
	outputMode string

	rootCmd = &cobra.Command{
		Use:   "okr",
		Short: "A CLI to manage objectives and key results on an AleutianOKR server",
		Long: `okr talks to a running AleutianOKR service to create objectives,
align them into a hierarchy, update key result values, and trigger
weighted progress roll-ups.`,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"OKR server base URL (default $OKR_SERVER_URL or http://localhost:12220)")
	rootCmd.PersistentFlags().StringVarP(&outputMode, "output", "o", "",
		"Output mode: full, minimal, or machine (default auto-detected)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if outputMode != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(outputMode))
		} else {
			ux.SetPersonalityLevel(ux.DetectPersonality())
		}

		if serverURL == "" {
			serverURL = os.Getenv("OKR_SERVER_URL")
		}
		if serverURL == "" {
			serverURL = "http://localhost:12220"
		}
	}

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(objectiveCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(unalignCmd)
	rootCmd.AddCommand(recalcCmd)
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/persist"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := persist.GetVersionInfo()
			commit := info.GitCommit
			if info.Modified {
				commit += " (modified)"
			}
			fmt.Fprintf(a.out, "persistq version %s\n", info.Version)
			fmt.Fprintf(a.out, "Git commit: %s\n", commit)
			fmt.Fprintf(a.out, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(a.out, "Go version: %s\n", info.GoVersion)
		},
	}
}

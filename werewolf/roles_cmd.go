package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gosuda/werewolf/werewolf/engine"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the role cards a deck can contain",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tTITLE\tTEAM\tDESCRIPTION")
		for _, spec := range engine.Catalog() {
			team := ""
			if len(spec.Subgroups) > 0 {
				team = string(spec.Subgroups[0])
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Kind, spec.Title, team, spec.Description)
		}
		return w.Flush()
	},
}

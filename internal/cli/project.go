package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage authoring projects",
	}

	createCmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new authoring project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			project, err := ac.CreateProject(cmd.Context(), args[0])
			if err != nil {
				exitErr("create project", err)
			}
			b, _ := json.MarshalIndent(project, "", "  ")
			fmt.Println(string(b))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [project-id]",
		Short: "Delete a project and cascade its memory and chapter records",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := ac.DeleteProject(cmd.Context(), args[0]); err != nil {
				exitErr("delete project", err)
			}
			fmt.Println("deleted")
		},
	}

	projectCmd.AddCommand(createCmd, deleteCmd)
	RootCmd.AddCommand(projectCmd)
}

package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loomtale/engine/internal/domain/entity"
)

func init() {
	var mode, constraints string

	generateCmd := &cobra.Command{
		Use:   "generate [project-id] [chapter-number]",
		Short: "Generate a chapter directly, bypassing the conversational pipeline",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			chapterNumber, err := strconv.Atoi(args[1])
			if err != nil {
				exitErr("generate", fmt.Errorf("chapter number must be an integer: %w", err))
			}

			record, err := ac.GenerateChapter(cmd.Context(), args[0], chapterNumber, entity.GenerationMode(mode), constraints)
			if err != nil {
				exitErr("generate", err)
			}
			b, _ := json.MarshalIndent(record, "", "  ")
			fmt.Println(string(b))
		},
	}
	generateCmd.Flags().StringVar(&mode, "mode", string(entity.ModeFull), "Generation mode: FULL, CONTINUE, EXPAND, REWRITE, OUTLINE")
	generateCmd.Flags().StringVar(&constraints, "constraints", "", "Free-text constraints for this attempt")

	listCmd := &cobra.Command{
		Use:   "list [project-id]",
		Short: "List every generation record for a project",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			records, err := ac.ListGenerations(cmd.Context(), args[0])
			if err != nil {
				exitErr("list", err)
			}
			b, _ := json.MarshalIndent(records, "", "  ")
			fmt.Println(string(b))
		},
	}

	RootCmd.AddCommand(generateCmd, listCmd)
}

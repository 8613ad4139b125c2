package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

func init() {
	var projectID, sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation with the agent",
		Run: func(cmd *cobra.Command, args []string) {
			if sessionID == "" {
				sessionID = ulid.Make().String()
			}
			fmt.Printf("session %s (project %s) — type a message, or /quit to exit\n", sessionID, projectID)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return
				}
				line := scanner.Text()
				if line == "/quit" {
					return
				}
				if line == "" {
					continue
				}

				reply, err := ac.Chat(cmd.Context(), sessionID, line, projectID)
				if err != nil {
					exitErr("chat", err)
				}
				fmt.Println(reply.ReplyText)
				if reply.Generated != nil {
					fmt.Printf("[chapter %d, %d words]\n", reply.Generated.ChapterNumber, reply.Generated.WordCount)
				}
				if reply.Report != nil && len(reply.Report.Issues) > 0 {
					b, _ := json.Marshal(reply.Report)
					fmt.Printf("[consistency] %s\n", string(b))
				}
			}
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID this session belongs to")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated if omitted)")

	RootCmd.AddCommand(cmd)
}

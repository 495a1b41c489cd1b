package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base without persisting it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()

	a, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")
	result, err := a.Pipeline.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Printf("Subject: %s\n", result.Reply.SubjectLine)
	fmt.Printf("Confidence: %s\n", result.Reply.Confidence)
	if result.ConflictFlag {
		fmt.Println("Conflicts:")
		for _, c := range result.Reply.Conflicts {
			fmt.Printf("  - %s\n", c)
		}
	}
	fmt.Println()
	fmt.Println(result.Reply.SuggestedReply)

	if len(result.SourcesUsed) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range result.SourcesUsed {
			if s.PageNumber != nil {
				fmt.Printf("  [%s p.%d] %s\n", s.SourceType, *s.PageNumber, s.Snippet)
			} else {
				fmt.Printf("  [%s] %s\n", s.SourceType, s.Snippet)
			}
		}
	}
	return nil
}

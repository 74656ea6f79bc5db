package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/socraticlabs/socratic/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List generated questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		subjectFilter, _ := cmd.Flags().GetString("subject")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.QuestionRepo().List(context.Background(), store.QueryOpts{
			Limit:   limit,
			Subject: subjectFilter,
		})
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		if len(recs) == 0 {
			fmt.Println("No questions recorded yet.")
			return nil
		}

		fmt.Printf("%-10s  %-16s  %-4s  %-6s  %s\n", "Date", "Subject", "Lvl", "Result", "Question")
		fmt.Println(strings.Repeat("─", 100))
		for _, r := range recs {
			result := "open"
			if r.Correct != nil {
				if *r.Correct {
					result = "✓"
				} else {
					result = "✗"
				}
			}
			q := r.Question
			if len(q) > 56 {
				q = q[:56] + "…"
			}
			fmt.Printf("%-10s  %-16s  %-4d  %-6s  %s\n",
				r.CreatedAt.Local().Format("2006-01-02"),
				truncate(r.Subject, 16),
				r.Difficulty,
				result,
				q,
			)
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of questions to show")
	historyCmd.Flags().StringP("subject", "s", "", "Filter by subject")
}
